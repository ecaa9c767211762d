package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"baristalog/internal/coach"
	"baristalog/internal/config"
	"baristalog/internal/handlers"
	"baristalog/internal/routing"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg)
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, prefs, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	results := coach.NewResultCache(cfg.CoachingTTL)
	stopCleanup := results.StartCleanupRoutine(max(cfg.CoachingTTL/2, time.Minute))
	defer stopCleanup()

	capability := coach.NewOpenAI(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel)
	if !capability.Available() {
		log.Info().Msg("Coaching disabled: llm_endpoint or llm_api_key not set")
	}

	h := handlers.NewHandler(store, prefs)
	h.SetCoach(coach.New(capability, prefs, store, results))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           routing.SetupRouter(routing.Config{Handlers: h, Logger: log.Logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("db_path", cfg.DBPath).
			Msg("Starting baristalog server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
