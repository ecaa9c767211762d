package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"baristalog/internal/config"
	"baristalog/internal/database/sqlite"
	"baristalog/internal/preferences"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "baristalog",
		Short: "Baristalog - an espresso shot journal",
		Long: `Baristalog records espresso extractions together with the beans, grinders
and brewers used to pull them, and serves them to a local UI over a JSON API.`,
		RunE:          runServe, // Default action is serve
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a YAML config file")
}

// Execute runs the root command
func Execute(version string) error {
	// Add subcommands here to ensure proper initialization order
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Logger = newLogger(cfg, os.Stderr)
	return cfg, nil
}

// newLogger builds a logger for cfg. Console output is meant for a
// terminal; json for log collectors.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// openStore opens the database and a preference service bound to it. The
// returned close function releases both.
func openStore(cfg *config.Config) (*sqlite.SQLiteStore, *preferences.Service, func(), error) {
	store, err := sqlite.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	prefs := preferences.NewService(store)
	unsubscribe := store.Subscribe(prefs.Invalidate)

	return store, prefs, func() {
		unsubscribe()
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}, nil
}
