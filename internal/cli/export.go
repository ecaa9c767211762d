package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"baristalog/internal/database"
	"baristalog/internal/export"
	"baristalog/internal/preferences"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data as JSON or YAML",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("format", "f", "json", "Output format (json or yaml)")
	exportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, prefs, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	write := func(w io.Writer) error {
		return exportTo(cmd.Context(), w, store, prefs, format)
	}
	if outPath == "" {
		return write(cmd.OutOrStdout())
	}

	if err := writeFile(outPath, write); err != nil {
		return err
	}
	log.Info().Str("path", outPath).Str("format", string(format)).Msg("Export written")
	return nil
}

var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeFile creates path and hands it to write. A failed close is reported
// because buffered data may not have reached the disk.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func exportTo(ctx context.Context, w io.Writer, store database.Store, prefs *preferences.Service, format export.Format) error {
	snapshot, err := export.Build(ctx, store, prefs, time.Now())
	if err != nil {
		return err
	}
	return export.Write(w, snapshot, format)
}
