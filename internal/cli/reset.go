package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every bean, grinder, brewer, extraction and preference",
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm that all data should be deleted")
}

func runReset(cmd *cobra.Command, args []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return errors.New("refusing to reset without --yes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, _, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.ResetAll(cmd.Context()); err != nil {
		return err
	}

	log.Info().Str("db_path", cfg.DBPath).Msg("All data reset")
	fmt.Fprintln(cmd.OutOrStdout(), "All data deleted.")
	return nil
}
