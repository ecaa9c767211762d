package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"baristalog/internal/bff"
	"baristalog/internal/database"
	"baristalog/internal/preferences"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List extractions grouped by day",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("days", 7, "Number of days to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, prefs, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	return printHistory(cmd.Context(), cmd.OutOrStdout(), store, prefs, time.Now(), days)
}

func printHistory(ctx context.Context, w io.Writer, store database.Store, prefs *preferences.Service, now time.Time, days int) error {
	extractions, err := store.ListExtractions(ctx, database.SortDateDesc)
	if err != nil {
		return err
	}
	if len(extractions) == 0 {
		fmt.Fprintln(w, "No extractions recorded.")
		return nil
	}

	groups := bff.BuildDayViews(extractions, now, prefs.Snapshot(ctx))
	if days > 0 && len(groups) > days {
		groups = groups[:days]
	}

	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", g.Label, len(g.Extractions))
		for _, e := range g.Extractions {
			fields := []string{
				e.Date.Format(time.Kitchen),
				orDash(e.BeanName),
				"grind " + e.GrindSetting,
				e.Dose + " -> " + e.Yield,
			}
			if e.Ratio != "" {
				fields = append(fields, e.Ratio)
			}
			fields = append(fields, e.Time, e.Rating)
			fmt.Fprintf(w, "  %s\n", strings.Join(fields, "  "))
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
