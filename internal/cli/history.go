package cli

import (
	"fmt"
	"time"

	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var (
	historyLimit     int
	historyClear     bool
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operation journal",
	Long: `Show past operations with their outcome and duration.

Examples:
  pkger history               # Last 20 operations
  pkger history --limit 0     # Everything
  pkger history --prune 30    # Drop entries older than 30 days
  pkger history --clear       # Drop everything`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "number of entries to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all journal entries")
	historyCmd.Flags().IntVar(&historyPruneDays, "prune", 0, "delete entries older than N days")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if journal == nil {
		return fmt.Errorf("operation journal is not available")
	}

	if historyClear {
		if !yes {
			confirmed, err := ui.Confirm("Delete the entire operation journal?", false)
			if err != nil {
				return err
			}
			if !confirmed {
				return ErrAborted
			}
		}
		if err := journal.Clear(); err != nil {
			return err
		}
		ui.SuccessMsg("Journal cleared")
		return nil
	}

	if historyPruneDays > 0 {
		deleted, err := journal.Prune(time.Duration(historyPruneDays) * 24 * time.Hour)
		if err != nil {
			return err
		}
		ui.SuccessMsg("Pruned %d entries", deleted)
		return nil
	}

	entries, err := journal.List(historyLimit)
	if err != nil {
		return err
	}
	ui.PrintHistory(entries)
	return nil
}
