package cli

import (
	"context"

	"pkger/internal/cache"
	"pkger/internal/query"
	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var (
	listOrphans  bool
	listOutdated bool
	listRepo     string
	listSort     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List installed packages from the metadata cache, refreshing it
first when stale.

Examples:
  pkger list                # Everything installed
  pkger list --orphans      # Packages nothing depends on
  pkger list --outdated     # Packages with a pending update`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listOrphans, "orphans", false, "only orphaned packages")
	listCmd.Flags().BoolVar(&listOutdated, "outdated", false, "only packages with pending updates")
	listCmd.Flags().StringVar(&listRepo, "repo", "", "restrict to one repository")
	listCmd.Flags().StringVar(&listSort, "sort", "name", "sort key (name, repository)")
}

func runList(cmd *cobra.Command, args []string) error {
	ensureFresh(context.Background())

	filters := query.Filters{
		Repository:   listRepo,
		OrphansOnly:  listOrphans,
		OutdatedOnly: listOutdated,
	}

	records := engine.List([]cache.Source{cache.Installed}, filters, query.SortKey(listSort))
	ui.PrintRecords(records)
	return nil
}
