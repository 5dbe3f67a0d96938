package cli

import (
	"context"

	"pkger/internal/cache"
	"pkger/internal/query"
	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List pending updates without applying them",
	Long: `Show which installed packages have a newer version available,
from the official repositories and the AUR.

Examples:
  pkger updates
  pkger updates && pkger update`,
	Args: cobra.NoArgs,
	RunE: runUpdates,
}

func runUpdates(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Force a fresh look: stale update listings are worse than none.
	metaCache.Invalidate(cache.Installed, cache.AUR)
	ensureFresh(ctx)

	records := engine.List([]cache.Source{cache.Installed},
		query.Filters{OutdatedOnly: true}, query.SortByName)
	ui.PrintUpdates(records)
	return nil
}
