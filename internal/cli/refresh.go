package cli

import (
	"pkger/internal/cache"
	"pkger/internal/op"

	"github.com/spf13/cobra"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the package databases",
	Long: `Refresh pkger's metadata cache from the package databases. With
--force, the sync databases themselves are re-downloaded even when they
appear current, which recovers from a corrupted or desynchronized state.

Examples:
  pkger refresh
  pkger refresh --force`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "re-download sync databases (pacman -Syy)")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if refreshForce {
		return runOperation(op.Request{Kind: op.SyncForce})
	}

	metaCache.Invalidate(cache.Sources...)
	ensureFresh(cmd.Context())
	return nil
}
