package cli

import (
	"context"

	"pkger/internal/cache"
	"pkger/internal/op"
	"pkger/internal/query"
	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove [packages...]",
	Aliases: []string{"uninstall"},
	Short:   "Remove one or more packages",
	Long: `Remove installed packages. Packages that other installed packages
depend on are refused by the transaction, with the dependents named.

Examples:
  pkger remove vim
  pkger remove -y vim git`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ensureFresh(ctx)

	// Surface dependents before planning so the user sees the blast radius.
	snap := metaCache.Snapshot(cache.Installed)
	for _, name := range args {
		if deps := query.ReverseDependencies(snap, name); len(deps) > 0 {
			ui.WarningMsg("%s is required by %d installed package(s)", name, len(deps))
		}
	}

	targets := make([]op.Target, 0, len(args))
	for _, name := range args {
		targets = append(targets, op.Target{Name: name, Source: cache.Installed})
	}

	return runOperation(op.Request{Kind: op.Remove, Targets: targets})
}
