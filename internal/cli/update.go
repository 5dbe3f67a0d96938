package cli

import (
	"pkger/internal/cache"
	"pkger/internal/op"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update [packages...]",
	Aliases: []string{"upgrade"},
	Short:   "Update all packages or a selection",
	Long: `With no arguments, runs a full system upgrade. With package names,
upgrades only those packages.

Examples:
  pkger update              # Full system upgrade
  pkger update firefox vim  # Upgrade selected packages`,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return runOperation(op.Request{Kind: op.UpdateAll})
	}

	targets := make([]op.Target, 0, len(args))
	for _, name := range args {
		src := cache.Official
		if _, ok := metaCache.Snapshot(cache.AUR).Get(name); ok {
			src = cache.AUR
		}
		targets = append(targets, op.Target{Name: name, Source: src})
	}
	return runOperation(op.Request{Kind: op.UpdateSelected, Targets: targets})
}
