package cli

import (
	"context"

	"pkger/internal/cache"
	"pkger/internal/op"
	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var (
	installAUR       bool
	installReinstall bool
)

var installCmd = &cobra.Command{
	Use:   "install [packages...]",
	Short: "Install one or more packages",
	Long: `Install packages from the official repositories, or from the AUR
through the configured helper.

Targets not present in the official repositories fall back to the AUR
automatically when a helper is installed.

Examples:
  pkger install vim git          # Install from official repos
  pkger install --aur spotify    # Install from the AUR
  pkger install -y neovim        # Install without confirmation
  pkger install --reinstall vim  # Reinstall even when up to date`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&installAUR, "aur", false, "install from the AUR")
	installCmd.Flags().BoolVar(&installReinstall, "reinstall", false, "reinstall even when already up to date")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if installAUR && aurHelper == "" {
		return ErrNoAURHelper
	}

	if !installAUR {
		ensureFresh(ctx)
	}

	targets := make([]op.Target, 0, len(args))
	for _, name := range args {
		targets = append(targets, op.Target{Name: name, Source: targetSource(name)})
	}

	kind := op.Install
	if installReinstall {
		kind = op.Reinstall
	}

	return runOperation(op.Request{Kind: kind, Targets: targets})
}

// targetSource decides where a target comes from: an explicit --aur wins,
// otherwise anything the official catalog knows is official, and the rest
// falls back to the AUR when a helper is available.
func targetSource(name string) cache.Source {
	if installAUR {
		return cache.AUR
	}

	if _, ok := metaCache.Snapshot(cache.Official).Get(name); ok {
		return cache.Official
	}
	if aurHelper != "" {
		ui.InfoMsg("%s is not in the official repositories, trying the AUR", name)
		return cache.AUR
	}
	return cache.Official
}
