package cli

import (
	"context"

	"pkger/internal/query"
	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Show detailed package information",
	Long: `Show full metadata for one package: version, description,
dependencies and what depends on it. Installed packages also show their
update and orphan status.

Examples:
  pkger info firefox
  pkger info linux`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	name := args[0]

	var detail query.Detail
	err := ui.WithSpinner("Looking up "+name, func() error {
		var err error
		detail, err = engine.Details(ctx, name)
		return err
	})
	if err != nil {
		return err
	}

	ui.PrintDetail(detail)
	return nil
}
