package cli

import (
	"pkger/internal/op"

	"github.com/spf13/cobra"
)

var autoremoveCmd = &cobra.Command{
	Use:     "autoremove",
	Aliases: []string{"orphans"},
	Short:   "Remove orphaned packages",
	Long: `Remove packages that were installed as dependencies and are no
longer required by anything, including their own now-unneeded dependencies.

Examples:
  pkger autoremove
  pkger autoremove -y`,
	Args: cobra.NoArgs,
	RunE: runAutoremove,
}

func runAutoremove(cmd *cobra.Command, args []string) error {
	return runOperation(op.Request{Kind: op.OrphanClean})
}
