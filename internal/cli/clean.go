package cli

import (
	"pkger/internal/op"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the package download cache",
	Long: `Remove downloaded package archives that are no longer installed,
freeing disk space. Package metadata is unaffected.

Examples:
  pkger clean
  pkger clean -y`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	return runOperation(op.Request{Kind: op.CacheClean})
}
