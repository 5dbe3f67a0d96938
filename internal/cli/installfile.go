package cli

import (
	"pkger/internal/op"

	"github.com/spf13/cobra"
)

var installFileCmd = &cobra.Command{
	Use:   "install-file [archive]",
	Short: "Install a local package archive",
	Long: `Install a package from a local .pkg.tar.zst or .pkg.tar.xz archive.
The file is validated before anything is launched.

Examples:
  pkger install-file ./mypkg-1.0-1-x86_64.pkg.tar.zst`,
	Args: cobra.ExactArgs(1),
	RunE: runInstallFile,
}

func runInstallFile(cmd *cobra.Command, args []string) error {
	return runOperation(op.Request{Kind: op.InstallLocalFile, LocalPath: args[0]})
}
