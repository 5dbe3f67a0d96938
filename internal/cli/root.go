// Package cli implements the command-line interface for pkger.
package cli

import (
	"context"

	"pkger/internal/cache"
	"pkger/internal/config"
	"pkger/internal/credential"
	"pkger/internal/history"
	"pkger/internal/logger"
	"pkger/internal/orchestrator"
	"pkger/internal/pacman"
	"pkger/internal/query"
	"pkger/internal/resolver"
	"pkger/internal/runner"
	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	yes     bool
	verbose bool
	noColor bool

	// Global state
	cfg       *config.Config
	run       *runner.Runner
	cmds      *pacman.Commands
	metaCache *cache.Cache
	engine    *query.Engine
	broker    *credential.Broker
	journal   *history.Store
	orch      *orchestrator.Orchestrator
	aurHelper string
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pkger",
	Short: "Arch Linux package management front-end",
	Long: `Pkger wraps pacman, the configured AUR helper and pactree behind a
single command set with cached metadata, safe privilege handling and an
operation journal.

Examples:
  pkger search firefox          # Search official repositories
  pkger search --aur spotify    # Search the AUR
  pkger install vim git         # Install packages
  pkger update                  # Full system upgrade
  pkger updates                 # List pending updates without applying`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(installFileCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(autoremoveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	teardownApp()
	if err != nil {
		ui.ErrorMsg("%v", err)
	}
	return err
}

// initializeApp loads configuration and wires the backend together.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if noColor {
		cfg.Output.Color = false
	}
	if cfg.General.AutoConfirm {
		yes = true
	}

	level := cfg.General.LogLevel
	if verbose {
		level = "debug"
	}
	logger.Init(level, rootCmd.ErrOrStderr())
	ui.Init(cfg.Output.Color, cfg.Output.Unicode)

	run = runner.New(cfg.TerminateGrace())
	aurHelper = pacman.DetectAURHelper(cfg.General.AURHelper)
	if aurHelper == "" {
		logger.Warn("no AUR helper found, AUR operations disabled")
	}
	cmds = pacman.NewCommands(run, aurHelper)

	var store *cache.Store
	if cfg.Cache.Persist {
		if err := config.EnsureDataDir(); err != nil {
			return err
		}
		store, err = cache.OpenStore(config.CachePath())
		if err != nil {
			logger.Warn("cache persistence disabled", "error", err)
			store = nil
		}
	}
	metaCache = cache.New(cmds, cfg.Staleness(), store)
	engine = query.New(cmds, metaCache)

	broker = credential.NewBroker(ui.PasswordPrompter{}, run)

	journal, err = history.Open()
	if err != nil {
		logger.Warn("operation journal disabled", "error", err)
		journal = nil
	}

	var jadapter orchestrator.Journal
	if journal != nil {
		jadapter = journalAdapter{journal}
	}
	orch = orchestrator.New(run, resolver.New(run, aurHelper), broker, metaCache, jadapter, orchestrator.Options{
		AURHelper:  aurHelper,
		RejectBusy: cfg.General.RejectBusy,
	})
	orch.SetOnFinish(engine.Flush)

	return nil
}

func teardownApp() {
	if journal != nil {
		journal.Close() //nolint:errcheck
	}
}

// ensureFresh refreshes any stale cache sources before a read command, so
// listings reflect the current system state.
func ensureFresh(ctx context.Context) {
	sp := ui.NewSpinner("Refreshing package metadata...")
	sp.Start()
	metaCache.RefreshStale(ctx)
	sp.Stop()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pkger version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("pkger version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
