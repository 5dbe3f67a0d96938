package cli

import (
	"context"

	"pkger/internal/cache"
	"pkger/internal/op"
	"pkger/internal/query"
	"pkger/internal/ui"

	"github.com/spf13/cobra"
)

var (
	searchAUR       bool
	searchInstalled bool
	searchRepo      string
	searchOutdated  bool
	searchSort      string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for packages",
	Long: `Search the official repositories, and optionally the AUR or the
locally installed packages.

Examples:
  pkger search firefox            # Search official repositories
  pkger search --aur spotify      # Search official repos and the AUR
  pkger search --installed vim    # Search installed packages only
  pkger search --repo extra gtk   # Restrict to one repository`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchAUR, "aur", false, "also search the AUR")
	searchCmd.Flags().BoolVar(&searchInstalled, "installed", false, "search installed packages only")
	searchCmd.Flags().StringVar(&searchRepo, "repo", "", "restrict results to one repository")
	searchCmd.Flags().BoolVar(&searchOutdated, "outdated", false, "only show packages with pending updates")
	searchCmd.Flags().StringVar(&searchSort, "sort", "name", "sort key (name, repository)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	term := args[0]

	sources := []cache.Source{cache.Official}
	switch {
	case searchInstalled:
		sources = []cache.Source{cache.Installed}
	case searchAUR:
		if aurHelper == "" {
			return ErrNoAURHelper
		}
		sources = append(sources, cache.AUR)
	}

	filters := query.Filters{
		Repository:    searchRepo,
		InstalledOnly: searchInstalled,
		OutdatedOnly:  searchOutdated,
	}

	var records []cache.Record
	err := ui.WithSpinner("Searching for '"+term+"'", func() error {
		var err error
		records, err = engine.Search(ctx, term, sources, filters)
		return err
	})
	if err != nil {
		return err
	}

	query.SortRecords(records, query.SortKey(searchSort))
	ui.PrintRecords(records)

	if searchInstalled || len(records) == 0 || yes {
		return nil
	}
	return offerInstall(records)
}

// offerInstall lets the user install straight from the search results, the
// same way a result row would be actioned in a graphical front-end.
func offerInstall(records []cache.Record) error {
	proceed, err := ui.Confirm("Install a package from these results?", false)
	if err != nil || !proceed {
		return err
	}

	rec, err := ui.SelectRecord(records, "Select a package")
	if err != nil {
		return nil // selection aborted
	}

	src := rec.Source
	if src == cache.Installed {
		src = cache.Official
	}
	return runOperation(op.Request{
		Kind:    op.Install,
		Targets: []op.Target{{Name: rec.Name, Source: src}},
	})
}
