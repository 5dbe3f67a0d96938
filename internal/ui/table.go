package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"pkger/internal/cache"
	"pkger/internal/history"
	"pkger/internal/query"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a new table writing to stdout.
func NewTable(header []string) *Table {
	return NewTableWriter(os.Stdout, header)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	t := &Table{writer: tw, headers: header}
	if len(header) > 0 {
		headerRow := make([]string, len(header))
		for i, h := range header {
			headerRow[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(tw, strings.Join(headerRow, "\t"))
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row []string) {
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render flushes the table to its writer.
func (t *Table) Render() {
	t.writer.Flush()
}

// PrintRecords prints package records in a formatted table.
func PrintRecords(records []cache.Record) {
	if len(records) == 0 {
		MutedMsg("No packages found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, Bold("REPO")+"\t"+Bold("NAME")+"\t"+Bold("VERSION")+"\t"+Bold("DESCRIPTION"))

	for _, rec := range records {
		repo := PackageRepo.Sprint("[" + rec.Repository + "]")
		name := PackageName.Sprint(rec.Name)
		version := PackageVersion.Sprint(rec.Version)

		desc := rec.Description
		if len(desc) > 50 {
			desc = desc[:47] + "..."
		}

		if rec.Installed {
			name += " " + Installed.Sprint("[installed]")
		}
		if rec.Outdated {
			version += " " + Outdated.Sprintf("%s %s", SymbolArrow, rec.AvailableVersion)
		}
		if rec.Orphan {
			name += " " + Orphan.Sprint("[orphan]")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", repo, name, version, desc)
	}

	w.Flush()
}

// PrintDetail prints detailed package information.
func PrintDetail(d query.Detail) {
	HeaderMsg("Package Information")

	printField("Name", d.Name)
	printField("Version", d.Version)
	printField("Repository", d.Repository)
	printField("Description", d.Description)
	printField("Homepage", d.Homepage)
	printField("Licenses", d.Licenses)
	printField("Installed Size", d.InstalledSize)
	printField("Download Size", d.DownloadSize)

	if d.Installed {
		printField("Status", Installed.Sprint("installed"))
		if d.Outdated {
			printField("Update", Outdated.Sprintf("%s available", d.AvailableVersion))
		}
		if d.Orphan {
			printField("Orphan", Orphan.Sprint("no package depends on this"))
		}
	}

	if len(d.Dependencies) > 0 {
		printField("Depends On", strings.Join(d.Dependencies, " "))
	}
	if len(d.ReverseDependencies) > 0 {
		printField("Required By", strings.Join(d.ReverseDependencies, " "))
	}

	fmt.Println()
}

func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%s %s\n", Muted.Sprintf("%-16s", label+":"), value)
}

// PrintUpdates prints pending updates.
func PrintUpdates(records []cache.Record) {
	if len(records) == 0 {
		SuccessMsg("System is up to date")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, Bold("NAME")+"\t"+Bold("CURRENT")+"\t"+Bold("AVAILABLE"))
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			PackageName.Sprint(rec.Name),
			rec.Version,
			PackageVersion.Sprint(rec.AvailableVersion))
	}
	w.Flush()
	fmt.Println()
	InfoMsg("%d update(s) pending", len(records))
}

// PrintHistory prints journal entries, newest first.
func PrintHistory(entries []history.Entry) {
	if len(entries) == 0 {
		MutedMsg("No recorded operations")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, Bold("WHEN")+"\t"+Bold("OPERATION")+"\t"+Bold("TARGETS")+"\t"+Bold("STATUS"))
	for _, e := range entries {
		status := e.Status
		switch {
		case e.Succeeded():
			status = Success.Sprint(status)
		case e.Status == "cancelled":
			status = Warning.Sprint(status)
		default:
			status = Error.Sprint(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.FormatTime(), e.Kind, strings.Join(e.Targets, " "), status)
	}
	w.Flush()
}
