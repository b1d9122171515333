package main

import (
	"os"

	"github.com/matsen/bix/internal/config"
	"github.com/matsen/bix/internal/normalize"
	"github.com/matsen/bix/internal/publication"
	"github.com/matsen/bix/internal/render"
	"github.com/matsen/bix/internal/report"
	"github.com/spf13/cobra"
)

var (
	reportYear     int
	reportHTMLPath string
	reportYearly   bool
	reportFrom     int
	reportTo       int
)

func init() {
	reportCmd.Flags().IntVar(&reportYear, "year", 0, "Reference year for the m-index (default: config, then current year)")
	reportCmd.Flags().StringVar(&reportHTMLPath, "html", "", "Also write the report as an HTML page to this path")
	reportCmd.Flags().BoolVar(&reportYearly, "yearly", false, "Include the per-year breakdown in human output")
	reportCmd.Flags().IntVar(&reportFrom, "from", 0, "Only include publications from this year on (repository only)")
	reportCmd.Flags().IntVar(&reportTo, "to", 0, "Only include publications up to this year (repository only)")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [file.csv]",
	Short: "Compute bibliometric indices",
	Long: `Compute bibliometric indices for a CSV export or for the repository.

With a file argument the export is normalized and reported on directly, no
repository needed. Without one, the publications imported into the current
repository are used.

Usage:
  bix report scopus.csv --year 2024
  bix report --human --yearly
  bix report --from 2015 --html report.html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

// ReportResponse is the JSON output of the report command.
type ReportResponse struct {
	Source  string                 `json:"source"`
	Report  report.Report          `json:"report"`
	Entries []report.Entry         `json:"entries"`
	Dropped []normalize.DroppedRow `json:"dropped,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	var (
		ds      *publication.Dataset
		dropped []normalize.DroppedRow
		source  string
		title   string
		year    int
	)

	if len(args) == 1 {
		source = args[0]
		parsed, err := normalize.ParseFile(source)
		if err != nil {
			exitWithError(exitCodeFor(err), "%v", err)
		}
		ds, dropped = parsed.Dataset, parsed.Dropped
		year = mustReferenceYear(reportYear, nil)
	} else {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)
		db := mustOpenDatabase(repoRoot)
		defer db.Close()
		ensureCache(db, repoRoot)

		var err error
		ds, err = db.LoadDataset(reportFrom, reportTo)
		if err != nil {
			exitWithError(exitCodeFor(err), "loading publications: %v", err)
		}
		source = config.PublicationsPath(repoRoot)
		title = cfg.Researcher
		year = mustReferenceYear(reportYear, cfg)
	}

	r := report.Assemble(ds, year)
	logger.Debug("assembled report", "source", source, "publications", r.Publications, "reference_year", year)

	if reportHTMLPath != "" {
		page, err := render.GenerateHTML(r, render.HTMLOptions{Title: title, Source: source, Yearly: true, Dropped: len(dropped)})
		if err != nil {
			exitWithError(ExitError, "rendering HTML: %v", err)
		}
		if err := os.WriteFile(reportHTMLPath, []byte(page), 0644); err != nil {
			exitWithError(ExitError, "writing HTML: %v", err)
		}
	}

	if humanOutput {
		if err := render.WriteText(os.Stdout, r); err != nil {
			exitWithError(ExitError, "writing output: %v", err)
		}
		if reportYearly {
			outputHuman("\n")
			if err := render.WriteYearly(os.Stdout, r); err != nil {
				exitWithError(ExitError, "writing output: %v", err)
			}
		}
		if len(dropped) > 0 {
			outputHuman("\nSkipped %d rows with a missing or invalid Year or Cited by value\n", len(dropped))
		}
		return nil
	}

	outputJSON(ReportResponse{Source: source, Report: r, Entries: r.Entries(), Dropped: dropped})
	return nil
}
