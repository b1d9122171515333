package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/matsen/bix/internal/index"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(yearsCmd)
}

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "Show per-year publication, citation and h-index totals",
	Long: `Show the per-year breakdown of the repository: papers, citations,
funded papers and the h-index of each year's publications. These yearly
h-indices and citation totals are the inputs to the t-index.`,
	Args: cobra.NoArgs,
	RunE: runYears,
}

// YearRow is one line of the years command output.
type YearRow struct {
	Year      int `json:"year"`
	Papers    int `json:"papers"`
	Citations int `json:"citations"`
	Funded    int `json:"funded"`
	HIndex    int `json:"h_index"`
}

func runYears(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	ensureCache(db, repoRoot)

	summaries, err := db.YearSummaries()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	ds, err := db.LoadDataset(0, 0)
	if err != nil {
		exitWithError(exitCodeFor(err), "loading publications: %v", err)
	}

	hByYear := make(map[int]int)
	for _, s := range index.YearlyStats(ds.ByYear()) {
		hByYear[s.Year] = s.HIndex
	}

	rows := make([]YearRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, YearRow{
			Year:      s.Year,
			Papers:    s.Papers,
			Citations: s.Citations,
			Funded:    s.Funded,
			HIndex:    hByYear[s.Year],
		})
	}

	if humanOutput {
		if err := writeYearRows(os.Stdout, rows); err != nil {
			exitWithError(ExitError, "writing output: %v", err)
		}
		return nil
	}

	outputJSON(rows)
	return nil
}

func writeYearRows(w io.Writer, rows []YearRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, "Year\tPapers\tCitations\tFunded\th index\t"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t\n", r.Year, r.Papers, r.Citations, r.Funded, r.HIndex); err != nil {
			return err
		}
	}
	return tw.Flush()
}
