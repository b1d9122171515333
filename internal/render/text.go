package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/matsen/bix/internal/report"
)

// WriteText writes r as an aligned two-column table.
func WriteText(w io.Writer, r report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range r.Entries() {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", e.Key, FormatValue(e.Value)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteYearly writes the per-year breakdown of r.
func WriteYearly(w io.Writer, r report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, "Year\tPapers\tCitations\th index\t"); err != nil {
		return err
	}
	for _, y := range r.Yearly {
		if _, err := fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t\n", y.Year, y.Papers, y.Citations, y.HIndex); err != nil {
			return err
		}
	}
	return tw.Flush()
}
