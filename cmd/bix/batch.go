package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/matsen/bix/internal/batch"
	"github.com/matsen/bix/internal/render"
	"github.com/spf13/cobra"
)

var (
	batchYear        int
	batchConcurrency int
)

func init() {
	batchCmd.Flags().IntVar(&batchYear, "year", 0, "Reference year for the m-index (default: config, then current year)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", batch.DefaultConcurrency, "Number of files processed at once")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <file.csv>...",
	Short: "Compute reports for several CSV exports",
	Long: `Compute a report for each CSV export, for example one export per
researcher. Files are processed concurrently; a file that fails to parse is
reported with its error and does not stop the others.

Exits with a data error if any file failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

// BatchResponse is the JSON output of the batch command.
type BatchResponse struct {
	ReferenceYear int            `json:"reference_year"`
	Results       []batch.Result `json:"results"`
	Failed        int            `json:"failed"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	year := mustReferenceYear(batchYear, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := batch.Run(ctx, args, batch.Options{
		CurrentYear: year,
		Concurrency: batchConcurrency,
		Logger:      logger,
	})

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	if humanOutput {
		for _, r := range results {
			outputHuman("== %s\n", r.Name)
			if r.Error != "" {
				outputHuman("error: %s\n\n", r.Error)
				continue
			}
			render.WriteText(os.Stdout, *r.Report)
			outputHuman("\n")
		}
	} else {
		outputJSON(BatchResponse{ReferenceYear: year, Results: results, Failed: failed})
	}

	if failed > 0 {
		os.Exit(ExitDataError)
	}
	return nil
}
