package main

import (
	"github.com/matsen/bix/internal/config"
	"github.com/matsen/bix/internal/normalize"
	"github.com/matsen/bix/internal/storage"
	"github.com/spf13/cobra"
)

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would be imported without writing")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import publications from a Scopus CSV export",
	Long: `Import publications from a Scopus CSV export into the repository.

Records are keyed by EID: a re-exported publication replaces the stored one,
so citation counts can be refreshed by importing a newer export.

Rows with a missing or non-numeric Year or Cited by value are skipped and
listed in the output.

Usage:
  bix import scopus.csv
  bix import scopus.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResult represents the result of an import operation.
type ImportResult struct {
	DryRun    bool                   `json:"dry_run,omitempty"`
	New       int                    `json:"new"`
	Updated   int                    `json:"updated"`
	Unchanged int                    `json:"unchanged"`
	Total     int                    `json:"total"`
	Dropped   []normalize.DroppedRow `json:"dropped,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	parsed, err := normalize.ParseFile(args[0])
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}

	pubsPath := config.PublicationsPath(repoRoot)
	existing, err := storage.ReadAll(pubsPath)
	if err != nil {
		exitWithError(ExitDataError, "reading existing publications: %v", err)
	}

	merged, details := storage.Merge(existing, parsed.Dataset.Records())
	result := ImportResult{DryRun: importDryRun, Total: len(merged), Dropped: parsed.Dropped}
	for _, d := range details {
		switch d.Action {
		case storage.ActionNew:
			result.New++
		case storage.ActionUpdate:
			result.Updated++
		default:
			result.Unchanged++
		}
	}
	for _, d := range parsed.Dropped {
		logger.Debug("dropped row", "line", d.Line, "eid", d.EID, "reason", d.Reason)
	}

	if !importDryRun {
		if err := storage.WriteAll(pubsPath, merged); err != nil {
			exitWithError(ExitError, "writing publications: %v", err)
		}
		db := mustOpenDatabase(repoRoot)
		defer db.Close()
		if err := db.Replace(merged); err != nil {
			exitWithError(ExitError, "updating query database: %v", err)
		}
	}

	if humanOutput {
		verb := "Imported"
		if importDryRun {
			verb = "Would import"
		}
		outputHuman("%s: %d new, %d updated, %d unchanged (%d total)\n", verb, result.New, result.Updated, result.Unchanged, result.Total)
		if len(result.Dropped) > 0 {
			outputHuman("Skipped %d rows:\n", len(result.Dropped))
			for _, d := range result.Dropped {
				outputHuman("  line %d %s: %s\n", d.Line, d.EID, d.Reason)
			}
		}
	} else {
		outputJSON(result)
	}
	return nil
}
