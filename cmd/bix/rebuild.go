package main

import (
	"github.com/matsen/bix/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query database from the JSONL source file.

Use this after pulling changes from git or if the database becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status       string `json:"status"`
	Publications int    `json:"publications"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	count, err := db.RebuildFromJSONL(config.PublicationsPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding publications database: %v", err)
	}

	if humanOutput {
		outputHuman("Rebuilt query database with %d publications\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Publications: count})
	}
	return nil
}
