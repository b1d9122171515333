// Package main provides the bix CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/matsen/bix/internal/config"
	"github.com/matsen/bix/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// verbose enables debug logging on stderr
	verbose bool
)

// logger writes diagnostics to stderr; stdout carries command output.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors (unknown flags, arg counts) are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bix",
	Short: "Bibliometric impact indices from publication records",
	Long: `bix computes bibliometric impact indices (h, g, i10, e, m, s, t and
mock-h) from a researcher's publication and citation record.

Input is a Scopus-style CSV export with the columns EID, Year, Cited by,
Document Type and Funding Details. Exports can be reported on directly or
imported into a repository (git-versionable JSONL with an ephemeral SQLite
cache) and reported on from there.

All commands output JSON by default. Use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return config.LoadEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a repository.
// Checks global config nexus_path first, then current working directory.
func getStartingDirectory() string {
	if root := config.GetNexusPath(); root != "" {
		return root
	}

	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	return cwd
}

// mustFindRepository finds and validates the repository, exits on error.
func mustFindRepository() string {
	start := getStartingDirectory()
	repoRoot, err := config.FindRepository(start)
	if err != nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return repoRoot
}

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// ensureCache rebuilds an empty query database from the JSONL source, as on a
// fresh clone where the cache directory is not versioned.
func ensureCache(db *storage.DB, repoRoot string) {
	count, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting publications: %v", err)
	}
	if count > 0 {
		return
	}
	n, err := db.RebuildFromJSONL(config.PublicationsPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding publications database: %v", err)
	}
	if n > 0 {
		logger.Info("rebuilt empty query database from JSONL", "publications", n)
	}
}

// mustLoadConfig loads repository configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustReferenceYear resolves the m-index reference year, exits on error.
// repo may be nil when running outside a repository.
func mustReferenceYear(flagYear int, repo *config.Config) int {
	year, err := config.ReferenceYear(flagYear, repo, time.Now())
	if err != nil {
		exitWithError(ExitConfigError, "resolving reference year: %v", err)
	}
	return year
}
