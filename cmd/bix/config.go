package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/bix/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set repository configuration values",
	Long: `Get or set repository configuration values.

Usage:
  bix config                        # Show all config
  bix config reference-year         # Get specific value
  bix config reference-year 2024    # Set value
  bix config researcher "A. Smith"  # Set display name

Keys:
  researcher      Name shown on HTML reports
  reference-year  m-index reference year (0 to use the current year)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for config get commands.
type ConfigResponse struct {
	Researcher    string `json:"researcher"`
	ReferenceYear int    `json:"reference_year"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("researcher:     %s\n", cfg.Researcher)
			fmt.Printf("reference-year: %d\n", cfg.ReferenceYear)
		} else {
			outputJSON(ConfigResponse{Researcher: cfg.Researcher, ReferenceYear: cfg.ReferenceYear})
		}
		return nil
	}

	key := args[0]
	normalizedKey := normalizeKey(key)

	if len(args) == 1 {
		switch normalizedKey {
		case "researcher":
			if humanOutput {
				fmt.Println(cfg.Researcher)
			} else {
				outputJSON(map[string]string{"researcher": cfg.Researcher})
			}
		case "reference-year":
			if humanOutput {
				fmt.Println(cfg.ReferenceYear)
			} else {
				outputJSON(map[string]int{"reference_year": cfg.ReferenceYear})
			}
		default:
			exitWithError(ExitError, "unknown configuration key: %s", key)
		}
		return nil
	}

	value := args[1]

	switch normalizedKey {
	case "researcher":
		cfg.Researcher = value
	case "reference-year":
		year, err := strconv.Atoi(value)
		if err != nil {
			exitWithError(ExitError, "invalid reference-year: %s", value)
		}
		if err := config.ValidateReferenceYear(year); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.ReferenceYear = year
	default:
		exitWithError(ExitError, "unknown configuration key: %s", key)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: normalizedKey, Value: value})
	}
	return nil
}

// normalizeKey converts key formats (reference-year, reference_year, Reference_Year) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
