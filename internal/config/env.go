package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override configuration files.
const (
	EnvReferenceYear = "BIX_REFERENCE_YEAR"
	EnvListen        = "BIX_LISTEN"
)

// Bounds for a reference year.
const (
	MinReferenceYear = 1900
	MaxReferenceYear = 2200
)

// LoadEnv loads a .env file from the working directory if present.
// Variables already set in the environment are not overwritten.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ReferenceYear resolves the m-index reference year. The first non-zero
// source wins: flagYear, BIX_REFERENCE_YEAR, the repository config, the
// global config, and finally the year of now.
func ReferenceYear(flagYear int, repo *Config, now time.Time) (int, error) {
	if flagYear != 0 {
		return flagYear, ValidateReferenceYear(flagYear)
	}

	if v := os.Getenv(EnvReferenceYear); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", EnvReferenceYear, err)
		}
		return year, ValidateReferenceYear(year)
	}

	if repo != nil && repo.ReferenceYear != 0 {
		return repo.ReferenceYear, ValidateReferenceYear(repo.ReferenceYear)
	}

	global, err := LoadGlobalConfig()
	if err != nil {
		return 0, err
	}
	if global.ReferenceYear != 0 {
		return global.ReferenceYear, nil
	}

	return now.Year(), nil
}

// ListenAddr resolves the serve address: flagAddr, BIX_LISTEN, the global
// config, then DefaultListen.
func ListenAddr(flagAddr string) string {
	if flagAddr != "" {
		return flagAddr
	}
	if v := os.Getenv(EnvListen); v != "" {
		return v
	}
	if global, err := LoadGlobalConfig(); err == nil && global.Listen != "" {
		return global.Listen
	}
	return DefaultListen
}
