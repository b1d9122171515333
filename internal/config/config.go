// Package config handles repository and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents repository configuration stored in .bix/config.json.
type Config struct {
	Researcher    string `json:"researcher,omitempty"`     // Display name used in reports
	ReferenceYear int    `json:"reference_year,omitempty"` // m-index reference year; 0 means unset
}

const (
	BixDir           = ".bix"
	ConfigFile       = "config.json"
	PublicationsFile = "publications.jsonl"
	CacheDir         = "cache"
	DBFile           = "publications.db"
)

// ErrNotRepository is returned when no .bix directory is found.
var ErrNotRepository = errors.New("not in a bix repository (no .bix directory found)")

// BixPath returns the path to the .bix directory from a root path.
func BixPath(root string) string {
	return filepath.Join(root, BixDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, BixDir, ConfigFile)
}

// PublicationsPath returns the path to publications.jsonl from a root path.
func PublicationsPath(root string) string {
	return filepath.Join(root, BixDir, PublicationsFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, BixDir, CacheDir)
}

// DBPath returns the path to publications.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, BixDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a bix repository.
func IsRepository(root string) bool {
	info, err := os.Stat(BixPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a bix repository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Init creates the .bix layout under root with an empty configuration.
// It fails if root is already a repository.
func Init(root string) error {
	if IsRepository(root) {
		return fmt.Errorf("already a bix repository: %s", root)
	}
	if err := os.MkdirAll(CachePath(root), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", BixDir, err)
	}
	if err := os.WriteFile(PublicationsPath(root), nil, 0644); err != nil {
		return fmt.Errorf("creating publications file: %w", err)
	}
	return (&Config{}).Save(root)
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ValidateReferenceYear checks that a configured reference year is plausible.
func ValidateReferenceYear(year int) error {
	if year == 0 {
		return nil // Unset
	}
	if year < MinReferenceYear || year > MaxReferenceYear {
		return fmt.Errorf("invalid reference_year: %d (must be between %d and %d)", year, MinReferenceYear, MaxReferenceYear)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
