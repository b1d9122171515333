package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/bix/config.yml.
type GlobalConfig struct {
	NexusPath     string     `yaml:"nexus_path,omitempty"`     // Default repository when not inside one
	ReferenceYear int        `yaml:"reference_year,omitempty"` // Default m-index reference year
	Listen        string     `yaml:"listen,omitempty"`         // Address for bix serve
	RateLimit     *RateLimit `yaml:"rate_limit,omitempty"`     // Per-IP report limit for bix serve
}

// RateLimit bounds report requests per client IP for bix serve.
// A zero RequestsPerMinute disables limiting.
type RateLimit struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// DefaultRateLimit applies when the global config sets no rate_limit.
var DefaultRateLimit = RateLimit{RequestsPerMinute: 30, Burst: 10}

// RateLimitSetting returns the configured rate limit, or DefaultRateLimit.
func RateLimitSetting() RateLimit {
	cfg, err := LoadGlobalConfig()
	if err != nil || cfg.RateLimit == nil {
		return DefaultRateLimit
	}
	return *cfg.RateLimit
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "bix"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// DefaultListen is the serve address when none is configured.
	DefaultListen = ":8080"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bix/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if err := ValidateReferenceYear(cfg.ReferenceYear); err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	if rl := cfg.RateLimit; rl != nil && (rl.RequestsPerMinute < 0 || rl.Burst < 0) {
		return nil, fmt.Errorf("global config: rate_limit values must not be negative")
	}

	if cfg.NexusPath != "" {
		cfg.NexusPath = ExpandPath(cfg.NexusPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetNexusPath returns the configured nexus path from global config.
func GetNexusPath() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.NexusPath
}

// HelpfulConfigMessage returns a helpful message when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No bix repository found.

Run 'bix init' in a directory to create one, or set a default in %s:
  mkdir -p %s
  echo 'nexus_path: /path/to/your/publications' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
