// Package config loads and persists user settings for scans, duplicate
// criteria and the rename schema as YAML under ~/.config/dedupe/.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/realdedupe/dedupe/internal/catalog"
	"github.com/realdedupe/dedupe/internal/grouper"
	"github.com/realdedupe/dedupe/internal/renamer"
)

const maxRecentFolders = 10

// Config represents the application configuration
type Config struct {
	Folder            string         `yaml:"folder"`
	DaysBack          int            `yaml:"days_back"`
	IncludeSubfolders bool           `yaml:"include_subfolders"`
	NamePrefix        string         `yaml:"name_prefix"`
	Criteria          Criteria       `yaml:"criteria"`
	HashCap           HashCap        `yaml:"hash_cap"`
	RenameKept        bool           `yaml:"rename_kept"`
	RecentFolders     []string       `yaml:"recent_folders"`
	RenameSchema      renamer.Schema `yaml:"rename_schema"`
	FileTypePreset    string         `yaml:"file_type_preset"`
}

// Criteria selects which attributes make two files duplicates of each
// other. At least one must be enabled for grouping to produce anything.
type Criteria struct {
	Hash    bool `yaml:"hash"`
	Size    bool `yaml:"size"`
	Name    bool `yaml:"name"`
	ModTime bool `yaml:"mtime"`
	MIME    bool `yaml:"mime"`
}

// HashCap limits how large a file may be before hashing is skipped for it.
type HashCap struct {
	Enabled bool  `yaml:"enabled"`
	MaxMB   int64 `yaml:"max_mb"`
}

// Bytes returns the cap in bytes, or 0 when the cap is disabled.
func (h HashCap) Bytes() int64 {
	if !h.Enabled || h.MaxMB <= 0 {
		return 0
	}
	return h.MaxMB * 1024 * 1024
}

// GetDefault returns the default configuration
func GetDefault() *Config {
	folder := ""
	if home, err := os.UserHomeDir(); err == nil {
		folder = filepath.Join(home, "Downloads")
	}

	return &Config{
		Folder:            folder,
		DaysBack:          7,
		IncludeSubfolders: true,
		Criteria: Criteria{
			Hash: true,
		},
		HashCap: HashCap{
			Enabled: true,
			MaxMB:   500,
		},
		RecentFolders: []string{},
		RenameSchema: renamer.Schema{
			Components: []renamer.Component{
				{Kind: renamer.ComponentFolderName},
				{Kind: renamer.ComponentDateCreated},
				{Kind: renamer.ComponentTimeCreated},
				{Kind: renamer.ComponentSequence, PadWidth: 3},
			},
			Separator: "_",
		},
		FileTypePreset: "all",
	}
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DaysBack < 0 {
		return fmt.Errorf("days back must be >= 0")
	}
	if c.HashCap.MaxMB < 0 {
		return fmt.Errorf("hash cap must be >= 0 MB")
	}
	if len(c.RenameSchema.Components) > 0 || c.RenameSchema.Separator != "" {
		if err := c.RenameSchema.Validate(); err != nil {
			return fmt.Errorf("invalid rename schema: %w", err)
		}
	}
	return nil
}

// RememberFolder records a folder at the front of the recent list,
// deduplicating and keeping at most ten entries.
func (c *Config) RememberFolder(folder string) {
	if folder == "" {
		return
	}
	recent := []string{folder}
	for _, f := range c.RecentFolders {
		if f == folder {
			continue
		}
		recent = append(recent, f)
		if len(recent) == maxRecentFolders {
			break
		}
	}
	c.RecentFolders = recent
}

// ScanScope converts the configuration into the scanner's scope.
func (c *Config) ScanScope() catalog.ScanScope {
	return catalog.ScanScope{
		Root:       c.Folder,
		Recursive:  c.IncludeSubfolders,
		DaysBack:   c.DaysBack,
		NamePrefix: c.NamePrefix,
	}
}

// CriteriaSet converts the configuration into the grouper's criteria.
func (c *Config) CriteriaSet() grouper.CriteriaSet {
	return grouper.CriteriaSet{
		Hash:         c.Criteria.Hash,
		Size:         c.Criteria.Size,
		Name:         c.Criteria.Name,
		ModTime:      c.Criteria.ModTime,
		MIME:         c.Criteria.MIME,
		HashCapBytes: c.HashCap.Bytes(),
	}
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "dedupe")
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := GetDefault()
		if err := Save(defaultConfig, configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
