// Package config provides configuration loading and structs for contract-finder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AlosedAG/contract-finder/internal/blocklist"
	"github.com/AlosedAG/contract-finder/internal/content"
	"github.com/AlosedAG/contract-finder/internal/fetch"
	"github.com/AlosedAG/contract-finder/internal/inbox"
	"github.com/AlosedAG/contract-finder/internal/pipeline"
	"github.com/AlosedAG/contract-finder/internal/ranking"
	"github.com/AlosedAG/contract-finder/internal/websearch"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                  `yaml:"debug"`
	Server    ServerConfig          `yaml:"server"`
	Storage   StorageConfig         `yaml:"storage"`
	Search    websearch.Config      `yaml:"search"`
	Fetch     fetch.Config          `yaml:"fetch"`
	Extract   ExtractConfig         `yaml:"extract"`
	Pipeline  pipeline.Config       `yaml:"pipeline"`
	Ranking   ranking.RankingConfig `yaml:"ranking"`
	Analyzer  content.Options       `yaml:"analyzer"`
	Geo       GeoConfig             `yaml:"geo"`
	Blocklist BlocklistConfig       `yaml:"blocklist"`
	Inbox     inbox.Config          `yaml:"inbox"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // default: 60s
	RunTimeout     time.Duration `yaml:"run_timeout"`     // default: 15m
}

// StorageConfig holds paths for the run database and the evidence index.
type StorageConfig struct {
	DatabasePath      string `yaml:"database_path"`
	EvidenceIndexPath string `yaml:"evidence_index_path"`
}

// ExtractConfig holds text extraction settings.
type ExtractConfig struct {
	MaxPages int `yaml:"max_pages"` // default: 15
}

// GeoConfig points at an optional gazetteer extension file.
type GeoConfig struct {
	GazetteerPath string `yaml:"gazetteer_path"`
}

// BlocklistConfig extends the built-in domain blocklist.
type BlocklistConfig struct {
	Extra           []blocklist.Entry `yaml:"extra"`
	HostedPlatforms []string          `yaml:"hosted_platforms"`
}

// Classifier builds the domain classifier from the built-in table plus extras.
func (b BlocklistConfig) Classifier() *blocklist.Classifier {
	entries := append(blocklist.DefaultEntries(), b.Extra...)
	var opts []blocklist.Option
	if len(b.HostedPlatforms) > 0 {
		opts = append(opts, blocklist.WithHostedPlatforms(b.HostedPlatforms...))
	}
	return blocklist.New(entries, opts...)
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.EvidenceIndexPath = expandPath(cfg.Storage.EvidenceIndexPath, configDir)
	if cfg.Search.StaticPath != "" {
		cfg.Search.StaticPath = expandPath(cfg.Search.StaticPath, configDir)
	}
	if cfg.Geo.GazetteerPath != "" {
		cfg.Geo.GazetteerPath = expandPath(cfg.Geo.GazetteerPath, configDir)
	}
	for i := range cfg.Inbox.Directories {
		cfg.Inbox.Directories[i] = expandPath(cfg.Inbox.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
