package config

import "time"

// Default install locations.
const (
	DefaultConfigPath        = "/usr/local/etc/contractfinder/config.yaml"
	DefaultDatabasePath      = "/usr/local/var/contractfinder/data/db/runs.db"
	DefaultEvidenceIndexPath = "/usr/local/var/contractfinder/data/indices/evidence"
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.RunTimeout == 0 {
		cfg.Server.RunTimeout = 15 * time.Minute
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = DefaultDatabasePath
	}
	if cfg.Storage.EvidenceIndexPath == "" {
		cfg.Storage.EvidenceIndexPath = DefaultEvidenceIndexPath
	}
	if cfg.Extract.MaxPages == 0 {
		cfg.Extract.MaxPages = 15
	}
	cfg.Search.ApplyDefaults()
	cfg.Fetch.ApplyDefaults()
	cfg.Pipeline.ApplyDefaults()
	cfg.Ranking.ApplyDefaults()
	cfg.Analyzer.ApplyDefaults()
	cfg.Inbox.ApplyDefaults()
}
