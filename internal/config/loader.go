package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"hivetrace/internal/types"
)

// LoadConfig reads the configuration from the given path.
func LoadConfig(path string) (*types.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg types.Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	validateConfig(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no config file is given:
// the standard honeypot log layout under ./logs, geo enrichment on.
func Default() *types.Config {
	cfg := &types.Config{}
	cfg.Geo.Enabled = true
	validateConfig(cfg)
	return cfg
}

// validateConfig applies defaults and hard rules.
func validateConfig(cfg *types.Config) {
	if len(cfg.Sources) == 0 {
		logDir := "logs"
		cfg.Sources = map[string]types.SourcePaths{
			"ssh": {
				AuthLog:     filepath.Join(logDir, "ssh", "auth.log"),
				CommandsLog: filepath.Join(logDir, "ssh", "commands.log"),
			},
			"api": {
				RequestLog: filepath.Join(logDir, "api", "logs.txt"),
			},
			"mysql": {
				GeneralLog: filepath.Join(logDir, "mysql", "general.log"),
				ErrorLog:   filepath.Join(logDir, "mysql", "error.log"),
			},
		}
	}

	if cfg.Geo.Timeout <= 0 {
		cfg.Geo.Timeout = 2 * time.Second
	}
	if cfg.Geo.Workers <= 0 {
		cfg.Geo.Workers = 4
	}

	if cfg.Dashboard.Port == "" {
		cfg.Dashboard.Port = ":8080"
	}
	if cfg.Metrics.Port == "" {
		cfg.Metrics.Port = ":9090"
	}
}
