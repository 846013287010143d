package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DaemonConfig holds configuration for the stats daemon process.
type DaemonConfig struct {
	DatabaseURL string        `json:"database_url" yaml:"database_url"`
	Catalog     CatalogConfig `json:"catalog" yaml:"catalog"`
	Poll        PollConfig    `json:"poll" yaml:"poll"`
}

type CatalogConfig struct {
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
	RedirectURL  string `json:"redirect_url" yaml:"redirect_url"`
}

type PollConfig struct {
	IntervalSeconds int `json:"interval_seconds" yaml:"interval_seconds"`
	UserDelayMS     int `json:"user_delay_ms" yaml:"user_delay_ms"`
}

// Load fills cfg from a YAML or JSON file, chosen by extension.
func Load(path string, cfg *DaemonConfig) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("decode YAML config %s: %w", path, err)
		}
	default:
		// Anything else is treated as JSON.
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("decode JSON config %s: %w", path, err)
		}
	}
	return nil
}
