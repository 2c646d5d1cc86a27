package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds optional defaults read from a yaml config file, so frequent
// flags don't have to be repeated on every invocation.
//
// Example ~/.config/ledgerbook/config.yaml:
//
//	ledger: ~/finance/main.ledger
//	account: Assets
//	port: 8179
type Config struct {
	// Ledger is the default ledger file used when no file argument is given.
	Ledger string `yaml:"ledger"`
	// Account is the default account prefix filter for reports.
	Account string `yaml:"account"`
	// Port is the default web server port.
	Port int `yaml:"port"`
}

// LoadConfig reads a yaml config file. A missing file at the default path is
// not an error; a missing file at an explicit path is.
func LoadConfig(path string, explicit bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if config.Ledger != "" {
		config.Ledger = expandHome(config.Ledger)
	}

	return &config, nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ledgerbook", "config.yaml")
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
