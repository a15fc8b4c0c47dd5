// Package config holds the client's persisted configuration. It is a plain
// JSON file; flags and environment variables layer on top of it at the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wheelway/wheelway/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".wheelway", "config.json")
	DefaultDataDir    = filepath.Join(home, "Wheelway")
	DefaultServerURL  = "https://api.wheelway.org"

	regexEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

type Config struct {
	DataDir   string `json:"data_dir"`
	Email     string `json:"email"`
	ServerURL string `json:"server_url"`
	Path      string `json:"-"`
}

// Validate normalizes the config in place and reports the first problem it
// finds. An empty server url is valid and puts the client in offline-only
// mode: mutations queue durably but never leave the device.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}
	dataDir, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("data dir %q: %w", c.DataDir, err)
	}
	c.DataDir = dataDir

	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if !regexEmail.MatchString(c.Email) {
		return fmt.Errorf("invalid email %q", c.Email)
	}

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid server url %q", c.ServerURL)
		}
	}

	if c.Path != "" {
		path, err := utils.ResolvePath(c.Path)
		if err != nil {
			return fmt.Errorf("config path %q: %w", c.Path, err)
		}
		c.Path = path
	}

	return nil
}

// Save writes the config to its Path
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("config has no path")
	}
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path, data, 0o644)
}

// LoadFromFile reads and validates a config
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
