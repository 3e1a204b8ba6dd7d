package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds runtime settings for the carctl terminal client.
type Config struct {
	// ServerURL is the API root, including the API prefix.
	ServerURL string `env:"CARCTL_SERVER" envDefault:"http://localhost:5000/api"`
	// SessionFile persists the token between runs. "-" disables persistence;
	// empty uses ~/.carctl/session.
	SessionFile string        `env:"CARCTL_SESSION_FILE" envDefault:""`
	Timeout     time.Duration `env:"CARCTL_TIMEOUT" envDefault:"15s"`
}

// LoadConfig reads the client configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load client configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the server URL and timeout and trims a trailing slash.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("carctl_server must be an http(s) URL, got %q", c.ServerURL)
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.Timeout <= 0 {
		return errors.New("carctl_timeout must be positive")
	}
	return nil
}

// SessionPath resolves where the session token is kept. Empty means the
// session lives in memory only.
func (c *Config) SessionPath() string {
	switch c.SessionFile {
	case "-":
		return ""
	case "":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, ".carctl", "session")
	default:
		return c.SessionFile
	}
}
