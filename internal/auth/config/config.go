package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the auth module.
type Config struct {
	// JWT Configuration
	JWTSecretKey string        `env:"JWT_SECRET_KEY,required"`
	JWTIssuer    string        `env:"JWT_ISSUER" envDefault:"car-listing"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// Cookie Configuration
	CookieName       string `env:"COOKIE_NAME" envDefault:"token"`
	CookieExpireDays int    `env:"COOKIE_EXPIRE_DAYS" envDefault:"7"`
	CookiePath       string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain     string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure     bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly   bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite   string `env:"COOKIE_SAME_SITE" envDefault:"Lax"`

	// Password hashing
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load auth configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values env.Parse cannot and normalizes CookieSameSite.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("jwt_secret_key is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.CookieExpireDays <= 0 {
		return errors.New("cookie_expire_days must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	switch strings.ToLower(c.CookieSameSite) {
	case "lax":
		c.CookieSameSite = "Lax"
	case "strict":
		c.CookieSameSite = "Strict"
	case "none":
		c.CookieSameSite = "None"
	default:
		return errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}
	return nil
}

// CookieMaxAge is the lifetime of the session cookie in seconds.
func (c *Config) CookieMaxAge() int {
	return int((time.Duration(c.CookieExpireDays) * 24 * time.Hour).Seconds())
}
