package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Storage providers
const (
	ProviderMinio = "minio"
	ProviderS3    = "s3"
)

// Config holds all configuration for the cars module.
type Config struct {
	// Object storage
	StorageProvider  string `env:"STORAGE_PROVIDER" envDefault:"minio"`
	StorageEndpoint  string `env:"STORAGE_ENDPOINT" envDefault:"localhost:9000"`
	StorageAccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	StorageSecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	StorageBucket    string `env:"STORAGE_BUCKET" envDefault:"car-images"`
	StorageRegion    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	StorageUseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
	// StoragePublicURL prefixes image URLs. Empty derives it from the endpoint.
	StoragePublicURL string `env:"STORAGE_PUBLIC_URL" envDefault:""`

	// Uploads
	MaxImageBytes     int64 `env:"MAX_IMAGE_BYTES" envDefault:"5242880"`
	UploadConcurrency int   `env:"UPLOAD_CONCURRENCY" envDefault:"4"`

	// Access policy
	AccessRule string `env:"CAR_ACCESS_RULE" envDefault:"resource.owner == auth.uid"`

	// Orphan cleanup
	CleanupQueueKey    string        `env:"CLEANUP_QUEUE_KEY" envDefault:"cars:orphaned_images"`
	CleanupInterval    time.Duration `env:"CLEANUP_INTERVAL" envDefault:"30s"`
	CleanupBatch       int           `env:"CLEANUP_BATCH" envDefault:"20"`
	CleanupMaxAttempts int           `env:"CLEANUP_MAX_ATTEMPTS" envDefault:"5"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load cars configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and normalizes the provider name.
func (c *Config) Validate() error {
	c.StorageProvider = strings.ToLower(strings.TrimSpace(c.StorageProvider))
	switch c.StorageProvider {
	case ProviderMinio, ProviderS3:
	default:
		return fmt.Errorf("storage_provider must be %q or %q, got %q", ProviderMinio, ProviderS3, c.StorageProvider)
	}
	if c.StorageBucket == "" {
		return errors.New("storage_bucket is required")
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("max_image_bytes must be positive")
	}
	if c.UploadConcurrency <= 0 {
		return errors.New("upload_concurrency must be positive")
	}
	if strings.TrimSpace(c.AccessRule) == "" {
		return errors.New("car_access_rule is required")
	}
	if c.CleanupInterval <= 0 {
		return errors.New("cleanup_interval must be positive")
	}
	if c.CleanupBatch <= 0 {
		return errors.New("cleanup_batch must be positive")
	}
	if c.CleanupMaxAttempts <= 0 {
		return errors.New("cleanup_max_attempts must be positive")
	}
	return nil
}

// EndpointHost is the storage endpoint without a scheme, as minio-go expects it.
func (c *Config) EndpointHost() string {
	host := strings.TrimRight(c.StorageEndpoint, "/")
	host = strings.TrimPrefix(host, "https://")
	return strings.TrimPrefix(host, "http://")
}

// EndpointSecure reports whether the storage endpoint is reached over TLS.
func (c *Config) EndpointSecure() bool {
	if strings.HasPrefix(c.StorageEndpoint, "https://") {
		return true
	}
	if strings.HasPrefix(c.StorageEndpoint, "http://") {
		return false
	}
	return c.StorageUseSSL
}

// EndpointURL is the storage endpoint with a scheme.
func (c *Config) EndpointURL() string {
	scheme := "http"
	if c.EndpointSecure() {
		scheme = "https"
	}
	return scheme + "://" + c.EndpointHost()
}

// PublicBaseURL is the prefix placed before "<bucket>/<key>" in image URLs.
func (c *Config) PublicBaseURL() string {
	if c.StoragePublicURL != "" {
		return strings.TrimRight(c.StoragePublicURL, "/")
	}
	return c.EndpointURL()
}
