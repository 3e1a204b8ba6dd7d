package di

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/redis/go-redis/v9"
)

// InfraConfig holds the connection settings shared by every module.
type InfraConfig struct {
	MongoURI     string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"car_listing"`

	// RedisAddr empty disables Redis.
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:""`
	RedisPassword   string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize   int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisMaxRetries int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	RedisTLS        bool          `env:"REDIS_TLS" envDefault:"false"`
	RedisIdleTime   time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
}

// LoadInfraConfig reads InfraConfig from the environment.
func LoadInfraConfig() (*InfraConfig, error) {
	cfg := &InfraConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load infrastructure configuration: %w", err)
	}
	return cfg, nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c *InfraConfig) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// NewRedisClient builds a client for cfg. It does not connect.
func NewRedisClient(cfg *InfraConfig) *redis.Client {
	options := &redis.Options{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		MaxRetries: cfg.RedisMaxRetries,
		PoolSize:   cfg.RedisPoolSize,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		ConnMaxIdleTime: cfg.RedisIdleTime,
	}
	if cfg.RedisTLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(options)
}
