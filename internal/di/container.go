package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"car-listing/internal/auth"
	authconfig "car-listing/internal/auth/config"
	"car-listing/internal/cars"
	carsconfig "car-listing/internal/cars/config"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Component status values reported by HealthCheck.
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

// Container owns the process-wide connections and module instances
type Container struct {
	mu sync.RWMutex

	// Module instances
	AuthModule *auth.AuthModule
	CarsModule *cars.CarsModule

	// Connections
	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client

	EventBus *eventbus.EventBus
	Logger   logger.Logger
}

// NewContainer creates an empty container. log may be nil.
func NewContainer(log logger.Logger) *Container {
	if log == nil {
		log = logger.Default()
	}
	return &Container{
		EventBus: eventbus.NewEventBus(log.WithComponent("eventbus")),
		Logger:   log,
	}
}

// ConnectMongo connects and pings MongoDB.
func (c *Container) ConnectMongo(ctx context.Context, cfg *InfraConfig) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c.mu.Lock()
	c.MongoClient = client
	c.MongoDB = client.Database(cfg.DatabaseName)
	c.mu.Unlock()

	c.Logger.WithFields(map[string]interface{}{"database": cfg.DatabaseName}).Info("MongoDB connection established")
	return nil
}

// ConnectRedis connects to Redis when cfg names an address. Without one
// the container runs without Redis.
func (c *Container) ConnectRedis(ctx context.Context, cfg *InfraConfig) error {
	if !cfg.RedisEnabled() {
		c.Logger.Info("REDIS_ADDR not set, running without Redis")
		return nil
	}

	client := NewRedisClient(cfg)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis at %s: %w", cfg.RedisAddr, err)
	}

	c.mu.Lock()
	c.Redis = client
	c.mu.Unlock()

	c.Logger.WithFields(map[string]interface{}{"addr": cfg.RedisAddr}).Info("Redis connection established")
	return nil
}

// InitializeAuth initializes the authentication module
func (c *Container) InitializeAuth(ctx context.Context, cfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoDB == nil {
		return errors.New("MongoDB must be connected before the auth module")
	}

	authModule, err := auth.NewAuthModule(ctx, c.MongoDB, cfg, c.EventBus, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = authModule
	return nil
}

// InitializeCars initializes the car module. Auth must be initialized first
// because every car route sits behind its gate.
func (c *Container) InitializeCars(ctx context.Context, cfg *carsconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.AuthModule == nil {
		return errors.New("auth module must be initialized before the cars module")
	}
	if c.MongoDB == nil {
		return errors.New("MongoDB must be connected before the cars module")
	}

	carsModule, err := cars.NewCarsModule(ctx, c.MongoDB, c.Redis, cfg, c.EventBus, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create cars module: %w", err)
	}
	c.CarsModule = carsModule
	return nil
}

// GetAuthModule returns the auth module instance
func (c *Container) GetAuthModule() *auth.AuthModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AuthModule
}

// GetCarsModule returns the cars module instance
func (c *Container) GetCarsModule() *cars.CarsModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CarsModule
}

// HealthCheck pings every dependency and reports each one's status. The
// error is non-nil when any configured dependency is down.
func (c *Container) HealthCheck(ctx context.Context) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := map[string]string{
		"mongodb": StatusDisabled,
		"redis":   StatusDisabled,
		"storage": StatusDisabled,
	}
	var errs []error

	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			status[name] = StatusDown
			errs = append(errs, fmt.Errorf("%s health check failed: %w", name, err))
			return
		}
		status[name] = StatusUp
	}

	if c.MongoClient != nil {
		check("mongodb", func(ctx context.Context) error { return c.MongoClient.Ping(ctx, nil) })
	}
	if c.Redis != nil {
		check("redis", func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() })
	}
	if c.CarsModule != nil {
		check("storage", c.CarsModule.PingStore)
	}

	return status, errors.Join(errs...)
}

// Cleanup stops modules and closes connections in reverse order of
// initialization.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.CarsModule != nil {
		if err := c.CarsModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop cars module: %w", err))
		}
		c.CarsModule = nil
	}
	if c.AuthModule != nil {
		if err := c.AuthModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop auth module: %w", err))
		}
		c.AuthModule = nil
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		c.Redis = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongodb: %w", err))
		}
		c.MongoClient = nil
		c.MongoDB = nil
	}

	return errors.Join(errs...)
}

// Close gracefully shuts down all services with a 30 second timeout
func (c *Container) Close() error {
	c.Logger.Info("Closing container resources")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("cleanup errors occurred: %v", err)
		return err
	}
	c.Logger.Info("Container resources closed")
	return nil
}
