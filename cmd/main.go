package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authconfig "car-listing/internal/auth/config"
	carsconfig "car-listing/internal/cars/config"
	"car-listing/internal/di"
	"car-listing/internal/shared/httputil"
	"car-listing/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port         string `env:"SERVER_PORT" envDefault:"5000"`
	APIPrefix    string `env:"API_PREFIX" envDefault:"/api"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:3000"`
	BodyLimitMB  int    `env:"BODY_LIMIT_MB" envDefault:"64"`

	// ProxyHeader carries the client address when running behind a proxy,
	// and is only read from peers listed in TrustedProxies.
	ProxyHeader    string   `env:"PROXY_HEADER"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}
	infraCfg, err := di.LoadInfraConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	carsCfg, err := carsconfig.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	appLogger := logger.NewLogger()
	logger.SetDefault(appLogger)
	appLogger.Info("Application configuration loaded")

	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := container.ConnectMongo(ctx, infraCfg); err != nil {
		cancel()
		appLogger.Fatalf("%v", err)
	}
	if err := container.ConnectRedis(ctx, infraCfg); err != nil {
		cancel()
		appLogger.Fatalf("%v", err)
	}
	if err := container.InitializeAuth(ctx, authCfg); err != nil {
		cancel()
		appLogger.Fatalf("Failed to initialize auth module: %v", err)
	}
	if err := container.InitializeCars(ctx, carsCfg); err != nil {
		cancel()
		appLogger.Fatalf("Failed to initialize cars module: %v", err)
	}
	cancel()
	appLogger.Info("Modules initialized")

	authModule := container.GetAuthModule()
	carsModule := container.GetCarsModule()
	gate := authModule.GetMiddleware()

	app := fiber.New(fiber.Config{
		AppName:      "Car Listing API",
		BodyLimit:    serverCfg.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: httputil.ErrorHandler(appLogger.WithComponent("http")),

		ProxyHeader:             serverCfg.ProxyHeader,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          serverCfg.TrustedProxies,
	})

	app.Use(recover.New())
	app.Use(gate.RequestID())
	app.Use(gate.RequestContext())
	app.Use(gate.SecurityHeaders())
	app.Use(gate.CORS(serverCfg.ClientOrigin))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		components, err := container.HealthCheck(healthCtx)
		if err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"success":    false,
				"status":     "UNHEALTHY",
				"components": components,
				"timestamp":  time.Now().UTC(),
			})
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"status":     "HEALTHY",
			"components": components,
			"timestamp":  time.Now().UTC(),
		})
	})

	api := app.Group(serverCfg.APIPrefix)
	authModule.RegisterRoutes(api)
	carsModule.RegisterRoutes(api, authModule.Protect())

	carsModule.StartWorker(context.Background())

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server stopped: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
	// the worker must finish with Redis and the store before the container closes them
	if err := carsModule.Stop(); err != nil {
		appLogger.Errorf("Failed to stop cleanup worker: %v", err)
	}
	appLogger.Info("Cleanup worker stopped")
}
