package auth

import (
	"context"
	"fmt"
	"time"

	"car-listing/internal/auth/adapter/audit"
	authhttp "car-listing/internal/auth/adapter/http"
	"car-listing/internal/auth/adapter/persistence/mongodb"
	"car-listing/internal/auth/adapter/security"
	"car-listing/internal/auth/config"
	"car-listing/internal/auth/domain/repository"
	"car-listing/internal/auth/usecase"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// Credential endpoints allow this many attempts per client per window.
const (
	loginRateLimit  = 20
	loginRateWindow = time.Minute
)

// AuthModule represents the complete authentication module
type AuthModule struct {
	repository repository.AuthRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	middleware *authhttp.AuthMiddleware
	config     *config.Config
	stopAudit  eventbus.Unsubscribe
}

// NewAuthModule creates a new authentication module instance
func NewAuthModule(ctx context.Context, db *mongo.Database, cfg *config.Config, bus eventbus.EventBusInterface, log logger.Logger) (*AuthModule, error) {
	authRepo, err := mongodb.NewMongoAuthRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth repository: %w", err)
	}
	return NewAuthModuleWithRepository(authRepo, cfg, bus, log)
}

// NewAuthModuleWithRepository wires the module around an existing repository
func NewAuthModuleWithRepository(repo repository.AuthRepository, cfg *config.Config, bus eventbus.EventBusInterface, log logger.Logger) (*AuthModule, error) {
	if log == nil {
		log = logger.Default()
	}

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(repo, tokenSvc, cfg, bus, log)

	stopAudit := func() {}
	if bus != nil {
		stopAudit = audit.NewAuditLog(log).Subscribe(bus)
	}

	return &AuthModule{
		repository: repo,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		handler:    authhttp.NewAuthHTTPHandler(authUsecase, cfg, log),
		middleware: authhttp.NewAuthMiddleware(authUsecase, cfg.CookieName, log),
		config:     cfg,
		stopAudit:  stopAudit,
	}, nil
}

// RegisterRoutes mounts /auth under router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	group := router.Group("/auth")
	am.handler.SetupAuthRoutesWithMiddleware(group, am.middleware, am.middleware.RateLimiter(loginRateLimit, loginRateWindow))
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetTokenService returns the token issuer
func (am *AuthModule) GetTokenService() repository.TokenService {
	return am.tokenSvc
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return am.middleware
}

// Protect is the auth gate other modules put in front of their routes
func (am *AuthModule) Protect() fiber.Handler {
	return am.middleware.Protect()
}

// Stop detaches the audit log from the event bus
func (am *AuthModule) Stop() error {
	am.stopAudit()
	return nil
}
