package http

import (
	"time"

	"car-listing/internal/auth/config"
	"car-listing/internal/auth/domain/model"
	"car-listing/internal/auth/usecase"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/httputil"
	"car-listing/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	cfg     *config.Config
	log     logger.Logger
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, cfg *config.Config, log logger.Logger) *AuthHTTPHandler {
	if log == nil {
		log = logger.Default()
	}
	return &AuthHTTPHandler{
		usecase: uc,
		cfg:     cfg,
		log:     log.WithComponent("auth-http"),
	}
}

// SetupAuthRoutesWithMiddleware mounts the auth routes on router
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware, limit fiber.Handler) {
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("/register", limit, h.Register)
	router.Post("/login", limit, h.Login)
	router.Get("/logout", h.Logout)
	router.Post("/logout", h.Logout)

	router.Get("/me", middleware.Protect(), h.Me)
	router.Post("/refresh", middleware.Protect(), h.Refresh)
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, h.log, apperrors.NewValidationError("Invalid request body"))
	}

	user, token, err := h.usecase.Register(c.UserContext(), req)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return h.sendToken(c, fiber.StatusCreated, user, token)
}

// Login handles user login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.Fail(c, h.log, apperrors.NewValidationError("Invalid request body"))
	}

	user, token, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return h.sendToken(c, fiber.StatusOK, user, token)
}

// Logout clears the session cookie. Tokens are stateless and stay valid
// until they expire.
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	h.clearCookie(c)
	return httputil.Success(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}

// Me returns the authenticated user
func (h *AuthHTTPHandler) Me(c *fiber.Ctx) error {
	user, ok := GetUser(c)
	if !ok {
		return httputil.Fail(c, h.log, apperrors.ErrUnauthorized)
	}
	return httputil.Success(c, fiber.StatusOK, fiber.Map{"user": user})
}

// Refresh issues a fresh token for the authenticated user
func (h *AuthHTTPHandler) Refresh(c *fiber.Ctx) error {
	userID, ok := GetUserID(c)
	if !ok {
		return httputil.Fail(c, h.log, apperrors.ErrUnauthorized)
	}

	user, token, err := h.usecase.Refresh(c.UserContext(), userID)
	if err != nil {
		return httputil.Fail(c, h.log, err)
	}
	return h.sendToken(c, fiber.StatusOK, user, token)
}

func (h *AuthHTTPHandler) sendToken(c *fiber.Ctx, status int, user *model.User, token string) error {
	h.setCookie(c, token)
	return httputil.Success(c, status, fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	maxAge := h.cfg.CookieMaxAge()
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		MaxAge:   maxAge,
		Expires:  time.Now().Add(time.Duration(maxAge) * time.Second),
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: h.cfg.CookieHTTPOnly,
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		Secure:   h.cfg.CookieSecure,
		HTTPOnly: h.cfg.CookieHTTPOnly,
		SameSite: h.cfg.CookieSameSite,
	})
}
