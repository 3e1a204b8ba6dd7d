package http

import (
	"strings"
	"time"

	"car-listing/internal/auth/domain/model"
	"car-listing/internal/auth/usecase"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/httputil"
	"car-listing/internal/shared/logger"
	"car-listing/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Keys under which Protect stores the caller in fiber locals.
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalUser      = "user"
	localRequestID = "requestid"
)

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase    usecase.AuthUsecaseInterface
	cookieName string
	log        logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, cookieName string, log logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.Default()
	}
	return &AuthMiddleware{
		usecase:    uc,
		cookieName: cookieName,
		log:        log.WithComponent("auth-gate"),
	}
}

// CORS allows the configured client origins to send credentials
func (m *AuthMiddleware) CORS(allowOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	})
}

// SecurityHeaders adds security headers
func (m *AuthMiddleware) SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter throttles credential endpoints per client address. The
// address is c.IP(), which only honours a forwarding header when the app's
// ProxyHeader and TrustedProxies say the peer may set it.
func (m *AuthMiddleware) RateLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return httputil.Fail(c, nil, fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later"))
		},
	})
}

// RequestID assigns every request an id, echoed in X-Request-ID
func (m *AuthMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: localRequestID,
	})
}

// RequestContext copies the request id into the request's context.Context so
// loggers further down can pick it up. Must run after RequestID.
func (m *AuthMiddleware) RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(localRequestID).(string); ok && id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Protect rejects requests without a valid token for an existing user.
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := m.extractToken(c)
		if token == "" {
			return httputil.Fail(c, m.log, apperrors.NewAuthenticationError("Please login to access this resource"))
		}

		user, err := m.usecase.GetUserFromToken(c.UserContext(), token)
		if err != nil {
			if apperrors.HTTPStatus(err) >= fiber.StatusInternalServerError {
				return httputil.Fail(c, m.log, err)
			}
			m.log.WithContext(c.UserContext()).Debugf("rejected token: %v", err)
			return httputil.Fail(c, m.log, apperrors.NewAuthenticationError("Please login to access this resource"))
		}

		ctx := utils.WithUserID(c.UserContext(), user.ID)
		ctx = utils.WithUserEmail(ctx, user.Email)
		c.SetUserContext(ctx)

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUserEmail, user.Email)
		c.Locals(LocalUser, user)
		return c.Next()
	}
}

// extractToken reads the bearer header first and falls back to the cookie
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token
		}
	}
	return c.Cookies(m.cookieName)
}

// GetUserID returns the id Protect stored for this request
func GetUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals(LocalUserID).(string)
	return userID, ok && userID != ""
}

// GetUser returns the user Protect loaded for this request
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(LocalUser).(*model.User)
	return user, ok && user != nil
}
