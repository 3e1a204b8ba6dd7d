package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"car-listing/internal/auth/config"
	"car-listing/internal/auth/domain/model"
	"car-listing/internal/auth/domain/repository"
	apperrors "car-listing/internal/shared/errors"
	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/logger"

	"golang.org/x/crypto/bcrypt"
)

// Client-facing messages.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailExists        = "Email already exists"
	msgLoginRequired      = "Please login to access this resource"
)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, string, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	Refresh(ctx context.Context, userID string) (*model.User, string, error)
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	GetUserFromToken(ctx context.Context, tokenString string) (*model.User, error)
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	repo     repository.AuthRepository
	tokenSvc repository.TokenService
	config   *config.Config
	events   eventbus.EventBusInterface
	log      logger.Logger

	// compare checks a password against a stored hash
	compare func(hash, password []byte) error

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthUsecase creates a new instance of AuthUsecase. events may be nil.
func NewAuthUsecase(
	repo repository.AuthRepository,
	tokenSvc repository.TokenService,
	cfg *config.Config,
	events eventbus.EventBusInterface,
	log logger.Logger,
) *AuthUsecase {
	if log == nil {
		log = logger.Default()
	}
	return &AuthUsecase{
		repo:     repo,
		tokenSvc: tokenSvc,
		config:   cfg,
		events:   events,
		log:      log.WithComponent("auth"),
		compare:  bcrypt.CompareHashAndPassword,
	}
}

// unknownUserHash is compared against when the email has no account, so a
// miss costs the same bcrypt work as a wrong password.
func (uc *AuthUsecase) unknownUserHash() []byte {
	uc.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("car-listing-unknown-user"), uc.config.BcryptCost)
		if err != nil {
			uc.log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("failed to generate placeholder password hash")
			return
		}
		uc.dummyHash = hash
	})
	return uc.dummyHash
}

func validateRegistration(req RegisterRequest) error {
	ve := apperrors.NewValidationErrors()

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		ve.Add("name", "Please enter your name", nil)
	case model.NameLength(name) > model.MaxNameLength:
		ve.Add("name", fmt.Sprintf("Name cannot exceed %d characters", model.MaxNameLength), nil)
	}

	email := model.NormalizeEmail(req.Email)
	switch {
	case email == "":
		ve.Add("email", "Please enter your email", nil)
	case !model.ValidEmail(email):
		ve.Add("email", "Please enter a valid email", nil)
	}

	switch {
	case req.Password == "":
		ve.Add("password", "Please enter your password", nil)
	case len([]rune(req.Password)) < model.MinPasswordLength:
		ve.Add("password", fmt.Sprintf("Password must be at least %d characters", model.MinPasswordLength), nil)
	case len(req.Password) > model.MaxPasswordBytes:
		ve.Add("password", fmt.Sprintf("Password cannot exceed %d bytes", model.MaxPasswordBytes), nil)
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// Register creates an account and signs the new user in
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, string, error) {
	if err := validateRegistration(req); err != nil {
		return nil, "", err
	}
	email := model.NormalizeEmail(req.Email)

	existing, err := uc.repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", apperrors.NewConflictError(msgEmailExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), uc.config.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := uc.repo.CreateUser(ctx, user); err != nil {
		// lost the race against a concurrent registration
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, "", apperrors.NewConflictError(msgEmailExists)
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	uc.publish(ctx, eventbus.EventTypeUserRegistered, user.ID)
	return user.Public(), token, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.User, string, error) {
	email := model.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", apperrors.NewValidationError("Please enter email & password")
	}

	user, err := uc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			_ = uc.compare(uc.unknownUserHash(), []byte(req.Password))
			return nil, "", apperrors.NewAuthenticationError(msgInvalidCredentials)
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := uc.compare([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", apperrors.NewAuthenticationError(msgInvalidCredentials)
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	uc.publish(ctx, eventbus.EventTypeUserAuthenticated, user.ID)
	return user.Public(), token, nil
}

// Me returns the public profile of userID
func (uc *AuthUsecase) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := uc.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, apperrors.NewAuthenticationError(msgLoginRequired)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Public(), nil
}

// Refresh mints a new token for an already authenticated user
func (uc *AuthUsecase) Refresh(ctx context.Context, userID string) (*model.User, string, error) {
	user, err := uc.Me(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// ValidateToken validates a JWT string
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, apperrors.NewAuthenticationError(msgLoginRequired).WithCause(apperrors.ErrInvalidToken)
	}
	return claims, nil
}

// GetUserFromToken validates a token and fetches the user it names
func (uc *AuthUsecase) GetUserFromToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := uc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return uc.Me(ctx, claims.UserID())
}

func (uc *AuthUsecase) publish(ctx context.Context, eventType, userID string) {
	if uc.events == nil {
		return
	}
	uc.events.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(eventType, userID, "auth"))
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
