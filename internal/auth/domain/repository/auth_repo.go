package repository

import (
	"context"

	"car-listing/internal/auth/domain/model"
)

// AuthRepository defines the interface for credential storage
type AuthRepository interface {
	// CreateUser stores user and sets its ID. Returns model.ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByEmail returns model.ErrUserNotFound when no account matches.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
