package user

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create inserts the user and its profile row in the same transaction, so
	// a profile exists for every user from the moment it is visible.
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, p domain.Profile) error
}
