package address

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create inserts the address. With MakeDefault set, any prior default for
	// (user, kind) is cleared inside the same transaction.
	Create(ctx context.Context, addr domain.Address, makeDefault bool) (*domain.Address, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Address, error)
	GetDefault(ctx context.Context, userID string, kind domain.AddressKind) (*domain.Address, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
}
