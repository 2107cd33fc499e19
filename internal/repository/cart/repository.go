package cart

import (
	"context"

	"storefront/internal/domain"
)

// FinalizeInput carries the successful charge to record while finalizing.
type FinalizeInput struct {
	UserID      string
	AmountCents int64
	Provider    domain.PaymentProvider
	ChargeID    string
}

type Repository interface {
	// GetOpenByUser loads the user's open cart with its lines, live item
	// prices and coupon. Returns domain.ErrNoOpenCart when there is none.
	GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetByReference(ctx context.Context, refCode string) (*domain.Cart, error)
	ListFinalizedByUser(ctx context.Context, userID string) ([]domain.Cart, error)

	// AddItem gets or creates the open cart and its line for (user, item) and
	// bumps the quantity. Atomic via the partial unique indexes, never
	// read-then-write.
	AddItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error)
	DecrementItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error)
	RemoveItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error)

	SetAddress(ctx context.Context, cartID string, kind domain.AddressKind, addressID string) error
	SetCoupon(ctx context.Context, cartID, couponID string) error

	// Finalize performs the exactly-once open -> finalized transition in one
	// transaction: payment row, reference code, cart flags, line snapshots.
	// Returns domain.ErrAlreadyFinalized when the cart is no longer open and
	// domain.ErrCartNotReady when preconditions fail.
	Finalize(ctx context.Context, cartID string, in FinalizeInput) (*domain.Cart, error)

	SetBeingDelivered(ctx context.Context, refCode string) error
	SetReceived(ctx context.Context, refCode string) error
}
