package refund

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Create records the refund request and sets the cart's refund_requested
	// flag in one transaction. Fails with domain.ErrUnknownOrder,
	// domain.ErrRefundAlreadyGranted or domain.ErrRefundAlreadyRequested.
	Create(ctx context.Context, refCode, reason, email string) (*domain.RefundRequest, error)

	// Grant flips the request to granted and sets the cart's refund_granted
	// flag. It does not reverse the payment.
	Grant(ctx context.Context, refCode string) error

	GetByReference(ctx context.Context, refCode string) (*domain.RefundRequest, error)
}
