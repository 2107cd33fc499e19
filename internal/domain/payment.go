package domain

import "time"

// PaymentProvider identifies which gateway captured the charge.
type PaymentProvider string

const (
	ProviderStripe     PaymentProvider = "stripe"
	ProviderSSLCommerz PaymentProvider = "sslcommerz"
)

// Payment records one successful charge. It is created inside the
// finalization transaction and linked 1:1 to the cart it finalizes.
type Payment struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	AmountCents int64           `json:"amountCents"`
	Provider    PaymentProvider `json:"provider"`
	ChargeID    string          `json:"chargeId"`
	CreatedAt   time.Time       `json:"createdAt"`
}
