package domain

import "time"

// MutationStatus reports the outcome of a cart line mutation. Expected
// "nothing to do" cases are statuses, not errors.
type MutationStatus string

const (
	StatusCreated         MutationStatus = "created"
	StatusQuantityUpdated MutationStatus = "quantity_updated"
	StatusRemoved         MutationStatus = "removed"
	StatusNotInCart       MutationStatus = "not_in_cart"
	StatusNoOpenCart      MutationStatus = "no_open_cart"
)

// CartLine is one (user, item) pairing with a quantity. At most one
// non-finalized line exists per pair; the partial unique index enforces it.
type CartLine struct {
	ID             string    `json:"id"`
	CartID         string    `json:"cartId"`
	UserID         string    `json:"-"`
	ItemID         string    `json:"itemId"`
	ItemName       string    `json:"itemName,omitempty"`
	ItemSlug       string    `json:"itemSlug,omitempty"`
	Quantity       int       `json:"quantity"`
	Finalized      bool      `json:"-"`
	UnitPriceCents *int64    `json:"unitPriceCents,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`

	// Live item prices, loaded alongside the line for total computation.
	ItemPriceCents         int64  `json:"-"`
	ItemDiscountPriceCents *int64 `json:"-"`
}

// FinalPriceCents prices the line: snapshot when finalized, live item price
// (discount price preferred) while the cart is open.
func (l CartLine) FinalPriceCents() int64 {
	if l.Finalized && l.UnitPriceCents != nil {
		return *l.UnitPriceCents * int64(l.Quantity)
	}
	unit := l.ItemPriceCents
	if l.ItemDiscountPriceCents != nil {
		unit = *l.ItemDiscountPriceCents
	}
	return unit * int64(l.Quantity)
}

// Cart is the aggregate root. It is mutable while open; after finalization
// only the fulfilment and refund flags may change.
type Cart struct {
	ID                string     `json:"id"`
	UserID            string     `json:"-"`
	Lines             []CartLine `json:"lines,omitempty"`
	BillingAddressID  *string    `json:"billingAddressId,omitempty"`
	ShippingAddressID *string    `json:"shippingAddressId,omitempty"`
	PaymentID         *string    `json:"paymentId,omitempty"`
	Coupon            *Coupon    `json:"coupon,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	FinalizedAt       *time.Time `json:"finalizedAt,omitempty"`
	Finalized         bool       `json:"finalized"`
	ReferenceCode     *string    `json:"referenceCode,omitempty"`
	BeingDelivered    bool       `json:"beingDelivered"`
	Received          bool       `json:"received"`
	RefundRequested   bool       `json:"refundRequested"`
	RefundGranted     bool       `json:"refundGranted"`
}

// TotalCents sums the per-line final prices and subtracts the coupon amount.
// With floorAtZero the total never goes negative; without it the raw value is
// returned, matching the historical behavior.
func (c Cart) TotalCents(floorAtZero bool) int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.FinalPriceCents()
	}
	if c.Coupon != nil {
		total -= c.Coupon.AmountCents
	}
	if floorAtZero && total < 0 {
		return 0
	}
	return total
}
