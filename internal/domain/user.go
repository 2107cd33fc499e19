package domain

import "time"

// User is the authenticated principal for every cart, checkout, payment and
// refund operation.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	Profile      *Profile  `json:"profile,omitempty"`
}

// Profile holds per-user payment preferences. A profile row exists for every
// user; it is created in the same transaction as the user itself.
type Profile struct {
	UserID            string `json:"-"`
	StripeCustomerID  string `json:"-"`
	OneClickPurchases bool   `json:"oneClickPurchases"`
}
