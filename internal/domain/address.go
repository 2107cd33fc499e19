package domain

import "time"

// AddressKind distinguishes billing from shipping addresses.
type AddressKind string

const (
	AddressBilling  AddressKind = "billing"
	AddressShipping AddressKind = "shipping"
)

// Address is owned by the user, not the cart; finalized carts keep referring
// to the row they were checked out with.
type Address struct {
	ID        string      `json:"id"`
	UserID    string      `json:"-"`
	Street    string      `json:"street"`
	Apartment string      `json:"apartment"`
	Country   string      `json:"country"`
	Zip       string      `json:"zip"`
	Kind      AddressKind `json:"kind"`
	IsDefault bool        `json:"isDefault"`
	CreatedAt time.Time   `json:"createdAt"`
}
