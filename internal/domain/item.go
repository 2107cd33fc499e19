package domain

import "time"

// ItemLabel matches the badge shown next to an item on listing pages.
type ItemLabel string

const (
	LabelPrimary   ItemLabel = "primary"
	LabelSecondary ItemLabel = "secondary"
	LabelDanger    ItemLabel = "danger"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a catalog product. Open carts always price against the live item;
// the unit price is only snapshotted onto cart lines at finalization.
type Item struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CategoryID         string    `json:"-"`
	CategoryName       string    `json:"category,omitempty"`
	PriceCents         int64     `json:"priceCents"`
	DiscountPriceCents *int64    `json:"discountPriceCents,omitempty"`
	Label              ItemLabel `json:"label,omitempty"`
	Slug               string    `json:"slug"`
	Description        string    `json:"description,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// FinalPriceCents is the discount price when present, the list price otherwise.
func (i Item) FinalPriceCents() int64 {
	if i.DiscountPriceCents != nil {
		return *i.DiscountPriceCents
	}
	return i.PriceCents
}
