package domain

// Coupon is a flat-amount discount looked up by code.
type Coupon struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	AmountCents int64  `json:"amountCents"`
}
