package domain

import "time"

// RefundStatus tracks the requested -> granted state machine.
type RefundStatus string

const (
	RefundRequested RefundStatus = "requested"
	RefundGranted   RefundStatus = "granted"
)

// RefundRequest is keyed by the finalized cart's reference code; at most one
// request may exist per code.
type RefundRequest struct {
	ID            string       `json:"id"`
	CartID        string       `json:"-"`
	ReferenceCode string       `json:"referenceCode"`
	Reason        string       `json:"reason"`
	Email         string       `json:"email"`
	Status        RefundStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
}
