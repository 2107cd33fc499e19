package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNoOpenCart indicates the user has no open cart.
	ErrNoOpenCart = errors.New("no open cart")
	// ErrInvalidCoupon indicates the coupon code does not exist.
	ErrInvalidCoupon = errors.New("invalid coupon")
	// ErrNoDefaultAddress indicates use-default was requested but no default
	// address of that kind exists for the user.
	ErrNoDefaultAddress = errors.New("no default address")
	// ErrCartNotReady indicates finalization preconditions were not met.
	// This is a server-side consistency failure, not a user error.
	ErrCartNotReady = errors.New("cart not ready for finalization")
	// ErrAlreadyFinalized indicates the cart was already finalized. Webhook
	// replays map this to a no-op.
	ErrAlreadyFinalized = errors.New("cart already finalized")
	// ErrUnknownOrder indicates no finalized cart carries the reference code.
	ErrUnknownOrder = errors.New("unknown order")
	// ErrRefundAlreadyRequested indicates a refund request already exists for
	// the reference code.
	ErrRefundAlreadyRequested = errors.New("refund already requested")
	// ErrRefundAlreadyGranted indicates the order's refund was already granted.
	ErrRefundAlreadyGranted = errors.New("refund already granted")
	// ErrUnauthenticated indicates no principal could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// FieldErrors collects per-field validation failures for form-style input.
// It is returned before any storage interaction happens.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PaymentErrorCode classifies gateway failures into user-facing retry guidance.
type PaymentErrorCode string

const (
	PaymentDeclined       PaymentErrorCode = "declined"
	PaymentRateLimited    PaymentErrorCode = "rate_limited"
	PaymentInvalidRequest PaymentErrorCode = "invalid_request"
	PaymentAuthFailed     PaymentErrorCode = "auth_failed"
	PaymentNetworkFailure PaymentErrorCode = "network_failure"
	PaymentUnknown        PaymentErrorCode = "unknown"
)

// PaymentError wraps a gateway failure with its classification. The cart is
// left open and unmodified whenever one of these is returned.
type PaymentError struct {
	Code PaymentErrorCode
	Msg  string
	Err  error
}

func (e *PaymentError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("payment %s: %s", e.Code, e.Msg)
	}
	return "payment " + string(e.Code)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// Retryable reports whether the user may safely retry the charge. Unknown
// outcomes (timeouts, unclassified gateway failures) are not safe to retry
// blindly because the charge may have gone through.
func (e *PaymentError) Retryable() bool {
	switch e.Code {
	case PaymentDeclined, PaymentRateLimited, PaymentInvalidRequest:
		return true
	}
	return false
}
