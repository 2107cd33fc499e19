package payments

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/charge"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/paymentsource"
)

// StripeGateway charges cards synchronously through the Stripe API, by
// one-time source token or by stored customer id.
type StripeGateway struct {
	charges   *charge.Client
	customers *customer.Client
	sources   *paymentsource.Client
	logger    *log.Logger
}

// NewStripeGateway builds a gateway with its own backend so the network
// timeout is bounded; a timed-out charge has an unknown outcome and is
// classified as such, never silently retried.
func NewStripeGateway(apiKey string, timeout time.Duration, logger *log.Logger) (*StripeGateway, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("stripe: api key is required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	})
	return &StripeGateway{
		charges:   &charge.Client{B: backend, Key: apiKey},
		customers: &customer.Client{B: backend, Key: apiKey},
		sources:   &paymentsource.Client{B: backend, Key: apiKey},
		logger:    logger,
	}, nil
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
		Name:   stripe.String(name),
	}
	cust, err := g.customers.New(params)
	if err != nil {
		return "", classify(err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) AttachSource(ctx context.Context, customerID, token string) error {
	src, err := stripe.SourceParamsFor(token)
	if err != nil {
		return &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: "bad source token", Err: err}
	}
	params := &stripe.PaymentSourceParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(customerID),
		Source:   src,
	}
	if _, err := g.sources.New(params); err != nil {
		return classify(err)
	}
	return nil
}

func (g *StripeGateway) ChargeBySource(ctx context.Context, amountCents int64, currency, source string) (*Charge, error) {
	params := &stripe.ChargeParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	if err := params.SetSource(source); err != nil {
		return nil, &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: "bad source token", Err: err}
	}
	return g.doCharge(params)
}

func (g *StripeGateway) ChargeByCustomer(ctx context.Context, amountCents int64, currency, customerID string) (*Charge, error) {
	params := &stripe.ChargeParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		Customer: stripe.String(customerID),
	}
	return g.doCharge(params)
}

func (g *StripeGateway) doCharge(params *stripe.ChargeParams) (*Charge, error) {
	// One key per attempt. A retry after an ambiguous outcome must be a
	// deliberate new attempt, not a silent replay.
	params.IdempotencyKey = stripe.String(uuid.NewString())
	ch, err := g.charges.New(params)
	if err != nil {
		perr := classify(err)
		if perr.Code == domain.PaymentUnknown || perr.Code == domain.PaymentNetworkFailure {
			g.logger.Printf("stripe: charge outcome unknown, operator follow-up required: %v", err)
		}
		return nil, perr
	}
	return &Charge{ID: ch.ID, AmountCents: ch.Amount, Currency: string(ch.Currency)}, nil
}

// ListSources returns up to three stored card source ids for the customer.
func (g *StripeGateway) ListSources(ctx context.Context, customerID string) ([]string, error) {
	params := &stripe.PaymentSourceListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(3)

	var ids []string
	iter := g.sources.List(params)
	for iter.Next() {
		ids = append(ids, iter.PaymentSource().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

// classify maps a Stripe failure onto the payment error taxonomy. Anything
// ambiguous stays unknown so callers surface "do not retry blindly" instead of
// double charging.
func classify(err error) *domain.PaymentError {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		switch {
		case sErr.Type == stripe.ErrorTypeCard:
			return &domain.PaymentError{Code: domain.PaymentDeclined, Msg: sErr.Msg, Err: err}
		case sErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &domain.PaymentError{Code: domain.PaymentRateLimited, Msg: "rate limited", Err: err}
		case sErr.HTTPStatusCode == http.StatusUnauthorized:
			return &domain.PaymentError{Code: domain.PaymentAuthFailed, Msg: "gateway authentication failed", Err: err}
		case sErr.Type == stripe.ErrorTypeInvalidRequest:
			return &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: sErr.Msg, Err: err}
		}
		return &domain.PaymentError{Code: domain.PaymentUnknown, Msg: sErr.Msg, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.PaymentError{Code: domain.PaymentUnknown, Msg: "gateway timeout, outcome unknown", Err: err}
	}
	return &domain.PaymentError{Code: domain.PaymentNetworkFailure, Msg: "could not reach gateway", Err: err}
}
