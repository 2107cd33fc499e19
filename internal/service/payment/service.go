package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/payments"
	cartrepo "storefront/internal/repository/cart"
)

// Charge currencies per gateway. The card gateway settles in USD, the
// redirect gateway is a BDT-market processor.
const (
	cardCurrency     = "usd"
	redirectCurrency = "BDT"
)

// CardGateway is the synchronous card charging surface.
type CardGateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	AttachSource(ctx context.Context, customerID, token string) error
	ChargeBySource(ctx context.Context, amountCents int64, currency, source string) (*payments.Charge, error)
	ChargeByCustomer(ctx context.Context, amountCents int64, currency, customerID string) (*payments.Charge, error)
	ListSources(ctx context.Context, customerID string) ([]string, error)
}

// RedirectGateway creates hosted-page sessions whose outcome arrives later by
// IPN callback.
type RedirectGateway interface {
	CreateSession(ctx context.Context, req payments.SessionRequest) (*payments.RedirectSession, error)
}

type cartRepo interface {
	GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	Finalize(ctx context.Context, cartID string, in cartrepo.FinalizeInput) (*domain.Cart, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, p domain.Profile) error
}

type addressRepo interface {
	GetByID(ctx context.Context, userID, id string) (*domain.Address, error)
}

type Service struct {
	carts         cartRepo
	users         userRepo
	addrs         addressRepo
	card          CardGateway
	redirect      RedirectGateway
	floorAtZero   bool
	publicBaseURL string
	logger        *log.Logger
}

func New(carts cartRepo, users userRepo, addrs addressRepo, card CardGateway, redirect RedirectGateway, floorAtZero bool, publicBaseURL string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		carts:         carts,
		users:         users,
		addrs:         addrs,
		card:          card,
		redirect:      redirect,
		floorAtZero:   floorAtZero,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// CardPaymentInput selects the charge mode: a one-time token, a token to save
// for later, or the customer's previously saved default card.
type CardPaymentInput struct {
	Token      string `json:"token"`
	Save       bool   `json:"save"`
	UseDefault bool   `json:"useDefault"`
}

// PayWithCard charges the open cart synchronously and finalizes it on
// success. Charge first, finalize second; a crash between the two leaves a
// charged-but-open cart for the reconciliation path, never a double charge.
func (s *Service) PayWithCard(ctx context.Context, userID string, in CardPaymentInput) (*domain.Cart, error) {
	cart, err := s.carts.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Finalization preconditions, checked before any money moves. A cart
	// that cannot finalize must never be charged.
	if len(cart.Lines) == 0 || cart.BillingAddressID == nil {
		return nil, domain.ErrCartNotReady
	}
	amount := cart.TotalCents(s.floorAtZero)

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ch *payments.Charge
	switch {
	case in.UseDefault:
		if u.Profile == nil || u.Profile.StripeCustomerID == "" {
			return nil, &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: "no saved card on file"}
		}
		ch, err = s.card.ChargeByCustomer(ctx, amount, cardCurrency, u.Profile.StripeCustomerID)
	case in.Save:
		custID, serr := s.ensureCustomer(ctx, u, in.Token)
		if serr != nil {
			return nil, serr
		}
		ch, err = s.card.ChargeByCustomer(ctx, amount, cardCurrency, custID)
	default:
		if strings.TrimSpace(in.Token) == "" {
			return nil, &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: "missing card token"}
		}
		ch, err = s.card.ChargeBySource(ctx, amount, cardCurrency, in.Token)
	}
	if err != nil {
		return nil, err
	}

	final, err := s.carts.Finalize(ctx, cart.ID, cartrepo.FinalizeInput{
		UserID:      userID,
		AmountCents: ch.AmountCents,
		Provider:    domain.ProviderStripe,
		ChargeID:    ch.ID,
	})
	if err != nil {
		// The money moved but the order did not close. Log enough to settle
		// by hand and surface an unknown outcome to the caller.
		s.logger.Printf("charge %s succeeded but finalize failed for cart %s: %v", ch.ID, cart.ID, err)
		return nil, &domain.PaymentError{Code: domain.PaymentUnknown, Msg: "payment captured, order pending reconciliation", Err: err}
	}
	return final, nil
}

// ensureCustomer returns the user's gateway customer id, creating it and
// attaching the token as its card when the profile has none yet.
func (s *Service) ensureCustomer(ctx context.Context, u *domain.User, token string) (string, error) {
	if u.Profile != nil && u.Profile.StripeCustomerID != "" {
		if strings.TrimSpace(token) != "" {
			if err := s.card.AttachSource(ctx, u.Profile.StripeCustomerID, token); err != nil {
				return "", err
			}
		}
		return u.Profile.StripeCustomerID, nil
	}
	if strings.TrimSpace(token) == "" {
		return "", &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: "missing card token"}
	}
	custID, err := s.card.CreateCustomer(ctx, u.Email, u.Name)
	if err != nil {
		return "", err
	}
	if err := s.card.AttachSource(ctx, custID, token); err != nil {
		return "", err
	}
	p := domain.Profile{UserID: u.ID, StripeCustomerID: custID, OneClickPurchases: true}
	if err := s.users.UpdateProfile(ctx, p); err != nil {
		return "", err
	}
	return custID, nil
}

// SavedCards lists the stored card source ids backing one-click purchases.
// Users without a gateway customer or with the shortcut disabled get none.
func (s *Service) SavedCards(ctx context.Context, userID string) ([]string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Profile == nil || u.Profile.StripeCustomerID == "" || !u.Profile.OneClickPurchases {
		return nil, nil
	}
	return s.card.ListSources(ctx, u.Profile.StripeCustomerID)
}

// StartRedirect creates a hosted-page session for the open cart and returns
// the URL to send the customer to. Nothing is finalized here.
func (s *Service) StartRedirect(ctx context.Context, userID string) (*payments.RedirectSession, error) {
	cart, err := s.carts.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.ShippingAddressID == nil || cart.BillingAddressID == nil {
		return nil, domain.ErrCartNotReady
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	ship, err := s.addrs.GetByID(ctx, userID, *cart.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	var numItems int
	names := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		numItems += l.Quantity
		names = append(names, l.ItemName)
	}

	req := payments.SessionRequest{
		CartID:        cart.ID,
		AmountCents:   cart.TotalCents(s.floorAtZero),
		Currency:      redirectCurrency,
		NumItems:      numItems,
		ProductName:   strings.Join(names, ", "),
		URLs:          s.callbackURLs(),
		CustomerName:  u.Name,
		CustomerEmail: u.Email,
		AddressLine:   ship.Street,
		City:          ship.Apartment,
		Postcode:      ship.Zip,
		Country:       ship.Country,
		Phone:         "n/a",
	}
	return s.redirect.CreateSession(ctx, req)
}

func (s *Service) callbackURLs() payments.CallbackURLs {
	return payments.CallbackURLs{
		Success: s.publicBaseURL + "/payments/redirect/complete",
		Fail:    s.publicBaseURL + "/payments/redirect/complete",
		Cancel:  s.publicBaseURL + "/payments/redirect/complete",
		IPN:     s.publicBaseURL + "/payments/redirect/notify",
	}
}

// HandleRedirectNotification processes one IPN callback. Non-VALID statuses
// and replays of already-finalized carts are acknowledged no-ops; the gateway
// retries on anything but success.
func (s *Service) HandleRedirectNotification(ctx context.Context, n payments.Notification) error {
	if !strings.EqualFold(n.Status, payments.NotificationValid) {
		s.logger.Printf("ipn for cart %s reported status %q, ignoring", n.CartID, n.Status)
		return nil
	}

	cart, err := s.carts.GetByID(ctx, n.CartID)
	if err != nil {
		return fmt.Errorf("ipn cart lookup %s: %w", n.CartID, err)
	}
	// Record what the gateway settled, not a recomputation; the still-open
	// cart may have mutated during the redirect. Older gateway payloads omit
	// the amount, for those the cart total is the best available figure.
	amount := n.AmountCents
	if amount <= 0 {
		amount = cart.TotalCents(s.floorAtZero)
	}

	_, err = s.carts.Finalize(ctx, cart.ID, cartrepo.FinalizeInput{
		UserID:      cart.UserID,
		AmountCents: amount,
		Provider:    domain.ProviderSSLCommerz,
		ChargeID:    n.TransactionID,
	})
	if errors.Is(err, domain.ErrAlreadyFinalized) {
		s.logger.Printf("ipn replay for cart %s, already finalized", cart.ID)
		return nil
	}
	return err
}

// StartPayPal is routed but not implemented; the method was never wired to a
// processor. Callers get a stable invalid_request error.
func (s *Service) StartPayPal(ctx context.Context, userID string) error {
	return &domain.PaymentError{Code: domain.PaymentInvalidRequest, Msg: "paypal payments are not supported"}
}
