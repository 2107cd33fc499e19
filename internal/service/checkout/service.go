package checkout

import (
	"context"
	"strings"

	"storefront/internal/domain"
)

// Payment methods a submission may select.
const (
	MethodStripe     = "stripe"
	MethodPayPal     = "paypal"
	MethodSSLCommerz = "sslcommerz"
)

// Submission is the checkout form. Address fields are ignored for a kind when
// its UseDefault flag is set; SameBillingAddress reuses the resolved shipping
// address for billing.
type Submission struct {
	ShippingStreet     string `json:"shippingStreet"`
	ShippingApartment  string `json:"shippingApartment"`
	ShippingCountry    string `json:"shippingCountry"`
	ShippingZip        string `json:"shippingZip"`
	UseDefaultShipping bool   `json:"useDefaultShipping"`
	SetDefaultShipping bool   `json:"setDefaultShipping"`

	BillingStreet     string `json:"billingStreet"`
	BillingApartment  string `json:"billingApartment"`
	BillingCountry    string `json:"billingCountry"`
	BillingZip        string `json:"billingZip"`
	UseDefaultBilling bool   `json:"useDefaultBilling"`
	SetDefaultBilling bool   `json:"setDefaultBilling"`

	SameBillingAddress bool `json:"sameBillingAddress"`

	PaymentMethod string `json:"paymentMethod"`
}

// Validate checks the form shape without touching storage. Address fields are
// only required for a kind the submission actually has to materialize.
func (s Submission) Validate() domain.FieldErrors {
	errs := domain.FieldErrors{}
	if !s.UseDefaultShipping {
		if strings.TrimSpace(s.ShippingStreet) == "" {
			errs["shippingStreet"] = "required"
		}
		if strings.TrimSpace(s.ShippingCountry) == "" {
			errs["shippingCountry"] = "required"
		}
		if strings.TrimSpace(s.ShippingZip) == "" {
			errs["shippingZip"] = "required"
		}
	}
	if !s.SameBillingAddress && !s.UseDefaultBilling {
		if strings.TrimSpace(s.BillingStreet) == "" {
			errs["billingStreet"] = "required"
		}
		if strings.TrimSpace(s.BillingCountry) == "" {
			errs["billingCountry"] = "required"
		}
		if strings.TrimSpace(s.BillingZip) == "" {
			errs["billingZip"] = "required"
		}
	}
	switch s.PaymentMethod {
	case MethodStripe, MethodPayPal, MethodSSLCommerz:
	default:
		errs["paymentMethod"] = "must be one of stripe, paypal, sslcommerz"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

type Service struct {
	carts cartRepo
	addrs addressRepo
}

type cartRepo interface {
	GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error)
	SetAddress(ctx context.Context, cartID string, kind domain.AddressKind, addressID string) error
}

type addressRepo interface {
	Create(ctx context.Context, addr domain.Address, makeDefault bool) (*domain.Address, error)
	GetDefault(ctx context.Context, userID string, kind domain.AddressKind) (*domain.Address, error)
}

func New(carts cartRepo, addrs addressRepo) *Service {
	return &Service{carts: carts, addrs: addrs}
}

// Result reports where the submission left the cart: addresses attached and a
// payment method chosen, with payment itself still outstanding.
type Result struct {
	CartID            string `json:"cartId"`
	ShippingAddressID string `json:"shippingAddressId"`
	BillingAddressID  string `json:"billingAddressId"`
	PaymentMethod     string `json:"paymentMethod"`
}

// Submit validates the form, resolves both addresses and attaches them to the
// open cart. An empty cart refuses checkout before any address is written.
func (s *Service) Submit(ctx context.Context, userID string, sub Submission) (*Result, error) {
	if errs := sub.Validate(); errs != nil {
		return nil, errs
	}

	cart, err := s.carts.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, domain.FieldErrors{"cart": "cart is empty"}
	}

	shipping, err := s.resolveShipping(ctx, userID, sub)
	if err != nil {
		return nil, err
	}
	billing, err := s.resolveBilling(ctx, userID, sub, shipping)
	if err != nil {
		return nil, err
	}

	if err := s.carts.SetAddress(ctx, cart.ID, domain.AddressShipping, shipping.ID); err != nil {
		return nil, err
	}
	if err := s.carts.SetAddress(ctx, cart.ID, domain.AddressBilling, billing.ID); err != nil {
		return nil, err
	}

	return &Result{
		CartID:            cart.ID,
		ShippingAddressID: shipping.ID,
		BillingAddressID:  billing.ID,
		PaymentMethod:     sub.PaymentMethod,
	}, nil
}

func (s *Service) resolveShipping(ctx context.Context, userID string, sub Submission) (*domain.Address, error) {
	if sub.UseDefaultShipping {
		return s.addrs.GetDefault(ctx, userID, domain.AddressShipping)
	}
	return s.addrs.Create(ctx, domain.Address{
		UserID:    userID,
		Street:    strings.TrimSpace(sub.ShippingStreet),
		Apartment: strings.TrimSpace(sub.ShippingApartment),
		Country:   strings.TrimSpace(sub.ShippingCountry),
		Zip:       strings.TrimSpace(sub.ShippingZip),
		Kind:      domain.AddressShipping,
	}, sub.SetDefaultShipping)
}

func (s *Service) resolveBilling(ctx context.Context, userID string, sub Submission, shipping *domain.Address) (*domain.Address, error) {
	if sub.SameBillingAddress {
		// Billing gets its own row cloned from shipping, so later edits to
		// either address leave the other untouched.
		return s.addrs.Create(ctx, domain.Address{
			UserID:    userID,
			Street:    shipping.Street,
			Apartment: shipping.Apartment,
			Country:   shipping.Country,
			Zip:       shipping.Zip,
			Kind:      domain.AddressBilling,
		}, false)
	}
	if sub.UseDefaultBilling {
		return s.addrs.GetDefault(ctx, userID, domain.AddressBilling)
	}
	return s.addrs.Create(ctx, domain.Address{
		UserID:    userID,
		Street:    strings.TrimSpace(sub.BillingStreet),
		Apartment: strings.TrimSpace(sub.BillingApartment),
		Country:   strings.TrimSpace(sub.BillingCountry),
		Zip:       strings.TrimSpace(sub.BillingZip),
		Kind:      domain.AddressBilling,
	}, sub.SetDefaultBilling)
}
