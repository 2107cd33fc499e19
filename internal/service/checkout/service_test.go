package checkout

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
)

type stubCartRepo struct {
	openCart *domain.Cart
	openErr  error
	set      map[domain.AddressKind]string
}

func (s *stubCartRepo) GetOpenByUser(_ context.Context, _ string) (*domain.Cart, error) {
	return s.openCart, s.openErr
}

func (s *stubCartRepo) SetAddress(_ context.Context, _ string, kind domain.AddressKind, addressID string) error {
	if s.set == nil {
		s.set = map[domain.AddressKind]string{}
	}
	s.set[kind] = addressID
	return nil
}

type stubAddressRepo struct {
	created     []domain.Address
	makeDefault []bool
	defaults    map[domain.AddressKind]*domain.Address
	nextID      int
}

func (s *stubAddressRepo) Create(_ context.Context, addr domain.Address, makeDefault bool) (*domain.Address, error) {
	s.nextID++
	addr.ID = addrID(s.nextID)
	addr.IsDefault = makeDefault
	s.created = append(s.created, addr)
	s.makeDefault = append(s.makeDefault, makeDefault)
	return &addr, nil
}

func (s *stubAddressRepo) GetDefault(_ context.Context, _ string, kind domain.AddressKind) (*domain.Address, error) {
	if a, ok := s.defaults[kind]; ok {
		return a, nil
	}
	return nil, domain.ErrNoDefaultAddress
}

func addrID(n int) string {
	return string(rune('a' + n - 1))
}

func openCart() *domain.Cart {
	return &domain.Cart{ID: "cart-1", Lines: []domain.CartLine{{Quantity: 1, ItemPriceCents: 1000}}}
}

func validSubmission() Submission {
	return Submission{
		ShippingStreet:  "1 Main St",
		ShippingCountry: "DE",
		ShippingZip:     "10117",
		BillingStreet:   "2 Side St",
		BillingCountry:  "DE",
		BillingZip:      "10119",
		PaymentMethod:   MethodStripe,
	}
}

func TestValidateRequiredFields(t *testing.T) {
	errs := Submission{PaymentMethod: MethodStripe}.Validate()
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	for _, field := range []string{"shippingStreet", "shippingCountry", "shippingZip", "billingStreet", "billingCountry", "billingZip"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
}

func TestValidateSkipsAddressFieldsWhenDefaulted(t *testing.T) {
	sub := Submission{UseDefaultShipping: true, UseDefaultBilling: true, PaymentMethod: MethodSSLCommerz}
	if errs := sub.Validate(); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}

	sub = Submission{UseDefaultShipping: true, SameBillingAddress: true, PaymentMethod: MethodPayPal}
	if errs := sub.Validate(); errs != nil {
		t.Fatalf("expected no errors with same-billing, got %v", errs)
	}
}

func TestValidatePaymentMethod(t *testing.T) {
	sub := validSubmission()
	sub.PaymentMethod = "cheque"
	errs := sub.Validate()
	if _, ok := errs["paymentMethod"]; !ok {
		t.Fatalf("expected paymentMethod error, got %v", errs)
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	carts := &stubCartRepo{openCart: &domain.Cart{ID: "cart-1"}}
	svc := New(carts, &stubAddressRepo{})

	_, err := svc.Submit(context.Background(), "user-1", validSubmission())
	var fieldErrs domain.FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fieldErrs["cart"]; !ok {
		t.Fatalf("expected cart error, got %v", fieldErrs)
	}
}

func TestSubmitAttachesBothAddresses(t *testing.T) {
	carts := &stubCartRepo{openCart: openCart()}
	addrs := &stubAddressRepo{}
	svc := New(carts, addrs)

	res, err := svc.Submit(context.Background(), "user-1", validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(addrs.created) != 2 {
		t.Fatalf("expected 2 addresses created, got %d", len(addrs.created))
	}
	if addrs.created[0].Kind != domain.AddressShipping || addrs.created[1].Kind != domain.AddressBilling {
		t.Fatalf("unexpected kinds: %s, %s", addrs.created[0].Kind, addrs.created[1].Kind)
	}
	if carts.set[domain.AddressShipping] != res.ShippingAddressID || carts.set[domain.AddressBilling] != res.BillingAddressID {
		t.Fatalf("cart addresses not set: %v vs %+v", carts.set, res)
	}
	if res.PaymentMethod != MethodStripe {
		t.Fatalf("expected stripe, got %s", res.PaymentMethod)
	}
}

func TestSubmitUseDefaultWithoutOne(t *testing.T) {
	carts := &stubCartRepo{openCart: openCart()}
	svc := New(carts, &stubAddressRepo{})

	sub := validSubmission()
	sub.UseDefaultShipping = true
	if _, err := svc.Submit(context.Background(), "user-1", sub); !errors.Is(err, domain.ErrNoDefaultAddress) {
		t.Fatalf("expected ErrNoDefaultAddress, got %v", err)
	}
}

func TestSubmitUseDefaultShipping(t *testing.T) {
	carts := &stubCartRepo{openCart: openCart()}
	addrs := &stubAddressRepo{defaults: map[domain.AddressKind]*domain.Address{
		domain.AddressShipping: {ID: "default-ship", Kind: domain.AddressShipping, Street: "9 Old Rd"},
	}}
	svc := New(carts, addrs)

	sub := validSubmission()
	sub.UseDefaultShipping = true
	res, err := svc.Submit(context.Background(), "user-1", sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ShippingAddressID != "default-ship" {
		t.Fatalf("expected default shipping address, got %s", res.ShippingAddressID)
	}
	// Only billing should have been created.
	if len(addrs.created) != 1 || addrs.created[0].Kind != domain.AddressBilling {
		t.Fatalf("unexpected creations: %+v", addrs.created)
	}
}

func TestSubmitSameBillingClonesShipping(t *testing.T) {
	carts := &stubCartRepo{openCart: openCart()}
	addrs := &stubAddressRepo{}
	svc := New(carts, addrs)

	sub := validSubmission()
	sub.SameBillingAddress = true
	sub.BillingStreet, sub.BillingCountry, sub.BillingZip = "", "", ""

	if _, err := svc.Submit(context.Background(), "user-1", sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(addrs.created) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs.created))
	}
	billing := addrs.created[1]
	if billing.Kind != domain.AddressBilling || billing.Street != "1 Main St" || billing.Zip != "10117" {
		t.Fatalf("expected billing cloned from shipping, got %+v", billing)
	}
	// The clone must never steal the default slot.
	if addrs.makeDefault[1] {
		t.Fatal("cloned billing address must not become the default")
	}
}

func TestSubmitSetDefaultFlag(t *testing.T) {
	carts := &stubCartRepo{openCart: openCart()}
	addrs := &stubAddressRepo{}
	svc := New(carts, addrs)

	sub := validSubmission()
	sub.SetDefaultShipping = true
	if _, err := svc.Submit(context.Background(), "user-1", sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !addrs.makeDefault[0] {
		t.Fatal("expected shipping address created as default")
	}
	if addrs.makeDefault[1] {
		t.Fatal("billing should not default without its flag")
	}
}
