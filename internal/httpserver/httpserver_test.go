package httpserver

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/payments"
	cartrepo "storefront/internal/repository/cart"
	itemrepo "storefront/internal/repository/item"
	tokenrepo "storefront/internal/repository/token"
)

type fakeItems struct {
	bySlug map[string]*domain.Item
}

func (f *fakeItems) List(_ context.Context, _ itemrepo.ListFilter) ([]domain.Item, error) {
	var out []domain.Item
	for _, it := range f.bySlug {
		out = append(out, *it)
	}
	return out, nil
}

func (f *fakeItems) GetBySlug(_ context.Context, slug string) (*domain.Item, error) {
	if it, ok := f.bySlug[slug]; ok {
		return it, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeItems) ListCategories(_ context.Context) ([]domain.Category, error) { return nil, nil }

func (f *fakeItems) EnsureCategory(_ context.Context, name string) (*domain.Category, error) {
	return &domain.Category{ID: "cat-" + name, Name: name}, nil
}

func (f *fakeItems) Upsert(_ context.Context, it domain.Item) (*domain.Item, error) {
	f.bySlug[it.Slug] = &it
	return &it, nil
}

type fakeCarts struct {
	open          *domain.Cart
	finalizeCalls int
	delivered     []string
}

func (f *fakeCarts) GetOpenByUser(_ context.Context, _ string) (*domain.Cart, error) {
	if f.open == nil || f.open.Finalized {
		return nil, domain.ErrNoOpenCart
	}
	return f.open, nil
}

func (f *fakeCarts) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	if f.open != nil && f.open.ID == id {
		return f.open, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCarts) ListFinalizedByUser(_ context.Context, _ string) ([]domain.Cart, error) {
	return nil, nil
}

func (f *fakeCarts) AddItem(_ context.Context, _, _ string) (domain.MutationStatus, error) {
	return domain.StatusCreated, nil
}

func (f *fakeCarts) DecrementItem(_ context.Context, _, _ string) (domain.MutationStatus, error) {
	return domain.StatusQuantityUpdated, nil
}

func (f *fakeCarts) RemoveItem(_ context.Context, _, _ string) (domain.MutationStatus, error) {
	return domain.StatusRemoved, nil
}

func (f *fakeCarts) SetAddress(_ context.Context, _ string, kind domain.AddressKind, addressID string) error {
	id := addressID
	if kind == domain.AddressShipping {
		f.open.ShippingAddressID = &id
	} else {
		f.open.BillingAddressID = &id
	}
	return nil
}

func (f *fakeCarts) SetCoupon(_ context.Context, _, _ string) error { return nil }

func (f *fakeCarts) Finalize(_ context.Context, cartID string, _ cartrepo.FinalizeInput) (*domain.Cart, error) {
	if f.open == nil || f.open.ID != cartID {
		return nil, domain.ErrNotFound
	}
	if f.open.Finalized {
		return nil, domain.ErrAlreadyFinalized
	}
	f.finalizeCalls++
	f.open.Finalized = true
	return f.open, nil
}

func (f *fakeCarts) SetBeingDelivered(_ context.Context, refCode string) error {
	f.delivered = append(f.delivered, refCode)
	return nil
}

func (f *fakeCarts) SetReceived(_ context.Context, _ string) error { return nil }

type fakeCoupons struct {
	byCode map[string]*domain.Coupon
}

func (f *fakeCoupons) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	if c, ok := f.byCode[code]; ok {
		return c, nil
	}
	return nil, domain.ErrInvalidCoupon
}

type fakeAddresses struct {
	byID   map[string]*domain.Address
	nextID int
}

func (f *fakeAddresses) Create(_ context.Context, addr domain.Address, makeDefault bool) (*domain.Address, error) {
	f.nextID++
	addr.ID = fmt.Sprintf("addr-%d", f.nextID)
	addr.IsDefault = makeDefault
	f.byID[addr.ID] = &addr
	return &addr, nil
}

func (f *fakeAddresses) GetByID(_ context.Context, _, id string) (*domain.Address, error) {
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAddresses) GetDefault(_ context.Context, _ string, _ domain.AddressKind) (*domain.Address, error) {
	return nil, domain.ErrNoDefaultAddress
}

type fakeRefunds struct {
	createErr error
	granted   []string
}

func (f *fakeRefunds) Create(_ context.Context, refCode, reason, email string) (*domain.RefundRequest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.RefundRequest{ID: "r-1", ReferenceCode: refCode, Reason: reason, Email: email, Status: domain.RefundRequested}, nil
}

func (f *fakeRefunds) Grant(_ context.Context, refCode string) error {
	f.granted = append(f.granted, refCode)
	return nil
}

func (f *fakeRefunds) GetByReference(_ context.Context, _ string) (*domain.RefundRequest, error) {
	return nil, domain.ErrNotFound
}

type fakeUsers struct {
	byEmail map[string]*domain.User
	nextID  int
}

func (f *fakeUsers) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	u.Profile = &domain.Profile{UserID: u.ID}
	f.byEmail[u.Email] = &u
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, p domain.Profile) error {
	for _, u := range f.byEmail {
		if u.ID == p.UserID {
			u.Profile = &p
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeTokens struct {
	byToken map[string]tokenrepo.Token
}

func (f *fakeTokens) Create(_ context.Context, t tokenrepo.Token) error {
	if _, ok := f.byToken[t.Token]; ok {
		return domain.ErrAlreadyExists
	}
	f.byToken[t.Token] = t
	return nil
}

func (f *fakeTokens) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	if t, ok := f.byToken[token]; ok {
		return &t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTokens) Delete(_ context.Context, token string) error {
	delete(f.byToken, token)
	return nil
}

type fakeCardGateway struct {
	charge      *payments.Charge
	err         error
	sources     []string
	chargeCalls int
}

func (f *fakeCardGateway) CreateCustomer(_ context.Context, _, _ string) (string, error) {
	return "cus_test", nil
}

func (f *fakeCardGateway) AttachSource(_ context.Context, _, _ string) error { return nil }

func (f *fakeCardGateway) ChargeBySource(_ context.Context, amountCents int64, _, _ string) (*payments.Charge, error) {
	f.chargeCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.charge != nil {
		return f.charge, nil
	}
	return &payments.Charge{ID: "ch_test", AmountCents: amountCents, Currency: "usd"}, nil
}

func (f *fakeCardGateway) ChargeByCustomer(_ context.Context, amountCents int64, _, _ string) (*payments.Charge, error) {
	return f.ChargeBySource(context.Background(), amountCents, "", "")
}

func (f *fakeCardGateway) ListSources(_ context.Context, _ string) ([]string, error) {
	return f.sources, nil
}

type fakeRedirectGateway struct {
	session *payments.RedirectSession
}

func (f *fakeRedirectGateway) CreateSession(_ context.Context, _ payments.SessionRequest) (*payments.RedirectSession, error) {
	if f.session != nil {
		return f.session, nil
	}
	return &payments.RedirectSession{SessionKey: "sess", GatewayPageURL: "https://gw.test/pay"}, nil
}
