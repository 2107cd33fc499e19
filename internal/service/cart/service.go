package cart

import (
	"context"
	"strings"

	"storefront/internal/domain"
)

type Service struct {
	repo        cartRepo
	items       itemRepo
	coupons     couponRepo
	floorAtZero bool
}

type cartRepo interface {
	GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error)
	DecrementItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error)
	RemoveItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error)
	SetCoupon(ctx context.Context, cartID, couponID string) error
	SetBeingDelivered(ctx context.Context, refCode string) error
	SetReceived(ctx context.Context, refCode string) error
	ListFinalizedByUser(ctx context.Context, userID string) ([]domain.Cart, error)
}

type itemRepo interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Item, error)
}

type couponRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

func New(repo cartRepo, items itemRepo, coupons couponRepo, floorAtZero bool) *Service {
	return &Service{repo: repo, items: items, coupons: coupons, floorAtZero: floorAtZero}
}

// Summary is the open cart plus its computed total.
type Summary struct {
	Cart       *domain.Cart `json:"cart"`
	TotalCents int64        `json:"totalCents"`
}

// AddItem attaches one unit of the item to the user's open cart, creating the
// cart and line as needed. Repeated adds bump the quantity of the single
// existing line, never create a second one.
func (s *Service) AddItem(ctx context.Context, userID, slug string) (domain.MutationStatus, error) {
	it, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.repo.AddItem(ctx, userID, it.ID)
}

// RemoveOne decrements the line's quantity, deleting the line at zero.
func (s *Service) RemoveOne(ctx context.Context, userID, slug string) (domain.MutationStatus, error) {
	it, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.repo.DecrementItem(ctx, userID, it.ID)
}

// RemoveAll deletes the line regardless of quantity.
func (s *Service) RemoveAll(ctx context.Context, userID, slug string) (domain.MutationStatus, error) {
	it, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	return s.repo.RemoveItem(ctx, userID, it.ID)
}

func (s *Service) OpenCart(ctx context.Context, userID string) (*Summary, error) {
	cart, err := s.repo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Summary{Cart: cart, TotalCents: cart.TotalCents(s.floorAtZero)}, nil
}

// ApplyCoupon attaches the coupon to the open cart. Last applied wins; an
// unknown code fails with domain.ErrInvalidCoupon and changes nothing.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (*Summary, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInvalidCoupon
	}
	cart, err := s.repo.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetCoupon(ctx, cart.ID, coupon.ID); err != nil {
		return nil, err
	}
	cart.Coupon = coupon
	return &Summary{Cart: cart, TotalCents: cart.TotalCents(s.floorAtZero)}, nil
}

func (s *Service) Orders(ctx context.Context, userID string) ([]domain.Cart, error) {
	return s.repo.ListFinalizedByUser(ctx, userID)
}

// MarkBeingDelivered and MarkReceived flip the post-finalization fulfilment
// flags; both are admin-side actions.
func (s *Service) MarkBeingDelivered(ctx context.Context, refCode string) error {
	return s.repo.SetBeingDelivered(ctx, refCode)
}

func (s *Service) MarkReceived(ctx context.Context, refCode string) error {
	return s.repo.SetReceived(ctx, refCode)
}

// TotalCents recomputes a cart total under the service's floor policy.
func (s *Service) TotalCents(cart *domain.Cart) int64 {
	return cart.TotalCents(s.floorAtZero)
}
