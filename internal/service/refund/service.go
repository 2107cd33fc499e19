package refund

import (
	"context"
	"strings"

	"storefront/internal/domain"
)

type Service struct {
	repo refundRepo
}

type refundRepo interface {
	Create(ctx context.Context, refCode, reason, email string) (*domain.RefundRequest, error)
	Grant(ctx context.Context, refCode string) error
	GetByReference(ctx context.Context, refCode string) (*domain.RefundRequest, error)
}

func New(repo refundRepo) *Service {
	return &Service{repo: repo}
}

// Request records a refund request against a finalized order. At most one
// request per order; a granted refund cannot be re-requested.
func (s *Service) Request(ctx context.Context, refCode, reason, email string) (*domain.RefundRequest, error) {
	refCode = strings.TrimSpace(refCode)
	reason = strings.TrimSpace(reason)
	email = strings.TrimSpace(email)

	errs := domain.FieldErrors{}
	if refCode == "" {
		errs["refCode"] = "required"
	}
	if reason == "" {
		errs["message"] = "required"
	}
	if email == "" || !strings.Contains(email, "@") {
		errs["email"] = "a valid email is required"
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return s.repo.Create(ctx, refCode, reason, email)
}

// Grant marks the request accepted. Money movement stays a back-office task.
func (s *Service) Grant(ctx context.Context, refCode string) error {
	return s.repo.Grant(ctx, strings.TrimSpace(refCode))
}

func (s *Service) Get(ctx context.Context, refCode string) (*domain.RefundRequest, error) {
	return s.repo.GetByReference(ctx, strings.TrimSpace(refCode))
}
