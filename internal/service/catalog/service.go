package catalog

import (
	"context"

	"storefront/internal/domain"
	itemrepo "storefront/internal/repository/item"
)

type Service struct {
	repo itemrepo.Repository
}

func New(repo itemrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, category, search string, page int) ([]domain.Item, error) {
	return s.repo.List(ctx, itemrepo.ListFilter{Category: category, Search: search, Page: page})
}

func (s *Service) Get(ctx context.Context, slug string) (*domain.Item, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}
