package item

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows the item listing; zero values mean "no filter".
type ListFilter struct {
	Category string
	Search   string
	Page     int
	PerPage  int
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Item, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Item, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// EnsureCategory returns the category with the given name, creating it if
	// it does not exist yet.
	EnsureCategory(ctx context.Context, name string) (*domain.Category, error)
	Upsert(ctx context.Context, it domain.Item) (*domain.Item, error)
}
