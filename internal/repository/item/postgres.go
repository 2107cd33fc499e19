package item

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPerPage = 8

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Item, error) {
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	const q = `
SELECT i.id::text, i.name, i.category_id::text, c.name, i.price_cents, i.discount_price_cents,
       i.label, i.slug, i.description, i.created_at
FROM items i
JOIN categories c ON c.id = i.category_id
WHERE ($1 = '' OR c.name = $1)
  AND ($2 = '' OR i.name ILIKE '%' || $2 || '%' OR c.name ILIKE '%' || $2 || '%')
ORDER BY i.created_at DESC, i.id DESC
LIMIT $3 OFFSET $4
`
	rows, err := r.pool.Query(ctx, q, f.Category, f.Search, perPage, (page-1)*perPage)
	if err != nil {
		r.logger.Printf("item repo: list category=%q search=%q error=%v", f.Category, f.Search, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.CategoryID, &it.CategoryName, &it.PriceCents,
			&it.DiscountPriceCents, &it.Label, &it.Slug, &it.Description, &it.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Item, error) {
	const q = `
SELECT i.id::text, i.name, i.category_id::text, c.name, i.price_cents, i.discount_price_cents,
       i.label, i.slug, i.description, i.created_at
FROM items i
JOIN categories c ON c.id = i.category_id
WHERE i.slug = $1
`
	var it domain.Item
	err := r.pool.QueryRow(ctx, q, slug).Scan(&it.ID, &it.Name, &it.CategoryID, &it.CategoryName,
		&it.PriceCents, &it.DiscountPriceCents, &it.Label, &it.Slug, &it.Description, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("item repo: get slug=%s error=%v", slug, err)
		return nil, err
	}
	return &it, nil
}

func (r *postgresRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) EnsureCategory(ctx context.Context, name string) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text, name
`
	var c domain.Category
	if err := r.pool.QueryRow(ctx, q, name).Scan(&c.ID, &c.Name); err != nil {
		r.logger.Printf("item repo: ensure category name=%q error=%v", name, err)
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO items (name, category_id, price_cents, discount_price_cents, label, slug, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    category_id = EXCLUDED.category_id,
    price_cents = EXCLUDED.price_cents,
    discount_price_cents = EXCLUDED.discount_price_cents,
    label = EXCLUDED.label,
    description = EXCLUDED.description
RETURNING id::text, created_at
`
	res := it
	err := r.pool.QueryRow(ctx, q, it.Name, it.CategoryID, it.PriceCents, it.DiscountPriceCents,
		it.Label, it.Slug, it.Description).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("item repo: upsert slug=%s error=%v", it.Slug, err)
		return nil, err
	}
	return &res, nil
}
