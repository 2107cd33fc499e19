package coupon

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, code, amount_cents FROM coupons WHERE code = $1`, code).
		Scan(&c.ID, &c.Code, &c.AmountCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidCoupon
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Coupon) (*domain.Coupon, error) {
	res := c
	err := r.pool.QueryRow(ctx, `
INSERT INTO coupons (code, amount_cents)
VALUES ($1, $2)
ON CONFLICT (code) DO UPDATE SET amount_cents = EXCLUDED.amount_cents
RETURNING id::text
`, c.Code, c.AmountCents).Scan(&res.ID)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
