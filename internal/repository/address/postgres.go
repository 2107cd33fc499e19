package address

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const addressColumns = `id::text, user_id::text, street, apartment, country, zip, kind, is_default, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// Create clears the previous default and inserts the new row in one
// transaction; no read happens in between, and the partial unique index on
// (user_id, kind) WHERE is_default holds the invariant under concurrency.
// When two default-setting creates race, the loser's insert trips the index;
// the whole transaction is retried so it clears the winner's default and
// becomes the new one.
func (r *postgresRepo) Create(ctx context.Context, addr domain.Address, makeDefault bool) (*domain.Address, error) {
	for attempt := 0; ; attempt++ {
		res, err := r.create(ctx, addr, makeDefault)
		if err != nil {
			var pgErr *pgconn.PgError
			if makeDefault && attempt < 3 && errors.As(err, &pgErr) && pgErr.Code == "23505" {
				continue
			}
			return nil, err
		}
		return res, nil
	}
}

func (r *postgresRepo) create(ctx context.Context, addr domain.Address, makeDefault bool) (*domain.Address, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if makeDefault {
		if _, err := tx.Exec(ctx, `
UPDATE addresses SET is_default = false
WHERE user_id = $1 AND kind = $2 AND is_default
`, addr.UserID, addr.Kind); err != nil {
			return nil, err
		}
	}

	res := addr
	res.IsDefault = makeDefault
	err = tx.QueryRow(ctx, `
INSERT INTO addresses (user_id, street, apartment, country, zip, kind, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text, created_at
`, addr.UserID, addr.Street, addr.Apartment, addr.Country, addr.Zip, addr.Kind, makeDefault).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, userID, id string) (*domain.Address, error) {
	return r.fetch(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND id = $2`, userID, id)
}

func (r *postgresRepo) GetDefault(ctx context.Context, userID string, kind domain.AddressKind) (*domain.Address, error) {
	addr, err := r.fetch(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 AND kind = $2 AND is_default`, userID, kind)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoDefaultAddress
		}
		return nil, err
	}
	return addr, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Street, &a.Apartment, &a.Country, &a.Zip, &a.Kind, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *postgresRepo) fetch(ctx context.Context, query string, args ...interface{}) (*domain.Address, error) {
	var a domain.Address
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&a.ID, &a.UserID, &a.Street, &a.Apartment, &a.Country, &a.Zip, &a.Kind, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
