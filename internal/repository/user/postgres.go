package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := u
	res.Email = strings.ToLower(u.Email)
	err = tx.QueryRow(ctx, `
INSERT INTO users (email, password_hash, name)
VALUES ($1, $2, $3)
RETURNING id::text, created_at
`, res.Email, u.PasswordHash, u.Name).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (user_id) VALUES ($1)`, res.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	res.Profile = &domain.Profile{UserID: res.ID}
	r.logger.Printf("user repo: created user=%s", res.ID)
	return &res, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetch(ctx, `
SELECT u.id::text, u.email, u.password_hash, u.name, u.created_at,
       p.stripe_customer_id, p.one_click_purchasing
FROM users u
JOIN profiles p ON p.user_id = u.id
WHERE u.email = $1
`, strings.ToLower(email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetch(ctx, `
SELECT u.id::text, u.email, u.password_hash, u.name, u.created_at,
       p.stripe_customer_id, p.one_click_purchasing
FROM users u
JOIN profiles p ON p.user_id = u.id
WHERE u.id = $1
`, id)
}

func (r *postgresRepo) UpdateProfile(ctx context.Context, p domain.Profile) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE profiles
SET stripe_customer_id = $1,
    one_click_purchasing = $2
WHERE user_id = $3
`, p.StripeCustomerID, p.OneClickPurchases, p.UserID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) fetch(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var u domain.User
	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt,
		&p.StripeCustomerID, &p.OneClickPurchases,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.UserID = u.ID
	u.Profile = &p
	return &u, nil
}
