package refund

import (
	"context"
	"errors"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, refCode, reason, email string) (*domain.RefundRequest, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var cartID string
	var granted bool
	err = tx.QueryRow(ctx,
		`SELECT id::text, refund_granted FROM carts WHERE reference_code = $1 AND finalized FOR UPDATE`, refCode).
		Scan(&cartID, &granted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownOrder
		}
		return nil, err
	}
	if granted {
		return nil, domain.ErrRefundAlreadyGranted
	}

	req := domain.RefundRequest{
		CartID:        cartID,
		ReferenceCode: refCode,
		Reason:        reason,
		Email:         email,
		Status:        domain.RefundRequested,
	}
	err = tx.QueryRow(ctx, `
INSERT INTO refund_requests (cart_id, reference_code, reason, email)
VALUES ($1, $2, $3, $4)
RETURNING id::text, created_at
`, cartID, refCode, reason, email).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrRefundAlreadyRequested
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE carts SET refund_requested = true WHERE id = $1`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *postgresRepo) Grant(ctx context.Context, refCode string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx,
		`UPDATE refund_requests SET status = 'granted' WHERE reference_code = $1`, refCode)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`UPDATE carts SET refund_granted = true WHERE reference_code = $1 AND finalized`, refCode); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) GetByReference(ctx context.Context, refCode string) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	err := r.pool.QueryRow(ctx, `
SELECT id::text, cart_id::text, reference_code, reason, email, status, created_at
FROM refund_requests
WHERE reference_code = $1
`, refCode).Scan(&req.ID, &req.CartID, &req.ReferenceCode, &req.Reason, &req.Email, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}
