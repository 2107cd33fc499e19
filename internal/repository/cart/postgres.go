package cart

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	refCodeLength  = 20
	refCodeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

const cartColumns = `
id::text, user_id::text, billing_address_id::text, shipping_address_id::text, payment_id::text,
coupon_id::text, created_at, finalized_at, finalized, reference_code,
being_delivered, received, refund_requested, refund_granted
`

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

func (r *postgresRepo) GetOpenByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1 AND NOT finalized`, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoOpenCart
		}
		return nil, err
	}
	return cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
}

func (r *postgresRepo) GetByReference(ctx context.Context, refCode string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE reference_code = $1 AND finalized`, refCode)
}

func (r *postgresRepo) ListFinalizedByUser(ctx context.Context, userID string) ([]domain.Cart, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+cartColumns+` FROM carts WHERE user_id = $1 AND finalized ORDER BY finalized_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []domain.Cart
	for rows.Next() {
		cart, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		carts = append(carts, *cart)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range carts {
		if err := r.loadLines(ctx, &carts[i]); err != nil {
			return nil, err
		}
	}
	return carts, nil
}

// AddItem relies on the two partial unique indexes: the cart upsert arbitrates
// on (user_id) WHERE NOT finalized, the line upsert on (user_id, item_id)
// WHERE NOT finalized. Two concurrent adds can never produce duplicates.
func (r *postgresRepo) AddItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO carts (user_id) VALUES ($1)
ON CONFLICT (user_id) WHERE NOT finalized DO NOTHING
`, userID); err != nil {
		return "", err
	}

	var cartID string
	if err := tx.QueryRow(ctx,
		`SELECT id::text FROM carts WHERE user_id = $1 AND NOT finalized`, userID).Scan(&cartID); err != nil {
		return "", err
	}

	var quantity int
	if err := tx.QueryRow(ctx, `
INSERT INTO cart_lines (cart_id, user_id, item_id, quantity)
VALUES ($1, $2, $3, 1)
ON CONFLICT (user_id, item_id) WHERE NOT finalized
DO UPDATE SET quantity = cart_lines.quantity + 1
RETURNING quantity
`, cartID, userID, itemID).Scan(&quantity); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	if quantity == 1 {
		return domain.StatusCreated, nil
	}
	return domain.StatusQuantityUpdated, nil
}

func (r *postgresRepo) DecrementItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var cartID string
	err = tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE user_id = $1 AND NOT finalized`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusNoOpenCart, nil
		}
		return "", err
	}

	cmd, err := tx.Exec(ctx, `
UPDATE cart_lines SET quantity = quantity - 1
WHERE user_id = $1 AND item_id = $2 AND NOT finalized AND quantity > 1
`, userID, itemID)
	if err != nil {
		return "", err
	}
	status := domain.StatusQuantityUpdated
	if cmd.RowsAffected() == 0 {
		cmd, err = tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE user_id = $1 AND item_id = $2 AND NOT finalized
`, userID, itemID)
		if err != nil {
			return "", err
		}
		if cmd.RowsAffected() == 0 {
			return domain.StatusNotInCart, nil
		}
		status = domain.StatusRemoved
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return status, nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, userID, itemID string) (domain.MutationStatus, error) {
	var cartID string
	err := r.pool.QueryRow(ctx, `SELECT id::text FROM carts WHERE user_id = $1 AND NOT finalized`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusNoOpenCart, nil
		}
		return "", err
	}

	cmd, err := r.pool.Exec(ctx, `
DELETE FROM cart_lines
WHERE user_id = $1 AND item_id = $2 AND NOT finalized
`, userID, itemID)
	if err != nil {
		return "", err
	}
	if cmd.RowsAffected() == 0 {
		return domain.StatusNotInCart, nil
	}
	return domain.StatusRemoved, nil
}

func (r *postgresRepo) SetAddress(ctx context.Context, cartID string, kind domain.AddressKind, addressID string) error {
	column := "shipping_address_id"
	if kind == domain.AddressBilling {
		column = "billing_address_id"
	}
	cmd, err := r.pool.Exec(ctx,
		`UPDATE carts SET `+column+` = $1 WHERE id = $2 AND NOT finalized`, addressID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNoOpenCart
	}
	return nil
}

func (r *postgresRepo) SetCoupon(ctx context.Context, cartID, couponID string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE carts SET coupon_id = $1 WHERE id = $2 AND NOT finalized`, couponID, cartID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNoOpenCart
	}
	return nil
}

// Finalize is the single open -> finalized transition. Everything happens
// under one transaction with the cart row locked, so a replayed gateway
// notification either sees the lock or an already-finalized cart.
func (r *postgresRepo) Finalize(ctx context.Context, cartID string, in FinalizeInput) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var finalized bool
	var billingID *string
	err = tx.QueryRow(ctx,
		`SELECT finalized, billing_address_id::text FROM carts WHERE id = $1 FOR UPDATE`, cartID).
		Scan(&finalized, &billingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if finalized {
		return nil, domain.ErrAlreadyFinalized
	}

	var lineCount int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM cart_lines WHERE cart_id = $1 AND NOT finalized`, cartID).Scan(&lineCount); err != nil {
		return nil, err
	}
	if lineCount == 0 || billingID == nil {
		return nil, domain.ErrCartNotReady
	}

	var paymentID string
	err = tx.QueryRow(ctx, `
INSERT INTO payments (user_id, amount_cents, provider, charge_id)
VALUES ($1, $2, $3, $4)
RETURNING id::text
`, in.UserID, in.AmountCents, in.Provider, in.ChargeID).Scan(&paymentID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Same charge recorded by a concurrent delivery.
			return nil, domain.ErrAlreadyFinalized
		}
		return nil, err
	}

	refCode, err := r.freeReferenceCode(ctx, tx)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
UPDATE carts
SET finalized = true,
    finalized_at = now(),
    reference_code = $1,
    payment_id = $2
WHERE id = $3
`, refCode, paymentID, cartID); err != nil {
		return nil, err
	}

	// Snapshot the unit price the lines were actually charged at.
	if _, err := tx.Exec(ctx, `
UPDATE cart_lines l
SET finalized = true,
    unit_price_cents = COALESCE(i.discount_price_cents, i.price_cents)
FROM items i
WHERE l.cart_id = $1 AND i.id = l.item_id
`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	r.logger.Printf("cart repo: finalized cart=%s ref=%s provider=%s charge=%s", cartID, refCode, in.Provider, in.ChargeID)
	return r.GetByID(ctx, cartID)
}

func (r *postgresRepo) SetBeingDelivered(ctx context.Context, refCode string) error {
	return r.setFlag(ctx, refCode, "being_delivered")
}

func (r *postgresRepo) SetReceived(ctx context.Context, refCode string) error {
	return r.setFlag(ctx, refCode, "received")
}

func (r *postgresRepo) setFlag(ctx context.Context, refCode, column string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE carts SET `+column+` = true WHERE reference_code = $1 AND finalized`, refCode)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUnknownOrder
	}
	return nil
}

// freeReferenceCode generates codes until one is unused. The check runs inside
// the finalization transaction; the unique constraint on reference_code backs
// it up should two transactions ever draw the same code.
func (r *postgresRepo) freeReferenceCode(ctx context.Context, tx pgx.Tx) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := randomReferenceCode()
		if err != nil {
			return "", err
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM carts WHERE reference_code = $1)`, code).Scan(&exists); err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("reference code collision")
}

func randomReferenceCode() (string, error) {
	buf := make([]byte, refCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = refCodeCharset[int(b)%len(refCodeCharset)]
	}
	return string(buf), nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, query string, args ...interface{}) (*domain.Cart, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	cart, err := scanCart(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadLines(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	var couponID *string
	if err := row.Scan(
		&cart.ID,
		&cart.UserID,
		&cart.BillingAddressID,
		&cart.ShippingAddressID,
		&cart.PaymentID,
		&couponID,
		&cart.CreatedAt,
		&cart.FinalizedAt,
		&cart.Finalized,
		&cart.ReferenceCode,
		&cart.BeingDelivered,
		&cart.Received,
		&cart.RefundRequested,
		&cart.RefundGranted,
	); err != nil {
		return nil, err
	}
	if couponID != nil {
		cart.Coupon = &domain.Coupon{ID: *couponID}
	}
	return &cart, nil
}

func (r *postgresRepo) loadLines(ctx context.Context, cart *domain.Cart) error {
	const linesQuery = `
SELECT l.id::text, l.cart_id::text, l.user_id::text, l.item_id::text, i.name, i.slug,
       l.quantity, l.finalized, l.unit_price_cents, l.created_at,
       i.price_cents, i.discount_price_cents
FROM cart_lines l
JOIN items i ON i.id = l.item_id
WHERE l.cart_id = $1
ORDER BY l.created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.UserID,
			&line.ItemID,
			&line.ItemName,
			&line.ItemSlug,
			&line.Quantity,
			&line.Finalized,
			&line.UnitPriceCents,
			&line.CreatedAt,
			&line.ItemPriceCents,
			&line.ItemDiscountPriceCents,
		); err != nil {
			return err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if cart.Coupon != nil {
		err := r.pool.QueryRow(ctx,
			`SELECT id::text, code, amount_cents FROM coupons WHERE id = $1`, cart.Coupon.ID).
			Scan(&cart.Coupon.ID, &cart.Coupon.Code, &cart.Coupon.AmountCents)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("load coupon: %w", err)
		}
	}
	return nil
}
