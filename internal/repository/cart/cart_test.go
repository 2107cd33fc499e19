package cart

import (
	"context"
	"errors"
	"os"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(ctx, `
TRUNCATE refund_requests, cart_lines, carts, payments, coupons, addresses,
         items, categories, tokens, profiles, users CASCADE`)
	if err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}

func insertUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, 'x') RETURNING id::text`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func insertItem(ctx context.Context, t *testing.T, pool *pgxpool.Pool, slug string, priceCents int64, discount *int64) string {
	t.Helper()
	var catID string
	err := pool.QueryRow(ctx, `
INSERT INTO categories (name) VALUES ('Test')
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text`).Scan(&catID)
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	var id string
	err = pool.QueryRow(ctx, `
INSERT INTO items (name, category_id, price_cents, discount_price_cents, slug)
VALUES ($1, $2, $3, $4, $1) RETURNING id::text`, slug, catID, priceCents, discount).Scan(&id)
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	return id
}

func insertBillingAddress(ctx context.Context, t *testing.T, pool *pgxpool.Pool, userID string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO addresses (user_id, street, country, zip, kind)
VALUES ($1, '1 Main St', 'DE', '10117', 'billing') RETURNING id::text`, userID).Scan(&id)
	if err != nil {
		t.Fatalf("insert address: %v", err)
	}
	return id
}

func TestAddItemStatuses(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	userID := insertUser(ctx, t, pool, "jo@example.com")
	itemID := insertItem(ctx, t, pool, "wool-sweater", 4999, nil)
	repo := NewPostgres(pool, nil)

	status, err := repo.AddItem(ctx, userID, itemID)
	if err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	if status != domain.StatusCreated {
		t.Fatalf("expected created, got %s", status)
	}

	status, err = repo.AddItem(ctx, userID, itemID)
	if err != nil {
		t.Fatalf("second AddItem: %v", err)
	}
	if status != domain.StatusQuantityUpdated {
		t.Fatalf("expected quantity_updated, got %s", status)
	}

	cart, err := repo.GetOpenByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetOpenByUser: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", cart.Lines)
	}

	status, err = repo.DecrementItem(ctx, userID, itemID)
	if err != nil {
		t.Fatalf("DecrementItem: %v", err)
	}
	if status != domain.StatusQuantityUpdated {
		t.Fatalf("expected quantity_updated, got %s", status)
	}

	status, err = repo.DecrementItem(ctx, userID, itemID)
	if err != nil {
		t.Fatalf("DecrementItem to zero: %v", err)
	}
	if status != domain.StatusRemoved {
		t.Fatalf("expected removed, got %s", status)
	}

	status, err = repo.DecrementItem(ctx, userID, itemID)
	if err != nil {
		t.Fatalf("DecrementItem on empty cart: %v", err)
	}
	if status != domain.StatusNotInCart {
		t.Fatalf("expected not_in_cart, got %s", status)
	}
}

func TestRemoveItemWithoutCart(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	userID := insertUser(ctx, t, pool, "jo@example.com")
	itemID := insertItem(ctx, t, pool, "wool-sweater", 4999, nil)
	repo := NewPostgres(pool, nil)

	status, err := repo.RemoveItem(ctx, userID, itemID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if status != domain.StatusNoOpenCart {
		t.Fatalf("expected no_open_cart, got %s", status)
	}
}

// Concurrent adds must collapse onto one cart and one line; the partial
// unique indexes arbitrate, not application reads.
func TestAddItemConcurrentDedup(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	userID := insertUser(ctx, t, pool, "jo@example.com")
	itemID := insertItem(ctx, t, pool, "wool-sweater", 4999, nil)
	repo := NewPostgres(pool, nil)

	const adds = 8
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < adds; i++ {
		g.Go(func() error {
			_, err := repo.AddItem(gctx, userID, itemID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent adds: %v", err)
	}

	var cartCount, lineCount, quantity int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM carts WHERE user_id = $1 AND NOT finalized`, userID).Scan(&cartCount); err != nil {
		t.Fatalf("count carts: %v", err)
	}
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM cart_lines WHERE user_id = $1 AND NOT finalized`,
		userID).Scan(&lineCount, &quantity); err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if cartCount != 1 {
		t.Fatalf("expected 1 open cart, got %d", cartCount)
	}
	if lineCount != 1 || quantity != adds {
		t.Fatalf("expected 1 line with quantity %d, got %d lines quantity %d", adds, lineCount, quantity)
	}
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	userID := insertUser(ctx, t, pool, "jo@example.com")
	discount := int64(2399)
	itemID := insertItem(ctx, t, pool, "linen-shirt", 2999, &discount)
	repo := NewPostgres(pool, nil)

	if _, err := repo.AddItem(ctx, userID, itemID); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := repo.GetOpenByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetOpenByUser: %v", err)
	}

	// Billing address is a precondition.
	if _, err := repo.Finalize(ctx, cart.ID, FinalizeInput{UserID: userID, AmountCents: 2399, Provider: domain.ProviderStripe, ChargeID: "ch_1"}); !errors.Is(err, domain.ErrCartNotReady) {
		t.Fatalf("expected ErrCartNotReady without billing address, got %v", err)
	}

	addrID := insertBillingAddress(ctx, t, pool, userID)
	if err := repo.SetAddress(ctx, cart.ID, domain.AddressBilling, addrID); err != nil {
		t.Fatalf("SetAddress: %v", err)
	}

	final, err := repo.Finalize(ctx, cart.ID, FinalizeInput{UserID: userID, AmountCents: 2399, Provider: domain.ProviderStripe, ChargeID: "ch_1"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !final.Finalized || final.ReferenceCode == nil || len(*final.ReferenceCode) != 20 {
		t.Fatalf("unexpected finalized cart: %+v", final)
	}
	if final.PaymentID == nil {
		t.Fatal("expected payment attached")
	}
	if len(final.Lines) != 1 || !final.Lines[0].Finalized {
		t.Fatalf("expected finalized line, got %+v", final.Lines)
	}
	// The discounted unit price is snapshotted onto the line.
	if final.Lines[0].UnitPriceCents == nil || *final.Lines[0].UnitPriceCents != 2399 {
		t.Fatalf("expected snapshot 2399, got %+v", final.Lines[0].UnitPriceCents)
	}

	// Replays see the already-finalized cart.
	if _, err := repo.Finalize(ctx, cart.ID, FinalizeInput{UserID: userID, AmountCents: 2399, Provider: domain.ProviderStripe, ChargeID: "ch_1"}); !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("expected ErrAlreadyFinalized on replay, got %v", err)
	}

	// The user has no open cart anymore; a new add opens a fresh one.
	if _, err := repo.GetOpenByUser(ctx, userID); !errors.Is(err, domain.ErrNoOpenCart) {
		t.Fatalf("expected ErrNoOpenCart, got %v", err)
	}
	if _, err := repo.AddItem(ctx, userID, itemID); err != nil {
		t.Fatalf("AddItem after finalize: %v", err)
	}
	fresh, err := repo.GetOpenByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetOpenByUser after finalize: %v", err)
	}
	if fresh.ID == cart.ID {
		t.Fatal("expected a fresh cart after finalization")
	}
}

// Exactly one of two racing finalizations may win.
func TestFinalizeConcurrent(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	userID := insertUser(ctx, t, pool, "jo@example.com")
	itemID := insertItem(ctx, t, pool, "wool-sweater", 4999, nil)
	repo := NewPostgres(pool, nil)

	if _, err := repo.AddItem(ctx, userID, itemID); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := repo.GetOpenByUser(ctx, userID)
	if err != nil {
		t.Fatalf("GetOpenByUser: %v", err)
	}
	addrID := insertBillingAddress(ctx, t, pool, userID)
	if err := repo.SetAddress(ctx, cart.ID, domain.AddressBilling, addrID); err != nil {
		t.Fatalf("SetAddress: %v", err)
	}

	results := make(chan error, 2)
	g := new(errgroup.Group)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := repo.Finalize(ctx, cart.ID, FinalizeInput{UserID: userID, AmountCents: 4999, Provider: domain.ProviderSSLCommerz, ChargeID: "tx-1"})
			results <- err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	close(results)

	var wins, replays int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrAlreadyFinalized):
			replays++
		default:
			t.Fatalf("unexpected finalize error: %v", err)
		}
	}
	if wins != 1 || replays != 1 {
		t.Fatalf("expected exactly one winner, got %d wins and %d replays", wins, replays)
	}

	var payments int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE charge_id = 'tx-1'`).Scan(&payments); err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if payments != 1 {
		t.Fatalf("expected exactly one payment row, got %d", payments)
	}
}

func TestSetFlagsAndReference(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	userID := insertUser(ctx, t, pool, "jo@example.com")
	itemID := insertItem(ctx, t, pool, "wool-sweater", 4999, nil)
	repo := NewPostgres(pool, nil)

	if _, err := repo.AddItem(ctx, userID, itemID); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, _ := repo.GetOpenByUser(ctx, userID)
	addrID := insertBillingAddress(ctx, t, pool, userID)
	if err := repo.SetAddress(ctx, cart.ID, domain.AddressBilling, addrID); err != nil {
		t.Fatalf("SetAddress: %v", err)
	}
	final, err := repo.Finalize(ctx, cart.ID, FinalizeInput{UserID: userID, AmountCents: 4999, Provider: domain.ProviderStripe, ChargeID: "ch_9"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	ref := *final.ReferenceCode
	byRef, err := repo.GetByReference(ctx, ref)
	if err != nil {
		t.Fatalf("GetByReference: %v", err)
	}
	if byRef.ID != final.ID {
		t.Fatalf("reference lookup mismatch: %s vs %s", byRef.ID, final.ID)
	}

	if err := repo.SetBeingDelivered(ctx, ref); err != nil {
		t.Fatalf("SetBeingDelivered: %v", err)
	}
	if err := repo.SetReceived(ctx, ref); err != nil {
		t.Fatalf("SetReceived: %v", err)
	}
	if err := repo.SetBeingDelivered(ctx, "NOSUCHREF"); !errors.Is(err, domain.ErrUnknownOrder) {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}

	orders, err := repo.ListFinalizedByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListFinalizedByUser: %v", err)
	}
	if len(orders) != 1 || !orders[0].BeingDelivered || !orders[0].Received {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}
