package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	couponrepo "storefront/internal/repository/coupon"
	itemrepo "storefront/internal/repository/item"
	"github.com/jackc/pgx/v5/pgxpool"
)

type itemSeed struct {
	Name          string
	Slug          string
	Category      string
	PriceCents    int64
	DiscountCents *int64
	Label         domain.ItemLabel
	Description   string
}

// Apply inserts basic seed data for manual testing. It is idempotent via the
// repositories' ON CONFLICT upserts.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	items := itemrepo.NewPostgres(pool, nil)
	coupons := couponrepo.NewPostgres(pool)

	discount := func(cents int64) *int64 { return &cents }

	seeds := []itemSeed{
		{
			Name:        "Wool Sweater",
			Slug:        "wool-sweater",
			Category:    "Outwear",
			PriceCents:  4999,
			Label:       domain.LabelPrimary,
			Description: "Heavy knit for cold mornings",
		},
		{
			Name:          "Linen Shirt",
			Slug:          "linen-shirt",
			Category:      "Shirts",
			PriceCents:    2999,
			DiscountCents: discount(2399),
			Label:         domain.LabelSecondary,
			Description:   "Breathable summer shirt",
		},
		{
			Name:        "Canvas Sneakers",
			Slug:        "canvas-sneakers",
			Category:    "Shoes",
			PriceCents:  3599,
			Label:       domain.LabelDanger,
			Description: "Low-top, rubber sole",
		},
	}

	catIDs := map[string]string{}
	for _, s := range seeds {
		catID, ok := catIDs[s.Category]
		if !ok {
			cat, err := items.EnsureCategory(ctx, s.Category)
			if err != nil {
				return fmt.Errorf("ensure category %s: %w", s.Category, err)
			}
			catID = cat.ID
			catIDs[s.Category] = catID
		}

		if _, err := items.Upsert(ctx, domain.Item{
			Name:               s.Name,
			CategoryID:         catID,
			PriceCents:         s.PriceCents,
			DiscountPriceCents: s.DiscountCents,
			Label:              s.Label,
			Slug:               s.Slug,
			Description:        s.Description,
		}); err != nil {
			return fmt.Errorf("upsert item %s: %w", s.Slug, err)
		}
	}

	for _, c := range []domain.Coupon{
		{Code: "WELCOME5", AmountCents: 500},
		{Code: "BIGSPENDER", AmountCents: 2000},
	} {
		if _, err := coupons.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}

	return nil
}
