package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"
)

type ItemWriter interface {
	Upsert(ctx context.Context, it domain.Item) (*domain.Item, error)
}

type CategoryWriter interface {
	EnsureCategory(ctx context.Context, name string) (*domain.Category, error)
}

// Kind identifies what a CSV file contains.
type Kind string

const (
	KindItems      Kind = "items"
	KindCategories Kind = "categories"
)

// DetectKind peeks at the header row to decide what the file holds. Item
// exports carry slug and price columns, category exports just names.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(bufio.NewReader(r)).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	idx := headerIndex(headers)
	if _, ok := idx["slug"]; ok {
		if _, ok := idx["price_cents"]; ok {
			return KindItems, nil
		}
	}
	if _, ok := idx["name"]; ok {
		return KindCategories, nil
	}
	return "", fmt.Errorf("unrecognized csv headers: %v", headers)
}

// CSVImporter loads catalog exports into the item and category tables.
type CSVImporter struct {
	reader     *csv.Reader
	items      ItemWriter
	categories CategoryWriter
}

func NewCSVImporter(r io.Reader, items ItemWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:     csvr,
		items:      items,
		categories: categories,
	}
}

// Run parses the file and upserts its rows, returning how many were written.
// The kind is detected from the header row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	if _, ok := index["price_cents"]; ok {
		return i.runItems(ctx, index)
	}
	return i.runCategories(ctx, index)
}

func (i *CSVImporter) runItems(ctx context.Context, index map[string]int) (int, error) {
	// Category names resolve to ids once, not per row.
	catIDs := map[string]string{}
	imported := 0

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseItemRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		catID, ok := catIDs[row.category]
		if !ok {
			cat, err := i.categories.EnsureCategory(ctx, row.category)
			if err != nil {
				return imported, fmt.Errorf("ensure category %q: %w", row.category, err)
			}
			catID = cat.ID
			catIDs[row.category] = catID
		}

		it := domain.Item{
			Name:               row.name,
			CategoryID:         catID,
			PriceCents:         row.priceCents,
			DiscountPriceCents: row.discountCents,
			Label:              row.label,
			Slug:               row.slug,
			Description:        row.description,
		}
		if _, err := i.items.Upsert(ctx, it); err != nil {
			return imported, fmt.Errorf("upsert item %q: %w", row.slug, err)
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) runCategories(ctx context.Context, index map[string]int) (int, error) {
	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		name := pick(record, index, "name")
		if name == "" {
			continue
		}
		if _, err := i.categories.EnsureCategory(ctx, name); err != nil {
			return imported, fmt.Errorf("ensure category %q: %w", name, err)
		}
		imported++
	}
	return imported, nil
}

type itemRow struct {
	name          string
	slug          string
	category      string
	priceCents    int64
	discountCents *int64
	label         domain.ItemLabel
	description   string
}

func parseItemRow(record []string, index map[string]int) (*itemRow, error) {
	name := pick(record, index, "name")
	slug := pick(record, index, "slug")
	if name == "" && slug == "" {
		return nil, nil
	}
	if name == "" || slug == "" {
		return nil, fmt.Errorf("item row needs both name and slug, got name=%q slug=%q", name, slug)
	}
	category := pick(record, index, "category")
	if category == "" {
		return nil, fmt.Errorf("item %q has no category", slug)
	}

	priceStr := pick(record, index, "price_cents")
	price, err := strconv.ParseInt(priceStr, 10, 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("item %q has invalid price_cents %q", slug, priceStr)
	}

	var discount *int64
	if s := pick(record, index, "discount_price_cents"); s != "" {
		d, err := strconv.ParseInt(s, 10, 64)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("item %q has invalid discount_price_cents %q", slug, s)
		}
		discount = &d
	}

	label := domain.ItemLabel(pick(record, index, "label"))
	switch label {
	case domain.LabelPrimary, domain.LabelSecondary, domain.LabelDanger:
	case "":
		label = domain.LabelPrimary
	default:
		return nil, fmt.Errorf("item %q has unknown label %q", slug, label)
	}

	return &itemRow{
		name:          name,
		slug:          slug,
		category:      category,
		priceCents:    price,
		discountCents: discount,
		label:         label,
		description:   pick(record, index, "description"),
	}, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
