package importer

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/domain"
)

type stubItemRepo struct {
	items []domain.Item
}

func (s *stubItemRepo) Upsert(_ context.Context, it domain.Item) (*domain.Item, error) {
	s.items = append(s.items, it)
	return &it, nil
}

type stubCategoryRepo struct {
	ensured []string
}

func (s *stubCategoryRepo) EnsureCategory(_ context.Context, name string) (*domain.Category, error) {
	s.ensured = append(s.ensured, name)
	return &domain.Category{ID: "cat-" + name, Name: name}, nil
}

func TestCSVImporter_RunItems(t *testing.T) {
	csvData := `name,slug,category,price_cents,discount_price_cents,label,description
Wool Sweater,wool-sweater,Outwear,4999,3999,primary,Warm and scratchy
Plain Mug,plain-mug,Kitchen,1299,,,Ceramic mug
`
	items := &stubItemRepo{}
	cats := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), items, cats)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 items imported, got %d", count)
	}
	if len(cats.ensured) != 2 {
		t.Fatalf("expected 2 categories ensured, got %v", cats.ensured)
	}

	first := items.items[0]
	if first.Slug != "wool-sweater" || first.PriceCents != 4999 || first.CategoryID != "cat-Outwear" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.DiscountPriceCents == nil || *first.DiscountPriceCents != 3999 {
		t.Fatalf("expected discount 3999, got %+v", first.DiscountPriceCents)
	}
	if items.items[1].Label != domain.LabelPrimary {
		t.Fatalf("expected label fallback to primary, got %s", items.items[1].Label)
	}
	if items.items[1].DiscountPriceCents != nil {
		t.Fatalf("expected no discount on second item")
	}
}

func TestCSVImporter_RunItemsReusesCategory(t *testing.T) {
	csvData := `name,slug,category,price_cents
A,a,Shirts,100
B,b,Shirts,200
`
	items := &stubItemRepo{}
	cats := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), items, cats)

	if _, err := imp.Run(context.Background()); err != nil {
		t.Fatalf("import run: %v", err)
	}
	if len(cats.ensured) != 1 {
		t.Fatalf("expected one EnsureCategory call for a repeated name, got %d", len(cats.ensured))
	}
}

func TestCSVImporter_RunItemsRejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing slug":  "name,slug,category,price_cents\nShirt,,Shirts,100\n",
		"missing cat":   "name,slug,category,price_cents\nShirt,shirt,,100\n",
		"bad price":     "name,slug,category,price_cents\nShirt,shirt,Shirts,abc\n",
		"unknown label": "name,slug,category,price_cents,label\nShirt,shirt,Shirts,100,fancy\n",
	}
	for name, data := range cases {
		imp := NewCSVImporter(strings.NewReader(data), &stubItemRepo{}, &stubCategoryRepo{})
		if _, err := imp.Run(context.Background()); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestCSVImporter_RunCategories(t *testing.T) {
	csvData := "name\nShirts\nOutwear\n\n"
	cats := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, cats)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 categories, got %d", count)
	}
}

func TestDetectKind(t *testing.T) {
	itemCSV := "name,slug,category,price_cents\nShirt,shirt,Shirts,100"
	categoryCSV := "name\nShirts"

	kind, err := DetectKind(strings.NewReader(itemCSV))
	if err != nil {
		t.Fatalf("detect item kind: %v", err)
	}
	if kind != KindItems {
		t.Fatalf("expected items kind, got %s", kind)
	}

	kind, err = DetectKind(strings.NewReader(categoryCSV))
	if err != nil {
		t.Fatalf("detect category kind: %v", err)
	}
	if kind != KindCategories {
		t.Fatalf("expected categories kind, got %s", kind)
	}

	if _, err := DetectKind(strings.NewReader("foo,bar\n1,2")); err == nil {
		t.Fatalf("expected error for unknown headers")
	}
}
