package services

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront-kit/engine/internal/domain"
)

type stubCatalogSource struct {
	products []domain.Product
	err      error
	calls    int
}

func (s *stubCatalogSource) FetchAll(context.Context) ([]domain.Product, error) {
	s.calls++
	return s.products, s.err
}

func TestCatalogInitializeLoadsFromSource(t *testing.T) {
	source := &stubCatalogSource{products: []domain.Product{
		testProduct("p1", 10),
		testProduct("p2", 20),
	}}
	catalog := NewCatalogService(CatalogServiceDeps{Source: source})

	if err := catalog.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one fetch, got %d", source.calls)
	}
	if got := len(catalog.Products()); got != 2 {
		t.Fatalf("expected 2 products, got %d", got)
	}
}

func TestCatalogInitializePropagatesSourceFailure(t *testing.T) {
	sourceErr := errors.New("backend unavailable")
	catalog := NewCatalogService(CatalogServiceDeps{Source: &stubCatalogSource{err: sourceErr}})

	err := catalog.Initialize(context.Background())
	if !errors.Is(err, sourceErr) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if got := len(catalog.Products()); got != 0 {
		t.Fatalf("a failed initialize must leave the catalog empty, got %d products", got)
	}
}

func TestCatalogInitializeRequiresSource(t *testing.T) {
	catalog := NewCatalogService(CatalogServiceDeps{})
	if err := catalog.Initialize(context.Background()); !errors.Is(err, ErrCatalogSourceRequired) {
		t.Fatalf("expected ErrCatalogSourceRequired, got %v", err)
	}
}

func TestCatalogAddUpdateRemove(t *testing.T) {
	catalog := NewCatalogService(CatalogServiceDeps{})

	if err := catalog.AddProduct(testProduct("p1", 10)); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if err := catalog.AddProduct(testProduct("p1", 10)); !errors.Is(err, ErrCatalogDuplicateID) {
		t.Fatalf("expected ErrCatalogDuplicateID, got %v", err)
	}
	if err := catalog.AddProduct(domain.Product{Price: 10}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput for missing ID, got %v", err)
	}

	updated := testProduct("p1", 15)
	if err := catalog.UpdateProduct(updated); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	got, ok := catalog.ProductByID("p1")
	if !ok || got.Price != 15 {
		t.Fatalf("expected updated price 15, got %+v ok=%v", got, ok)
	}

	if err := catalog.UpdateProduct(testProduct("missing", 1)); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound on update, got %v", err)
	}

	if err := catalog.RemoveProduct("p1"); err != nil {
		t.Fatalf("RemoveProduct: %v", err)
	}
	if err := catalog.RemoveProduct("p1"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound on second remove, got %v", err)
	}
}

func TestCatalogSetProductsRejectsDuplicates(t *testing.T) {
	catalog := NewCatalogService(CatalogServiceDeps{})

	err := catalog.SetProducts([]domain.Product{testProduct("p1", 10), testProduct("p1", 20)})
	if !errors.Is(err, ErrCatalogDuplicateID) {
		t.Fatalf("expected ErrCatalogDuplicateID, got %v", err)
	}
	if got := len(catalog.Products()); got != 0 {
		t.Fatalf("a rejected SetProducts must not apply partially, got %d products", got)
	}
}

func TestCatalogLookups(t *testing.T) {
	catalog := NewCatalogService(CatalogServiceDeps{})
	kettle := testProduct("p1", 48)
	kettle.CategoryID = "kitchen"
	kettle.Tags = []string{"coffee"}
	apron := testProduct("p2", 39)
	apron.CategoryID = "apparel"

	if err := catalog.SetProducts([]domain.Product{kettle, apron}); err != nil {
		t.Fatalf("SetProducts: %v", err)
	}

	if _, ok := catalog.ProductByID("p1"); !ok {
		t.Fatalf("expected to find p1 by ID")
	}
	if _, ok := catalog.ProductBySKU("SKU-p2"); !ok {
		t.Fatalf("expected to find p2 by SKU")
	}
	if _, ok := catalog.ProductBySKU(""); ok {
		t.Fatalf("an empty SKU must never match")
	}
	if got := catalog.ProductsByCategory("kitchen"); len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("unexpected category lookup result: %+v", got)
	}
	if got := catalog.ProductsByTag("coffee"); len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("unexpected tag lookup result: %+v", got)
	}
	if got := catalog.ProductsByTag("missing"); len(got) != 0 {
		t.Fatalf("expected no matches for unknown tag, got %+v", got)
	}
}

func TestCatalogReturnsIsolatedCopies(t *testing.T) {
	catalog := NewCatalogService(CatalogServiceDeps{})
	kettle := testProduct("p1", 48)
	kettle.Tags = []string{"coffee"}
	if err := catalog.SetProducts([]domain.Product{kettle}); err != nil {
		t.Fatalf("SetProducts: %v", err)
	}

	got, _ := catalog.ProductByID("p1")
	got.Tags[0] = "mutated"
	got.Price = 0

	current, _ := catalog.ProductByID("p1")
	if current.Tags[0] != "coffee" || current.Price != 48 {
		t.Fatalf("mutating a returned product leaked into the catalog: %+v", current)
	}
}

func TestCatalogSubscribe(t *testing.T) {
	catalog := NewCatalogService(CatalogServiceDeps{})

	notifications := 0
	unsubscribe := catalog.Subscribe(func(domain.CatalogState) { notifications++ })

	if err := catalog.AddProduct(testProduct("p1", 10)); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if err := catalog.RemoveProduct("p1"); err != nil {
		t.Fatalf("RemoveProduct: %v", err)
	}
	if notifications != 2 {
		t.Fatalf("expected 2 notifications, got %d", notifications)
	}

	unsubscribe()
	if err := catalog.AddProduct(testProduct("p2", 5)); err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if notifications != 2 {
		t.Fatalf("unsubscribed listener still notified")
	}
}
