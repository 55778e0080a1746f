package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/store"
)

var (
	// ErrCatalogInvalidInput indicates a malformed product payload.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogDuplicateID indicates an insert would collide with an existing product ID.
	ErrCatalogDuplicateID = errors.New("catalog: duplicate product id")
	// ErrCatalogNotFound indicates the referenced product does not exist.
	ErrCatalogNotFound = errors.New("catalog: product not found")
	// ErrCatalogSourceRequired indicates Initialize was called without an injected source.
	ErrCatalogSourceRequired = errors.New("catalog: source is required")
)

// CatalogSource supplies the initial product set, typically a remote catalog
// or a static list.
type CatalogSource interface {
	FetchAll(ctx context.Context) ([]domain.Product, error)
}

// CatalogServiceDeps wires the catalog manager's collaborators.
type CatalogServiceDeps struct {
	Source CatalogSource
	Logger EventLogger
}

type catalogService struct {
	mu     sync.Mutex
	store  *store.Store[domain.CatalogState]
	source CatalogSource
	logger EventLogger
}

// NewCatalogService constructs an empty catalog manager. The source may be
// nil when the catalog is populated through SetProducts instead.
func NewCatalogService(deps CatalogServiceDeps) CatalogService {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{
		store:  store.New(domain.CatalogState{Products: []domain.Product{}}),
		source: deps.Source,
		logger: logger,
	}
}

// Initialize loads the catalog from the injected source, replacing any
// current contents. Source failures are propagated unchanged and leave the
// catalog untouched.
func (s *catalogService) Initialize(ctx context.Context) error {
	if s.source == nil {
		return ErrCatalogSourceRequired
	}

	products, err := s.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("catalog: fetch products: %w", err)
	}

	if err := s.SetProducts(products); err != nil {
		return err
	}
	s.logger(ctx, "catalog.initialized", map[string]any{
		"count": len(products),
	})
	return nil
}

func (s *catalogService) AddProduct(product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" || product.Price < 0 {
		return ErrCatalogInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for _, existing := range state.Products {
		if existing.ID == product.ID {
			return ErrCatalogDuplicateID
		}
	}
	state.Products = append(state.Products, product.Clone())
	s.store.SetState(state)
	return nil
}

func (s *catalogService) UpdateProduct(product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" || product.Price < 0 {
		return ErrCatalogInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for i := range state.Products {
		if state.Products[i].ID == product.ID {
			state.Products[i] = product.Clone()
			s.store.SetState(state)
			return nil
		}
	}
	return ErrCatalogNotFound
}

func (s *catalogService) RemoveProduct(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for i := range state.Products {
		if state.Products[i].ID == productID {
			state.Products = append(state.Products[:i], state.Products[i+1:]...)
			s.store.SetState(state)
			return nil
		}
	}
	return ErrCatalogNotFound
}

func (s *catalogService) SetProducts(products []domain.Product) error {
	next := domain.CatalogState{Products: make([]domain.Product, 0, len(products))}
	seen := make(map[string]struct{}, len(products))
	for _, product := range products {
		if strings.TrimSpace(product.ID) == "" || product.Price < 0 {
			return ErrCatalogInvalidInput
		}
		if _, dup := seen[product.ID]; dup {
			return ErrCatalogDuplicateID
		}
		seen[product.ID] = struct{}{}
		next.Products = append(next.Products, product.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetState(next)
	return nil
}

func (s *catalogService) ProductByID(productID string) (domain.Product, bool) {
	state := s.store.GetState()
	for _, product := range state.Products {
		if product.ID == productID {
			return product.Clone(), true
		}
	}
	return domain.Product{}, false
}

func (s *catalogService) ProductBySKU(sku string) (domain.Product, bool) {
	state := s.store.GetState()
	for _, product := range state.Products {
		if product.SKU != "" && product.SKU == sku {
			return product.Clone(), true
		}
	}
	return domain.Product{}, false
}

func (s *catalogService) ProductsByCategory(categoryID string) []domain.Product {
	state := s.store.GetState()
	out := []domain.Product{}
	for _, product := range state.Products {
		if product.CategoryID == categoryID {
			out = append(out, product.Clone())
		}
	}
	return out
}

func (s *catalogService) ProductsByTag(tag string) []domain.Product {
	state := s.store.GetState()
	out := []domain.Product{}
	for _, product := range state.Products {
		if hasTag(product, tag) {
			out = append(out, product.Clone())
		}
	}
	return out
}

func (s *catalogService) Products() []domain.Product {
	return s.store.GetState().Clone().Products
}

func (s *catalogService) Search(opts SearchOptions) domain.SearchResult {
	return Search(s.store.GetState().Products, opts)
}

func (s *catalogService) State() domain.CatalogState {
	return s.store.GetState().Clone()
}

func (s *catalogService) Subscribe(fn func(domain.CatalogState)) func() {
	if fn == nil {
		return func() {}
	}
	return s.store.Subscribe(func(state domain.CatalogState) {
		fn(state.Clone())
	})
}
