// Package catalog provides the catalog-source collaborators the product
// manager loads its initial product set from.
package catalog

import (
	"context"

	"github.com/storefront-kit/engine/internal/domain"
)

// StaticSource serves a fixed product list, typically for tests, demos, and
// embedded catalogs shipped with the binary.
type StaticSource struct {
	products []domain.Product
}

// NewStaticSource constructs a source over a copy of the supplied products.
func NewStaticSource(products []domain.Product) *StaticSource {
	copied := make([]domain.Product, len(products))
	for i, product := range products {
		copied[i] = product.Clone()
	}
	return &StaticSource{products: copied}
}

// FetchAll returns deep copies of the configured products.
func (s *StaticSource) FetchAll(_ context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s.products))
	for i, product := range s.products {
		out[i] = product.Clone()
	}
	return out, nil
}
