package services

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/storefront-kit/engine/internal/domain"
)

const (
	// DefaultPageSize is used when the caller omits a page size.
	DefaultPageSize = 20
	// MaxPageSize caps the page size to keep result payloads bounded.
	MaxPageSize = 100
)

// SearchSortField names a sortable product attribute.
type SearchSortField string

const (
	// SearchSortName orders by product name.
	SearchSortName SearchSortField = "name"
	// SearchSortPrice orders by product price.
	SearchSortPrice SearchSortField = "price"
)

// SearchOptions parameterise one catalog query. All filters are conjunctive.
type SearchOptions struct {
	Query      string
	CategoryID string
	Tag        string
	MinPrice   *float64
	MaxPrice   *float64
	InStock    *bool
	SortBy     SearchSortField
	SortOrder  domain.SortOrder
	Page       int
	PageSize   int
}

// Search applies, in fixed order, text matching, filters, a stable sort, and
// pagination over the supplied products. It is a pure function: the input
// slice is never reordered or mutated, and identical inputs always yield
// identical output ordering. An out-of-range page returns an empty slice with
// correct totals rather than an error.
func Search(products []domain.Product, opts SearchOptions) domain.SearchResult {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	matched := make([]domain.Product, 0, len(products))
	folder := cases.Fold()
	query := folder.String(strings.TrimSpace(opts.Query))
	for _, product := range products {
		if query != "" {
			haystack := folder.String(product.Name + "\n" + product.Description)
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		if opts.CategoryID != "" && product.CategoryID != opts.CategoryID {
			continue
		}
		if opts.Tag != "" && !hasTag(product, opts.Tag) {
			continue
		}
		if opts.MinPrice != nil && product.Price < *opts.MinPrice {
			continue
		}
		if opts.MaxPrice != nil && product.Price > *opts.MaxPrice {
			continue
		}
		if opts.InStock != nil && product.Available() != *opts.InStock {
			continue
		}
		matched = append(matched, product.Clone())
	}

	sortProducts(matched, opts.SortBy, opts.SortOrder)

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	pageItems := []domain.Product{}
	if start < total {
		end := start + pageSize
		if end > total {
			end = total
		}
		pageItems = matched[start:end]
	}

	return domain.SearchResult{
		Products:   pageItems,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

func hasTag(product domain.Product, tag string) bool {
	for _, t := range product.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// sortProducts orders in place; ties keep their original relative order.
func sortProducts(products []domain.Product, field SearchSortField, order domain.SortOrder) {
	if field == "" {
		return
	}
	desc := order == domain.SortDesc

	sort.SliceStable(products, func(i, j int) bool {
		var less bool
		switch field {
		case SearchSortPrice:
			if products[i].Price == products[j].Price {
				return false
			}
			less = products[i].Price < products[j].Price
		case SearchSortName:
			if products[i].Name == products[j].Name {
				return false
			}
			less = products[i].Name < products[j].Name
		default:
			return false
		}
		if desc {
			return !less
		}
		return less
	})
}
