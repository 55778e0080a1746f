package domain

import (
	"time"
)

// SortOrder indicates ascending or descending ordering for catalog queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// Product describes a single catalog entry. Price is a currency-agnostic
// non-negative unit; formatting and rounding are presentation concerns.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Price       float64
	Image       string
	CategoryID  string
	Tags        []string
	Stock       *int
	InStock     *bool
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	out := p
	if len(p.Tags) > 0 {
		out.Tags = append([]string(nil), p.Tags...)
	}
	if p.Stock != nil {
		stock := *p.Stock
		out.Stock = &stock
	}
	if p.InStock != nil {
		inStock := *p.InStock
		out.InStock = &inStock
	}
	return out
}

// Available reports whether the product can currently be purchased. The
// explicit InStock flag wins over the stock counter; products carrying
// neither are treated as available.
func (p Product) Available() bool {
	if p.InStock != nil {
		return *p.InStock
	}
	if p.Stock != nil {
		return *p.Stock > 0
	}
	return true
}

// CartItem is one cart line. Its ID is distinct from the product ID so that
// variant-differentiated duplicates of a product can become separate lines
// later without a schema change.
type CartItem struct {
	ID       string
	Product  Product
	Quantity int
	AddedAt  time.Time
}

// Clone returns a deep copy of the cart item.
func (i CartItem) Clone() CartItem {
	out := i
	out.Product = i.Product.Clone()
	return out
}

// CartState is the full cart snapshot. Total and ItemCount are always
// recomputed from Items so they cannot drift.
type CartState struct {
	Items     []CartItem
	Total     float64
	ItemCount int
}

// Clone returns a deep copy of the cart state.
func (s CartState) Clone() CartState {
	out := s
	if s.Items != nil {
		out.Items = make([]CartItem, len(s.Items))
		for idx, item := range s.Items {
			out.Items[idx] = item.Clone()
		}
	}
	return out
}

// WishlistItem stores a saved product with optional caller-supplied notes.
type WishlistItem struct {
	ID       string
	Product  Product
	Notes    string
	Metadata map[string]any
	AddedAt  time.Time
}

// Clone returns a deep copy of the wishlist item.
func (i WishlistItem) Clone() WishlistItem {
	out := i
	out.Product = i.Product.Clone()
	out.Metadata = CloneAnyMap(i.Metadata)
	return out
}

// WishlistState is the full wishlist snapshot. At most one item exists per
// product ID.
type WishlistState struct {
	Items []WishlistItem
}

// ItemCount reports the number of saved items.
func (s WishlistState) ItemCount() int {
	return len(s.Items)
}

// Clone returns a deep copy of the wishlist state.
func (s WishlistState) Clone() WishlistState {
	out := s
	if s.Items != nil {
		out.Items = make([]WishlistItem, len(s.Items))
		for idx, item := range s.Items {
			out.Items[idx] = item.Clone()
		}
	}
	return out
}

// CatalogState is the product catalog snapshot in insertion order.
type CatalogState struct {
	Products []Product
}

// Clone returns a deep copy of the catalog state.
func (s CatalogState) Clone() CatalogState {
	out := s
	if s.Products != nil {
		out.Products = make([]Product, len(s.Products))
		for idx, product := range s.Products {
			out.Products[idx] = product.Clone()
		}
	}
	return out
}

// Address captures a shipping or billing destination.
type Address struct {
	RecipientName string
	Street        string
	City          string
	State         string
	PostalCode    string
	Country       string
	Phone         string
}

// CheckoutStatus enumerates the checkout session lifecycle states.
type CheckoutStatus string

const (
	// CheckoutStatusPending indicates the session collects addresses and payment details.
	CheckoutStatusPending CheckoutStatus = "pending"
	// CheckoutStatusProcessing indicates a payment intent exists and awaits confirmation.
	CheckoutStatusProcessing CheckoutStatus = "processing"
	// CheckoutStatusCompleted indicates payment succeeded; the session is terminal.
	CheckoutStatusCompleted CheckoutStatus = "completed"
	// CheckoutStatusFailed indicates payment was declined; the session is terminal.
	CheckoutStatusFailed CheckoutStatus = "failed"
	// CheckoutStatusCancelled indicates the caller abandoned the session.
	CheckoutStatusCancelled CheckoutStatus = "cancelled"
)

// Terminal reports whether no further payment transitions are possible.
func (s CheckoutStatus) Terminal() bool {
	switch s {
	case CheckoutStatusCompleted, CheckoutStatusFailed, CheckoutStatusCancelled:
		return true
	}
	return false
}

// CheckoutSession aggregates the state collected while a customer moves
// through address, payment, and confirmation steps.
type CheckoutSession struct {
	ID              string
	Status          CheckoutStatus
	Subtotal        float64
	ShippingCost    float64
	TaxRate         float64
	Total           float64
	CartID          string
	PaymentIntentID string
	ShippingAddress *Address
	BillingAddress  *Address
	PaymentMethod   string
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy of the session.
func (s CheckoutSession) Clone() CheckoutSession {
	out := s
	if s.ShippingAddress != nil {
		addr := *s.ShippingAddress
		out.ShippingAddress = &addr
	}
	if s.BillingAddress != nil {
		addr := *s.BillingAddress
		out.BillingAddress = &addr
	}
	out.Metadata = CloneAnyMap(s.Metadata)
	return out
}

// CartHistoryEntry is one append-only snapshot of a cart state. State is a
// deep copy, so later cart mutation cannot corrupt the entry.
type CartHistoryEntry struct {
	ID        string
	Label     string
	Metadata  map[string]any
	State     CartState
	CreatedAt time.Time
}

// Clone returns a deep copy of the history entry.
func (e CartHistoryEntry) Clone() CartHistoryEntry {
	out := e
	out.Metadata = CloneAnyMap(e.Metadata)
	out.State = e.State.Clone()
	return out
}

// SearchResult carries one page of a catalog query together with the match
// totals for the whole result set.
type SearchResult struct {
	Products   []Product
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ValidationResult is the structured outcome of a non-throwing validation.
// Failures are data, not errors; Errors lists human-readable reasons.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// CloneAnyMap shallow-copies a metadata map, preserving nil.
func CloneAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
