// Package services contains the storefront state managers: cart, wishlist,
// catalog, checkout, and cart history. Managers exclusively own their state;
// callers receive deep-copied snapshots and mutate only through manager
// methods. Subscriptions deliver snapshots synchronously on the mutating
// goroutine, so listeners must not call mutating methods re-entrantly.
package services

import (
	"context"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/payments"
)

// EventLogger receives structured service events for observability.
type EventLogger func(ctx context.Context, event string, fields map[string]any)

// CartService owns the cart state: ordered line items plus derived totals.
type CartService interface {
	// AddItem merges the product into an existing line (incrementing its
	// quantity) or appends a new line when the product is not in the cart.
	AddItem(product domain.Product, quantity int) (domain.CartState, error)
	// RemoveItem deletes the line; an absent item ID is a silent no-op.
	RemoveItem(itemID string) domain.CartState
	// UpdateQuantity sets the line quantity absolutely; a quantity of zero or
	// less removes the line.
	UpdateQuantity(itemID string, quantity int) domain.CartState
	// Clear resets the cart to empty.
	Clear() domain.CartState
	// ReplaceState swaps in a full snapshot, recomputing derived totals. Used
	// by cross-context synchronization.
	ReplaceState(state domain.CartState) domain.CartState
	// State returns a deep copy of the current snapshot.
	State() domain.CartState
	// Subscribe registers a listener for every mutation; the returned
	// function removes it and is idempotent.
	Subscribe(fn func(domain.CartState)) func()
}

// WishlistService owns the wishlist state, at most one item per product.
type WishlistService interface {
	// AddItem appends the product unless it is already saved, in which case
	// the call is a no-op.
	AddItem(product domain.Product, notes string, metadata map[string]any) (domain.WishlistState, error)
	// RemoveItem deletes the item; an absent item ID is a silent no-op.
	RemoveItem(itemID string) domain.WishlistState
	// RemoveProduct deletes the item saved for the product, tolerating absence.
	RemoveProduct(productID string) domain.WishlistState
	HasProduct(productID string) bool
	ItemByProductID(productID string) (domain.WishlistItem, bool)
	// UpdateItemNotes replaces only the notes field of the matching item.
	UpdateItemNotes(itemID string, notes string) domain.WishlistState
	Clear() domain.WishlistState
	State() domain.WishlistState
	Subscribe(fn func(domain.WishlistState)) func()
}

// CatalogService owns the in-memory product catalog and its query surface.
type CatalogService interface {
	// Initialize loads the catalog from the injected source.
	Initialize(ctx context.Context) error
	// AddProduct appends a product; an existing ID is rejected.
	AddProduct(product domain.Product) error
	// UpdateProduct replaces the product with a matching ID; absence is rejected.
	UpdateProduct(product domain.Product) error
	// RemoveProduct deletes the product; absence is rejected.
	RemoveProduct(productID string) error
	// SetProducts replaces the whole catalog.
	SetProducts(products []domain.Product) error
	ProductByID(productID string) (domain.Product, bool)
	ProductBySKU(sku string) (domain.Product, bool)
	ProductsByCategory(categoryID string) []domain.Product
	ProductsByTag(tag string) []domain.Product
	Products() []domain.Product
	// Search runs the pure filter/sort/paginate pipeline over the catalog.
	Search(opts SearchOptions) domain.SearchResult
	State() domain.CatalogState
	Subscribe(fn func(domain.CatalogState)) func()
}

// CheckoutService drives the checkout session state machine. The only
// suspending operations are the payment calls, which delegate to the injected
// provider; their failures never mutate session status.
type CheckoutService interface {
	InitializeSession(subtotal float64, cartID string, metadata map[string]any) (domain.CheckoutSession, error)
	// SetShippingAddress validates and attaches the address. Validation
	// failures are returned as data and leave the session untouched; the
	// error return fires only for state violations such as a missing session.
	SetShippingAddress(address domain.Address) (domain.ValidationResult, error)
	SetBillingAddress(address domain.Address) (domain.ValidationResult, error)
	SetPaymentMethod(method string) error
	// UpdateTotals recomputes total = subtotal + shipping + subtotal*taxRate,
	// treating nil shipping/taxRate as zero.
	UpdateTotals(subtotal float64, shipping *float64, taxRate *float64) (domain.CheckoutSession, error)
	// CreatePayment obtains a payment intent from the provider and moves the
	// session to processing. On provider failure the session stays pending.
	CreatePayment(ctx context.Context) (payments.Intent, error)
	// ProcessPayment confirms the payment: success completes the session, an
	// explicit decline fails it, and a transport error changes nothing.
	ProcessPayment(ctx context.Context, paymentID string) (payments.Result, error)
	// VerifyPayment re-checks the payment with the same transition rules as
	// ProcessPayment.
	VerifyPayment(ctx context.Context, paymentID string) (payments.Result, error)
	// Cancel moves a pending or processing session to cancelled. It is a
	// no-op on an already-cancelled session and rejected from completed or
	// failed.
	Cancel() error
	// Reset discards the session entirely, regardless of status.
	Reset()
	// ValidateCheckout reports whether the session is ready for payment.
	ValidateCheckout() domain.ValidationResult
	Session() (domain.CheckoutSession, bool)
}
