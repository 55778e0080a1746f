package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/platform/httpx"
	"github.com/storefront-kit/engine/internal/services"
)

type productPayload struct {
	ID          string   `json:"id"`
	SKU         string   `json:"sku,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Image       string   `json:"image,omitempty"`
	CategoryID  string   `json:"categoryId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	InStock     *bool    `json:"inStock,omitempty"`
}

func buildProductPayload(p domain.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		Tags:        p.Tags,
		Stock:       p.Stock,
		InStock:     p.InStock,
	}
}

func (p productPayload) toDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		CategoryID:  p.CategoryID,
		Tags:        p.Tags,
		Stock:       p.Stock,
		InStock:     p.InStock,
	}
}

type cartItemPayload struct {
	ID       string         `json:"id"`
	Product  productPayload `json:"product"`
	Quantity int            `json:"quantity"`
	AddedAt  time.Time      `json:"addedAt"`
}

type cartPayload struct {
	Items     []cartItemPayload `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

func buildCartPayload(state domain.CartState) cartPayload {
	items := make([]cartItemPayload, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, cartItemPayload{
			ID:       item.ID,
			Product:  buildProductPayload(item.Product),
			Quantity: item.Quantity,
			AddedAt:  item.AddedAt,
		})
	}
	return cartPayload{Items: items, Total: state.Total, ItemCount: state.ItemCount}
}

type wishlistItemPayload struct {
	ID       string         `json:"id"`
	Product  productPayload `json:"product"`
	Notes    string         `json:"notes,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	AddedAt  time.Time      `json:"addedAt"`
}

type wishlistPayload struct {
	Items     []wishlistItemPayload `json:"items"`
	ItemCount int                   `json:"itemCount"`
}

func buildWishlistPayload(state domain.WishlistState) wishlistPayload {
	items := make([]wishlistItemPayload, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, wishlistItemPayload{
			ID:       item.ID,
			Product:  buildProductPayload(item.Product),
			Notes:    item.Notes,
			Metadata: item.Metadata,
			AddedAt:  item.AddedAt,
		})
	}
	return wishlistPayload{Items: items, ItemCount: state.ItemCount()}
}

type addressPayload struct {
	RecipientName string `json:"recipientName"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	Phone         string `json:"phone,omitempty"`
}

func (a addressPayload) toDomain() domain.Address {
	return domain.Address{
		RecipientName: a.RecipientName,
		Street:        a.Street,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		Phone:         a.Phone,
	}
}

type sessionPayload struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shippingCost"`
	TaxRate         float64         `json:"taxRate"`
	Total           float64         `json:"total"`
	CartID          string          `json:"cartId,omitempty"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
	ShippingAddress *addressPayload `json:"shippingAddress,omitempty"`
	BillingAddress  *addressPayload `json:"billingAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func buildSessionPayload(session domain.CheckoutSession) sessionPayload {
	payload := sessionPayload{
		ID:              session.ID,
		Status:          string(session.Status),
		Subtotal:        session.Subtotal,
		ShippingCost:    session.ShippingCost,
		TaxRate:         session.TaxRate,
		Total:           session.Total,
		CartID:          session.CartID,
		PaymentIntentID: session.PaymentIntentID,
		PaymentMethod:   session.PaymentMethod,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
	if session.ShippingAddress != nil {
		addr := buildAddressPayload(*session.ShippingAddress)
		payload.ShippingAddress = &addr
	}
	if session.BillingAddress != nil {
		addr := buildAddressPayload(*session.BillingAddress)
		payload.BillingAddress = &addr
	}
	return payload
}

func buildAddressPayload(a domain.Address) addressPayload {
	return addressPayload{
		RecipientName: a.RecipientName,
		Street:        a.Street,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		Phone:         a.Phone,
	}
}

type validationPayload struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func buildValidationPayload(result domain.ValidationResult) validationPayload {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return validationPayload{Valid: result.Valid, Errors: errs}
}

// writeServiceError maps the engine's error taxonomy onto HTTP statuses.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput),
		errors.Is(err, services.ErrWishlistInvalidInput),
		errors.Is(err, services.ErrCatalogInvalidInput),
		errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_input", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogDuplicateID):
		httpx.WriteError(ctx, w, httpx.NewError("duplicate_id", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutNoSession),
		errors.Is(err, services.ErrCheckoutInvalidState),
		errors.Is(err, services.ErrCheckoutPaymentInFlight):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_state", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("collaborator_failure", err.Error(), http.StatusBadGateway))
	}
}
