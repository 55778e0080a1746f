package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-kit/engine/internal/platform/httpx"
	"github.com/storefront-kit/engine/internal/platform/observability"
	"github.com/storefront-kit/engine/internal/services"
)

// CartHandlers exposes the cart manager over HTTP. Products are resolved
// through the catalog so the wire payload only carries product IDs.
type CartHandlers struct {
	cart    services.CartService
	catalog services.CatalogService
	metrics *observability.EngineMetrics
}

// NewCartHandlers constructs the cart route group.
func NewCartHandlers(cart services.CartService, catalog services.CatalogService, metrics *observability.EngineMetrics) *CartHandlers {
	return &CartHandlers{cart: cart, catalog: catalog, metrics: metrics}
}

// Routes registers the cart endpoints.
func (h *CartHandlers) Routes(r chi.Router) {
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items/{itemID}", h.updateQuantity)
	r.Delete("/items/{itemID}", h.removeItem)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(h.cart.State()))
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, ok := h.catalog.ProductByID(strings.TrimSpace(req.ProductID))
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "product not found", http.StatusNotFound))
		return
	}

	state, err := h.cart.AddItem(product, req.Quantity)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.metrics.RecordCartMutation(ctx, "add_item")
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(state))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	state := h.cart.UpdateQuantity(chi.URLParam(r, "itemID"), req.Quantity)
	h.metrics.RecordCartMutation(ctx, "update_quantity")
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(state))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	state := h.cart.RemoveItem(chi.URLParam(r, "itemID"))
	h.metrics.RecordCartMutation(r.Context(), "remove_item")
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(state))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	state := h.cart.Clear()
	h.metrics.RecordCartMutation(r.Context(), "clear")
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(state))
}
