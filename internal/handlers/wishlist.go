package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-kit/engine/internal/platform/httpx"
	"github.com/storefront-kit/engine/internal/services"
)

// WishlistHandlers exposes the wishlist manager over HTTP.
type WishlistHandlers struct {
	wishlist services.WishlistService
	catalog  services.CatalogService
}

// NewWishlistHandlers constructs the wishlist route group.
func NewWishlistHandlers(wishlist services.WishlistService, catalog services.CatalogService) *WishlistHandlers {
	return &WishlistHandlers{wishlist: wishlist, catalog: catalog}
}

// Routes registers the wishlist endpoints.
func (h *WishlistHandlers) Routes(r chi.Router) {
	r.Get("/", h.getWishlist)
	r.Delete("/", h.clearWishlist)
	r.Post("/items", h.addItem)
	r.Patch("/items/{itemID}", h.updateNotes)
	r.Delete("/items/{itemID}", h.removeItem)
	r.Delete("/products/{productID}", h.removeProduct)
}

func (h *WishlistHandlers) getWishlist(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, buildWishlistPayload(h.wishlist.State()))
}

type addWishlistItemRequest struct {
	ProductID string         `json:"productId"`
	Notes     string         `json:"notes"`
	Metadata  map[string]any `json:"metadata"`
}

func (h *WishlistHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addWishlistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	product, ok := h.catalog.ProductByID(strings.TrimSpace(req.ProductID))
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "product not found", http.StatusNotFound))
		return
	}

	state, err := h.wishlist.AddItem(product, req.Notes, req.Metadata)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildWishlistPayload(state))
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *WishlistHandlers) updateNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	state := h.wishlist.UpdateItemNotes(chi.URLParam(r, "itemID"), req.Notes)
	httpx.WriteJSON(w, http.StatusOK, buildWishlistPayload(state))
}

func (h *WishlistHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	state := h.wishlist.RemoveItem(chi.URLParam(r, "itemID"))
	httpx.WriteJSON(w, http.StatusOK, buildWishlistPayload(state))
}

func (h *WishlistHandlers) removeProduct(w http.ResponseWriter, r *http.Request) {
	state := h.wishlist.RemoveProduct(chi.URLParam(r, "productID"))
	httpx.WriteJSON(w, http.StatusOK, buildWishlistPayload(state))
}

func (h *WishlistHandlers) clearWishlist(w http.ResponseWriter, r *http.Request) {
	state := h.wishlist.Clear()
	httpx.WriteJSON(w, http.StatusOK, buildWishlistPayload(state))
}
