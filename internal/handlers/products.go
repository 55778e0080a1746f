package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/platform/httpx"
	"github.com/storefront-kit/engine/internal/platform/observability"
	"github.com/storefront-kit/engine/internal/services"
)

// ProductHandlers exposes the catalog manager and its query surface.
type ProductHandlers struct {
	catalog services.CatalogService
	metrics *observability.EngineMetrics
}

// NewProductHandlers constructs the product route group.
func NewProductHandlers(catalog services.CatalogService, metrics *observability.EngineMetrics) *ProductHandlers {
	return &ProductHandlers{catalog: catalog, metrics: metrics}
}

// Routes registers the product endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	r.Get("/", h.listProducts)
	r.Get("/search", h.search)
	r.Get("/{productID}", h.getProduct)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products := h.catalog.Products()
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		products = h.catalog.ProductsByCategory(category)
	} else if tag := strings.TrimSpace(r.URL.Query().Get("tag")); tag != "" {
		products = h.catalog.ProductsByTag(tag)
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	product, ok := h.catalog.ProductByID(id)
	if !ok {
		// Fall back to SKU so both identifiers resolve on one route.
		product, ok = h.catalog.ProductBySKU(id)
	}
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_found", "product not found", http.StatusNotFound))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildProductPayload(product))
}

type searchResultPayload struct {
	Products   []productPayload `json:"products"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

func (h *ProductHandlers) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := services.SearchOptions{
		Query:      query.Get("q"),
		CategoryID: strings.TrimSpace(query.Get("category")),
		Tag:        strings.TrimSpace(query.Get("tag")),
		SortBy:     services.SearchSortField(strings.TrimSpace(query.Get("sortBy"))),
		SortOrder:  domain.SortOrder(strings.TrimSpace(query.Get("sortOrder"))),
	}
	if v, err := strconv.ParseFloat(query.Get("minPrice"), 64); err == nil {
		opts.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(query.Get("maxPrice"), 64); err == nil {
		opts.MaxPrice = &v
	}
	if v, err := strconv.ParseBool(query.Get("inStock")); err == nil {
		opts.InStock = &v
	}
	if v, err := strconv.Atoi(query.Get("page")); err == nil {
		opts.Page = v
	}
	if v, err := strconv.Atoi(query.Get("pageSize")); err == nil {
		opts.PageSize = v
	}

	result := h.catalog.Search(opts)
	h.metrics.RecordSearch(r.Context())

	payload := searchResultPayload{
		Products:   make([]productPayload, 0, len(result.Products)),
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
	for _, product := range result.Products {
		payload.Products = append(payload.Products, buildProductPayload(product))
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}
