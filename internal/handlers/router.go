package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/storefront-kit/engine/internal/platform/httpx"
)

const (
	defaultAPIPrefix = "/api/v1"
	defaultTimeout   = 60 * time.Second
)

// RouterDeps bundles the route groups mounted by the facade.
type RouterDeps struct {
	Cart     *CartHandlers
	Wishlist *WishlistHandlers
	Products *ProductHandlers
	Checkout *CheckoutHandlers
}

// NewRouter constructs the chi router with shared middleware and the engine
// route groups.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultTimeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(defaultAPIPrefix, func(api chi.Router) {
		if deps.Cart != nil {
			api.Route("/cart", deps.Cart.Routes)
		}
		if deps.Wishlist != nil {
			api.Route("/wishlist", deps.Wishlist.Routes)
		}
		if deps.Products != nil {
			api.Route("/products", deps.Products.Routes)
		}
		if deps.Checkout != nil {
			api.Route("/checkout", deps.Checkout.Routes)
		}
	})

	return r
}
