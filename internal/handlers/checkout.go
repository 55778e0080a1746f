package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/payments"
	"github.com/storefront-kit/engine/internal/platform/httpx"
	"github.com/storefront-kit/engine/internal/platform/observability"
	"github.com/storefront-kit/engine/internal/services"
)

type settleFunc func(ctx context.Context, paymentID string) (payments.Result, error)

// CheckoutHandlers exposes the checkout session state machine over HTTP.
type CheckoutHandlers struct {
	checkout services.CheckoutService
	metrics  *observability.EngineMetrics
}

// NewCheckoutHandlers constructs the checkout route group.
func NewCheckoutHandlers(checkout services.CheckoutService, metrics *observability.EngineMetrics) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout, metrics: metrics}
}

// Routes registers the checkout endpoints.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	r.Post("/session", h.initializeSession)
	r.Get("/session", h.getSession)
	r.Delete("/session", h.resetSession)
	r.Get("/session/validation", h.validate)
	r.Put("/session/shipping-address", h.setShippingAddress)
	r.Put("/session/billing-address", h.setBillingAddress)
	r.Put("/session/payment-method", h.setPaymentMethod)
	r.Put("/session/totals", h.updateTotals)
	r.Post("/session/payment", h.createPayment)
	r.Post("/session/payment/{paymentID}/confirm", h.processPayment)
	r.Post("/session/payment/{paymentID}/verify", h.verifyPayment)
	r.Post("/session/cancel", h.cancel)
}

type initializeSessionRequest struct {
	Subtotal float64        `json:"subtotal"`
	CartID   string         `json:"cartId"`
	Metadata map[string]any `json:"metadata"`
}

func (h *CheckoutHandlers) initializeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req initializeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	session, err := h.checkout.InitializeSession(req.Subtotal, req.CartID, req.Metadata)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.metrics.RecordCheckoutTransition(ctx, string(session.Status))
	httpx.WriteJSON(w, http.StatusCreated, buildSessionPayload(session))
}

func (h *CheckoutHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.checkout.Session()
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("no_session", "no active checkout session", http.StatusNotFound))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildSessionPayload(session))
}

func (h *CheckoutHandlers) resetSession(w http.ResponseWriter, r *http.Request) {
	h.checkout.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckoutHandlers) validate(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, buildValidationPayload(h.checkout.ValidateCheckout()))
}

func (h *CheckoutHandlers) setShippingAddress(w http.ResponseWriter, r *http.Request) {
	h.setAddress(w, r, h.checkout.SetShippingAddress)
}

func (h *CheckoutHandlers) setBillingAddress(w http.ResponseWriter, r *http.Request) {
	h.setAddress(w, r, h.checkout.SetBillingAddress)
}

func (h *CheckoutHandlers) setAddress(w http.ResponseWriter, r *http.Request, set func(domain.Address) (domain.ValidationResult, error)) {
	ctx := r.Context()

	var req addressPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	result, err := set(req.toDomain())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	// Validation failures are a 200 with valid=false: an expected outcome,
	// not a protocol error.
	httpx.WriteJSON(w, http.StatusOK, buildValidationPayload(result))
}

type setPaymentMethodRequest struct {
	Method string `json:"method"`
}

func (h *CheckoutHandlers) setPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	if err := h.checkout.SetPaymentMethod(req.Method); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateTotalsRequest struct {
	Subtotal float64  `json:"subtotal"`
	Shipping *float64 `json:"shipping"`
	TaxRate  *float64 `json:"taxRate"`
}

func (h *CheckoutHandlers) updateTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateTotalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "malformed JSON body", http.StatusBadRequest))
		return
	}

	session, err := h.checkout.UpdateTotals(req.Subtotal, req.Shipping, req.TaxRate)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildSessionPayload(session))
}

type intentPayload struct {
	ID           string `json:"id"`
	RedirectURL  string `json:"redirectUrl,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

func (h *CheckoutHandlers) createPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	intent, err := h.checkout.CreatePayment(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	h.metrics.RecordCheckoutTransition(ctx, "processing")
	httpx.WriteJSON(w, http.StatusOK, intentPayload{
		ID:           intent.ID,
		RedirectURL:  intent.RedirectURL,
		ClientSecret: intent.ClientSecret,
	})
}

type resultPayload struct {
	Status        string `json:"status"`
	FailureReason string `json:"failureReason,omitempty"`
}

func (h *CheckoutHandlers) processPayment(w http.ResponseWriter, r *http.Request) {
	h.settlePayment(w, r, h.checkout.ProcessPayment)
}

func (h *CheckoutHandlers) verifyPayment(w http.ResponseWriter, r *http.Request) {
	h.settlePayment(w, r, h.checkout.VerifyPayment)
}

func (h *CheckoutHandlers) settlePayment(w http.ResponseWriter, r *http.Request, settle settleFunc) {
	ctx := r.Context()

	result, err := settle(ctx, chi.URLParam(r, "paymentID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	if session, ok := h.checkout.Session(); ok {
		h.metrics.RecordCheckoutTransition(ctx, string(session.Status))
	}
	httpx.WriteJSON(w, http.StatusOK, resultPayload{
		Status:        string(result.Status),
		FailureReason: result.FailureReason,
	})
}

func (h *CheckoutHandlers) cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.checkout.Cancel(); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	h.metrics.RecordCheckoutTransition(ctx, "cancelled")
	w.WriteHeader(http.StatusNoContent)
}
