package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/payments"
)

var (
	// ErrCheckoutInvalidInput indicates malformed arguments such as a negative subtotal.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutNoSession indicates the operation requires an initialised session.
	ErrCheckoutNoSession = errors.New("checkout: no active session")
	// ErrCheckoutInvalidState indicates the operation is not valid for the current status.
	ErrCheckoutInvalidState = errors.New("checkout: invalid state")
	// ErrCheckoutPaymentInFlight indicates another payment call is still running
	// for this session; payment operations are serialized.
	ErrCheckoutPaymentInFlight = errors.New("checkout: payment operation in flight")
	// ErrCheckoutProviderRequired indicates the service was built without a payment provider.
	ErrCheckoutProviderRequired = errors.New("checkout service: payment provider is required")
)

// CheckoutServiceDeps wires the checkout collaborators.
type CheckoutServiceDeps struct {
	Provider    payments.Provider
	Currency    string
	Clock       func() time.Time
	IDGenerator func() string
	Logger      EventLogger
}

type checkoutService struct {
	mu       sync.Mutex
	session  *domain.CheckoutSession
	inFlight bool

	provider payments.Provider
	currency string
	newID    func() string
	now      func() time.Time
	logger   EventLogger
}

// NewCheckoutService constructs a checkout manager with no active session.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Provider == nil {
		return nil, ErrCheckoutProviderRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "USD"
	}

	return &checkoutService{
		provider: deps.Provider,
		currency: currency,
		newID:    idGen,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

func (s *checkoutService) InitializeSession(subtotal float64, cartID string, metadata map[string]any) (domain.CheckoutSession, error) {
	if subtotal < 0 {
		return domain.CheckoutSession{}, ErrCheckoutInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := domain.CheckoutSession{
		ID:        s.newID(),
		Status:    domain.CheckoutStatusPending,
		Subtotal:  subtotal,
		Total:     subtotal,
		CartID:    strings.TrimSpace(cartID),
		Metadata:  domain.CloneAnyMap(metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.session = &session
	s.inFlight = false

	s.logger(context.Background(), "checkout.session_initialized", map[string]any{
		"sessionID": session.ID,
		"subtotal":  subtotal,
	})
	return session.Clone(), nil
}

func (s *checkoutService) SetShippingAddress(address domain.Address) (domain.ValidationResult, error) {
	return s.setAddress(address, true)
}

func (s *checkoutService) SetBillingAddress(address domain.Address) (domain.ValidationResult, error) {
	return s.setAddress(address, false)
}

func (s *checkoutService) setAddress(address domain.Address, shipping bool) (domain.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return domain.ValidationResult{}, ErrCheckoutNoSession
	}

	result := validateAddress(address)
	if !result.Valid {
		// Validation failures are data, not errors, and never mutate the session.
		return result, nil
	}

	addr := address
	if shipping {
		s.session.ShippingAddress = &addr
	} else {
		s.session.BillingAddress = &addr
	}
	s.session.UpdatedAt = s.now()
	return result, nil
}

func (s *checkoutService) SetPaymentMethod(method string) error {
	method = strings.TrimSpace(method)
	if method == "" {
		return ErrCheckoutInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrCheckoutNoSession
	}
	if s.session.Status != domain.CheckoutStatusPending {
		return ErrCheckoutInvalidState
	}

	s.session.PaymentMethod = method
	s.session.UpdatedAt = s.now()
	return nil
}

func (s *checkoutService) UpdateTotals(subtotal float64, shipping *float64, taxRate *float64) (domain.CheckoutSession, error) {
	if subtotal < 0 {
		return domain.CheckoutSession{}, ErrCheckoutInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return domain.CheckoutSession{}, ErrCheckoutNoSession
	}

	shippingCost := 0.0
	if shipping != nil {
		shippingCost = *shipping
	}
	rate := 0.0
	if taxRate != nil {
		rate = *taxRate
	}

	s.session.Subtotal = subtotal
	s.session.ShippingCost = shippingCost
	s.session.TaxRate = rate
	s.session.Total = subtotal + shippingCost + subtotal*rate
	s.session.UpdatedAt = s.now()
	return s.session.Clone(), nil
}

// CreatePayment obtains a payment intent from the provider. On success the
// session moves to processing; on provider failure it stays pending so the
// call is retry-safe.
func (s *checkoutService) CreatePayment(ctx context.Context) (payments.Intent, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return payments.Intent{}, ErrCheckoutNoSession
	}
	if s.session.Status != domain.CheckoutStatusPending {
		s.mu.Unlock()
		return payments.Intent{}, ErrCheckoutInvalidState
	}
	if s.session.PaymentMethod == "" {
		s.mu.Unlock()
		return payments.Intent{}, ErrCheckoutInvalidState
	}
	if s.inFlight {
		s.mu.Unlock()
		return payments.Intent{}, ErrCheckoutPaymentInFlight
	}
	s.inFlight = true
	sessionID := s.session.ID
	amount := s.session.Total
	metadata := map[string]string{
		"sessionId": sessionID,
		"method":    s.session.PaymentMethod,
	}
	if s.session.CartID != "" {
		metadata["cartId"] = s.session.CartID
	}
	s.mu.Unlock()

	intent, err := s.provider.CreateIntent(ctx, amount, s.currency, metadata)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		s.logger(ctx, "checkout.payment_create_failed", map[string]any{
			"sessionID": sessionID,
			"error":     err.Error(),
		})
		return payments.Intent{}, fmt.Errorf("checkout: create payment: %w", err)
	}

	// The session may have been reset or cancelled while the call was in
	// flight; apply the result only to the same pending session.
	if s.session == nil || s.session.ID != sessionID || s.session.Status != domain.CheckoutStatusPending {
		return intent, nil
	}

	s.session.PaymentIntentID = intent.ID
	s.session.Status = domain.CheckoutStatusProcessing
	s.session.UpdatedAt = s.now()

	s.logger(ctx, "checkout.payment_created", map[string]any{
		"sessionID": sessionID,
		"intentID":  intent.ID,
	})
	return intent, nil
}

func (s *checkoutService) ProcessPayment(ctx context.Context, paymentID string) (payments.Result, error) {
	return s.settlePayment(ctx, paymentID, "process", s.provider.Confirm)
}

func (s *checkoutService) VerifyPayment(ctx context.Context, paymentID string) (payments.Result, error) {
	return s.settlePayment(ctx, paymentID, "verify", s.provider.Verify)
}

// settlePayment runs a provider call and applies the shared transition rules:
// succeeded completes the session, an explicit decline fails it, anything
// else (including transport errors) leaves the status unchanged.
func (s *checkoutService) settlePayment(ctx context.Context, paymentID, op string, call func(context.Context, string) (payments.Result, error)) (payments.Result, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return payments.Result{}, ErrCheckoutInvalidInput
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return payments.Result{}, ErrCheckoutNoSession
	}
	if s.session.Status.Terminal() {
		s.mu.Unlock()
		return payments.Result{}, ErrCheckoutInvalidState
	}
	if s.inFlight {
		s.mu.Unlock()
		return payments.Result{}, ErrCheckoutPaymentInFlight
	}
	s.inFlight = true
	sessionID := s.session.ID
	s.mu.Unlock()

	result, err := call(ctx, paymentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		// Transport or gateway failure: status unchanged, the caller decides
		// whether to retry.
		s.logger(ctx, "checkout.payment_"+op+"_failed", map[string]any{
			"sessionID": sessionID,
			"paymentID": paymentID,
			"error":     err.Error(),
		})
		return payments.Result{}, fmt.Errorf("checkout: %s payment: %w", op, err)
	}

	if s.session == nil || s.session.ID != sessionID || s.session.Status.Terminal() {
		return result, nil
	}

	switch result.Status {
	case payments.StatusSucceeded:
		s.session.Status = domain.CheckoutStatusCompleted
	case payments.StatusDeclined:
		s.session.Status = domain.CheckoutStatusFailed
	default:
		// Still pending at the gateway; no transition.
		return result, nil
	}
	s.session.UpdatedAt = s.now()

	s.logger(ctx, "checkout.payment_"+op+"_settled", map[string]any{
		"sessionID": sessionID,
		"paymentID": paymentID,
		"status":    string(result.Status),
	})
	return result, nil
}

// Cancel transitions a pending or processing session to cancelled. Cancelling
// an already-cancelled session is a no-op; cancelling a completed or failed
// session is rejected.
func (s *checkoutService) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrCheckoutNoSession
	}

	switch s.session.Status {
	case domain.CheckoutStatusCancelled:
		return nil
	case domain.CheckoutStatusCompleted, domain.CheckoutStatusFailed:
		return ErrCheckoutInvalidState
	}

	s.session.Status = domain.CheckoutStatusCancelled
	s.session.UpdatedAt = s.now()
	return nil
}

// Reset discards the session entirely, independent of its status.
func (s *checkoutService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.inFlight = false
}

// ValidateCheckout reports readiness without mutating anything.
func (s *checkoutService) ValidateCheckout() domain.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []string
	if s.session == nil {
		errs = append(errs, "no active checkout session")
	} else {
		if s.session.ShippingAddress == nil {
			errs = append(errs, "shipping address is required")
		}
		if s.session.PaymentMethod == "" {
			errs = append(errs, "payment method is required")
		}
	}
	return domain.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (s *checkoutService) Session() (domain.CheckoutSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return domain.CheckoutSession{}, false
	}
	return s.session.Clone(), true
}

func validateAddress(address domain.Address) domain.ValidationResult {
	var errs []string
	if strings.TrimSpace(address.RecipientName) == "" {
		errs = append(errs, "recipient name is required")
	}
	if strings.TrimSpace(address.Street) == "" {
		errs = append(errs, "street is required")
	}
	if strings.TrimSpace(address.City) == "" {
		errs = append(errs, "city is required")
	}
	if strings.TrimSpace(address.PostalCode) == "" {
		errs = append(errs, "postal code is required")
	}
	if strings.TrimSpace(address.Country) == "" {
		errs = append(errs, "country is required")
	}
	return domain.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
