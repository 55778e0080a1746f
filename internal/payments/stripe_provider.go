package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeLogger defines the logging contract for Stripe provider operations.
type StripeLogger func(ctx context.Context, event string, fields map[string]any)

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey   string
	Currency string
	Backends *stripe.Backends
	Logger   StripeLogger
	Intents  stripePaymentIntentAPI
}

// StripeProvider implements the Provider interface on Stripe PaymentIntents.
type StripeProvider struct {
	intents  stripePaymentIntentAPI
	currency string
	logger   StripeLogger
}

// NewStripeProvider constructs a Stripe-backed payment provider.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Intents == nil {
		return nil, errors.New("stripe: api key is required")
	}

	intents := cfg.Intents
	if intents == nil {
		sc := client.New(apiKey, cfg.Backends)
		intents = sc.PaymentIntents
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{
		intents:  intents,
		currency: currency,
		logger:   logger,
	}, nil
}

// CreateIntent creates a Stripe PaymentIntent for the given amount. The
// engine's currency-agnostic amount is converted to minor units here.
func (p *StripeProvider) CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (Intent, error) {
	if p == nil || p.intents == nil {
		return Intent{}, errors.New("stripe: provider is not initialised")
	}
	if amount < 0 {
		return Intent{}, errors.New("stripe: amount must be non-negative")
	}

	cur := strings.ToLower(strings.TrimSpace(currency))
	if cur == "" {
		cur = p.currency
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(amount)),
		Currency: stripe.String(cur),
	}
	params.Context = ctx
	if len(metadata) > 0 {
		params.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			params.Metadata[k] = v
		}
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe: create intent: %w", err)
	}

	p.logger(ctx, "stripe.intent_created", map[string]any{
		"intentID": pi.ID,
		"amount":   pi.Amount,
	})

	intent := Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}
	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
		intent.RedirectURL = pi.NextAction.RedirectToURL.URL
	}
	return intent, nil
}

// Confirm confirms the PaymentIntent with Stripe.
func (p *StripeProvider) Confirm(ctx context.Context, paymentID string) (Result, error) {
	if p == nil || p.intents == nil {
		return Result{}, errors.New("stripe: provider is not initialised")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return Result{}, errors.New("stripe: payment id is required")
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := p.intents.Confirm(id, params)
	if err != nil {
		return Result{}, fmt.Errorf("stripe: confirm intent: %w", err)
	}
	return resultFromIntent(pi), nil
}

// Verify fetches the PaymentIntent and reports its current outcome.
func (p *StripeProvider) Verify(ctx context.Context, paymentID string) (Result, error) {
	if p == nil || p.intents == nil {
		return Result{}, errors.New("stripe: provider is not initialised")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return Result{}, errors.New("stripe: payment id is required")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.intents.Get(id, params)
	if err != nil {
		return Result{}, fmt.Errorf("stripe: lookup intent: %w", err)
	}
	return resultFromIntent(pi), nil
}

func resultFromIntent(pi *stripe.PaymentIntent) Result {
	if pi == nil {
		return Result{Status: StatusPending}
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return Result{Status: StatusSucceeded}
	case stripe.PaymentIntentStatusCanceled:
		return Result{Status: StatusDeclined, FailureReason: declineReason(pi)}
	}

	if pi.LastPaymentError != nil {
		return Result{Status: StatusDeclined, FailureReason: declineReason(pi)}
	}
	return Result{Status: StatusPending}
}

func declineReason(pi *stripe.PaymentIntent) string {
	if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
		return pi.LastPaymentError.Msg
	}
	if pi.CancellationReason != "" {
		return string(pi.CancellationReason)
	}
	return "payment declined"
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
