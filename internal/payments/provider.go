// Package payments defines the payment-gateway collaborator contract the
// checkout state machine depends on, plus the Stripe adapter. The engine
// never implements gateway protocol itself; timeout policy belongs to the
// injected provider.
package payments

import (
	"context"
)

// Status enumerates the normalised payment outcomes shared across providers.
type Status string

const (
	// StatusPending indicates the payment awaits customer action or gateway confirmation.
	StatusPending Status = "pending"
	// StatusSucceeded indicates the gateway reports the payment as captured.
	StatusSucceeded Status = "succeeded"
	// StatusDeclined indicates the gateway explicitly declined the payment.
	StatusDeclined Status = "declined"
)

// Intent is the gateway's handle for a payment about to be confirmed.
type Intent struct {
	ID           string
	RedirectURL  string
	ClientSecret string
}

// Result reports the gateway's view of a payment after confirmation or
// verification. FailureReason is set only for declined payments.
type Result struct {
	Status        Status
	FailureReason string
}

// Provider is the injected payment-gateway collaborator. A transport or
// gateway error is returned as a non-nil error; an explicit decline is a nil
// error with StatusDeclined, so callers can distinguish "retry" from "done".
type Provider interface {
	CreateIntent(ctx context.Context, amount float64, currency string, metadata map[string]string) (Intent, error)
	Confirm(ctx context.Context, paymentID string) (Result, error)
	Verify(ctx context.Context, paymentID string) (Result, error)
}
