package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v78"
)

type stubIntentsAPI struct {
	newIntent     *stripe.PaymentIntent
	newErr        error
	newParams     *stripe.PaymentIntentParams
	confirmIntent *stripe.PaymentIntent
	confirmErr    error
	getIntent     *stripe.PaymentIntent
	getErr        error
}

func (s *stubIntentsAPI) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.newParams = params
	return s.newIntent, s.newErr
}

func (s *stubIntentsAPI) Confirm(string, *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error) {
	return s.confirmIntent, s.confirmErr
}

func (s *stubIntentsAPI) Get(string, *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return s.getIntent, s.getErr
}

func newTestStripeProvider(t *testing.T, api *stubIntentsAPI) *StripeProvider {
	t.Helper()
	provider, err := NewStripeProvider(StripeProviderConfig{Currency: "eur", Intents: api})
	if err != nil {
		t.Fatalf("NewStripeProvider: %v", err)
	}
	return provider
}

func TestStripeProviderRequiresKeyOrIntents(t *testing.T) {
	if _, err := NewStripeProvider(StripeProviderConfig{}); err == nil {
		t.Fatalf("expected error without api key or injected intents API")
	}
}

func TestStripeCreateIntentConvertsToMinorUnits(t *testing.T) {
	api := &stubIntentsAPI{newIntent: &stripe.PaymentIntent{ID: "pi_1", ClientSecret: "cs_1", Amount: 1999}}
	provider := newTestStripeProvider(t, api)

	intent, err := provider.CreateIntent(context.Background(), 19.99, "", map[string]string{"sessionId": "s1"})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "cs_1" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	if got := *api.newParams.Amount; got != 1999 {
		t.Fatalf("expected amount 1999 minor units, got %d", got)
	}
	if got := *api.newParams.Currency; got != "eur" {
		t.Fatalf("expected configured currency fallback, got %q", got)
	}
	if api.newParams.Metadata["sessionId"] != "s1" {
		t.Fatalf("expected metadata forwarded, got %v", api.newParams.Metadata)
	}
}

func TestStripeCreateIntentRejectsNegativeAmount(t *testing.T) {
	provider := newTestStripeProvider(t, &stubIntentsAPI{})
	if _, err := provider.CreateIntent(context.Background(), -1, "", nil); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestStripeConfirmMapsStatuses(t *testing.T) {
	cases := []struct {
		name   string
		intent *stripe.PaymentIntent
		want   Status
		reason string
	}{
		{
			name:   "succeeded",
			intent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded},
			want:   StatusSucceeded,
		},
		{
			name: "canceled maps to declined",
			intent: &stripe.PaymentIntent{
				Status:             stripe.PaymentIntentStatusCanceled,
				CancellationReason: stripe.PaymentIntentCancellationReason("abandoned"),
			},
			want:   StatusDeclined,
			reason: "abandoned",
		},
		{
			name: "payment error maps to declined",
			intent: &stripe.PaymentIntent{
				Status:           stripe.PaymentIntentStatusRequiresPaymentMethod,
				LastPaymentError: &stripe.Error{Msg: "Your card was declined."},
			},
			want:   StatusDeclined,
			reason: "Your card was declined.",
		},
		{
			name:   "requires action stays pending",
			intent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusRequiresAction},
			want:   StatusPending,
		},
	}

	for _, tc := range cases {
		api := &stubIntentsAPI{confirmIntent: tc.intent}
		provider := newTestStripeProvider(t, api)

		result, err := provider.Confirm(context.Background(), "pi_1")
		if err != nil {
			t.Fatalf("%s: Confirm returned error: %v", tc.name, err)
		}
		if result.Status != tc.want {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.want, result.Status)
		}
		if tc.reason != "" && result.FailureReason != tc.reason {
			t.Fatalf("%s: expected reason %q, got %q", tc.name, tc.reason, result.FailureReason)
		}
	}
}

func TestStripeVerifyWrapsLookupError(t *testing.T) {
	lookupErr := errors.New("no such payment_intent")
	provider := newTestStripeProvider(t, &stubIntentsAPI{getErr: lookupErr})

	if _, err := provider.Verify(context.Background(), "pi_1"); !errors.Is(err, lookupErr) {
		t.Fatalf("expected wrapped lookup error, got %v", err)
	}
}

func TestStripeSettlementRequiresPaymentID(t *testing.T) {
	provider := newTestStripeProvider(t, &stubIntentsAPI{})
	if _, err := provider.Confirm(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank payment id on Confirm")
	}
	if _, err := provider.Verify(context.Background(), ""); err == nil {
		t.Fatalf("expected error for blank payment id on Verify")
	}
}
