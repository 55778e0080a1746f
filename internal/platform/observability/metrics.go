package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics carries the counters recorded around the state managers.
type EngineMetrics struct {
	cartMutations       metric.Int64Counter
	checkoutTransitions metric.Int64Counter
	searchQueries       metric.Int64Counter
}

// NewEngineMetrics registers the engine's instruments on the supplied meter.
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	if meter == nil {
		return nil, errors.New("metrics: meter is required")
	}

	cartMutations, err := meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations by operation"))
	if err != nil {
		return nil, err
	}
	checkoutTransitions, err := meter.Int64Counter("storefront.checkout.transitions",
		metric.WithDescription("Checkout session status transitions"))
	if err != nil {
		return nil, err
	}
	searchQueries, err := meter.Int64Counter("storefront.catalog.searches",
		metric.WithDescription("Catalog search queries served"))
	if err != nil {
		return nil, err
	}

	return &EngineMetrics{
		cartMutations:       cartMutations,
		checkoutTransitions: checkoutTransitions,
		searchQueries:       searchQueries,
	}, nil
}

// RecordCartMutation counts one cart mutation for the named operation.
func (m *EngineMetrics) RecordCartMutation(ctx context.Context, operation string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordCheckoutTransition counts one session status transition.
func (m *EngineMetrics) RecordCheckoutTransition(ctx context.Context, status string) {
	if m == nil || m.checkoutTransitions == nil {
		return
	}
	m.checkoutTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSearch counts one catalog search.
func (m *EngineMetrics) RecordSearch(ctx context.Context) {
	if m == nil || m.searchQueries == nil {
		return
	}
	m.searchQueries.Add(ctx, 1)
}
