// Package cartsync keeps independent cart managers in separate execution
// contexts (browser tabs, processes) convergent. Each local mutation is
// published to a shared medium as a tagged envelope; remote envelopes are
// applied last-writer-wins by sequence number, never merged.
package cartsync

import (
	"context"

	"github.com/storefront-kit/engine/internal/domain"
)

// SyncKey is the well-known medium key carrying the cart snapshot.
const SyncKey = "storefront.cart"

// Envelope is the tagged message exchanged through the medium. OriginID
// identifies the publishing context so a context never re-applies its own
// writes; Sequence establishes ordering between contexts, independent of
// wall-clock time.
type Envelope struct {
	Sequence uint64           `json:"sequence"`
	OriginID string           `json:"originId"`
	Payload  domain.CartState `json:"payload"`
}

// Medium is the external persistent broadcast channel: a key/value store
// whose writes are delivered to the other execution contexts at-least-once
// with per-key last-value-wins semantics.
type Medium interface {
	// Get returns the current value for the key, reporting absence.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value and broadcasts the change to other contexts.
	Set(ctx context.Context, key, value string) error
	// Subscribe registers a handler for changes originating in other
	// contexts. The returned cancel function stops delivery and guarantees
	// no further calls after it returns.
	Subscribe(handler func(key, value string)) (func(), error)
}
