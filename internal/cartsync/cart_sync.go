package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/services"
)

var (
	// ErrCartRequired indicates the sync wrapper needs a cart manager.
	ErrCartRequired = errors.New("cartsync: cart manager is required")
	// ErrMediumRequired indicates the sync wrapper needs a broadcast medium.
	ErrMediumRequired = errors.New("cartsync: medium is required")
)

// CartSyncDeps wires the synchronized cart and its broadcast medium.
type CartSyncDeps struct {
	Cart     services.CartService
	Medium   Medium
	Key      string
	OriginID string
	Logger   services.EventLogger
}

// CartSync mirrors one cart manager's state to and from a shared medium. It
// never owns cart state; it only mediates notifications. Conflicts between
// contexts resolve last-writer-wins by sequence number.
type CartSync struct {
	cart     services.CartService
	medium   Medium
	key      string
	originID string
	logger   services.EventLogger

	mu           sync.Mutex
	running      bool
	applying     bool
	lastSequence uint64
	unsubLocal   func()
	cancelRemote func()
}

// NewCartSync constructs a stopped sync wrapper; call Initialize to start.
func NewCartSync(deps CartSyncDeps) (*CartSync, error) {
	if deps.Cart == nil {
		return nil, ErrCartRequired
	}
	if deps.Medium == nil {
		return nil, ErrMediumRequired
	}

	key := strings.TrimSpace(deps.Key)
	if key == "" {
		key = SyncKey
	}
	originID := strings.TrimSpace(deps.OriginID)
	if originID == "" {
		originID = ulid.Make().String()
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &CartSync{
		cart:     deps.Cart,
		medium:   deps.Medium,
		key:      key,
		originID: originID,
		logger:   logger,
	}, nil
}

// OriginID returns the identifier this instance tags its writes with.
func (s *CartSync) OriginID() string {
	return s.originID
}

// Initialize starts both sync directions: local mutations are published to
// the medium, and remote envelopes are applied to the local cart. Any
// snapshot already present under the key is caught up first. Calling
// Initialize on a running instance is a no-op.
func (s *CartSync) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if value, ok, err := s.medium.Get(ctx, s.key); err != nil {
		return fmt.Errorf("cartsync: read shared state: %w", err)
	} else if ok {
		s.handleRemote(s.key, value)
	}

	unsubLocal := s.cart.Subscribe(s.publishLocal(ctx))

	cancelRemote, err := s.medium.Subscribe(s.handleRemote)
	if err != nil {
		unsubLocal()
		return fmt.Errorf("cartsync: subscribe to medium: %w", err)
	}

	s.mu.Lock()
	s.running = true
	s.unsubLocal = unsubLocal
	s.cancelRemote = cancelRemote
	s.mu.Unlock()

	s.logger(ctx, "cartsync.started", map[string]any{
		"originID": s.originID,
		"key":      s.key,
	})
	return nil
}

// Stop unsubscribes both directions. It is idempotent: stopping a stopped
// instance has no effect. No notifications cross the boundary after return.
func (s *CartSync) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	unsubLocal := s.unsubLocal
	cancelRemote := s.cancelRemote
	s.unsubLocal = nil
	s.cancelRemote = nil
	s.mu.Unlock()

	if unsubLocal != nil {
		unsubLocal()
	}
	if cancelRemote != nil {
		cancelRemote()
	}
}

// IsSyncing reports whether the protocol is currently active.
func (s *CartSync) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// publishLocal returns the cart subscription callback mirroring local
// mutations to the medium. Snapshots being applied from remote envelopes are
// skipped so a write never echoes back out.
func (s *CartSync) publishLocal(ctx context.Context) func(domain.CartState) {
	return func(state domain.CartState) {
		s.mu.Lock()
		if s.applying {
			s.mu.Unlock()
			return
		}
		// Stamp above everything seen so far, published or applied, so this
		// write supersedes the snapshot it was derived from.
		s.lastSequence++
		envelope := Envelope{
			Sequence: s.lastSequence,
			OriginID: s.originID,
			Payload:  state,
		}
		s.mu.Unlock()

		data, err := json.Marshal(envelope)
		if err != nil {
			s.logger(ctx, "cartsync.encode_failed", map[string]any{"error": err.Error()})
			return
		}
		if err := s.medium.Set(ctx, s.key, string(data)); err != nil {
			s.logger(ctx, "cartsync.publish_failed", map[string]any{
				"sequence": envelope.Sequence,
				"error":    err.Error(),
			})
		}
	}
}

// handleRemote applies an incoming envelope when it is newer than everything
// seen so far and originates from another context.
func (s *CartSync) handleRemote(key, value string) {
	if key != s.key {
		return
	}

	var envelope Envelope
	if err := json.Unmarshal([]byte(value), &envelope); err != nil {
		s.logger(context.Background(), "cartsync.decode_failed", map[string]any{"error": err.Error()})
		return
	}

	s.mu.Lock()
	if envelope.OriginID == s.originID || envelope.Sequence <= s.lastSequence {
		s.mu.Unlock()
		return
	}
	s.lastSequence = envelope.Sequence
	s.applying = true
	s.mu.Unlock()

	// ReplaceState notifies local subscribers synchronously, including our
	// own publish callback, which the applying flag silences.
	s.cart.ReplaceState(envelope.Payload)

	s.mu.Lock()
	s.applying = false
	s.mu.Unlock()

	s.logger(context.Background(), "cartsync.applied", map[string]any{
		"sequence": envelope.Sequence,
		"origin":   envelope.OriginID,
	})
}
