package services

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/storefront-kit/engine/internal/domain"
)

// CartHistoryDeps wires the optional collaborators of the history log.
type CartHistoryDeps struct {
	Clock       func() time.Time
	IDGenerator func() string
}

// CartHistory is an append-only log of deep-copied cart snapshots. It is
// deliberately not subscribed to a live cart: callers push snapshots
// explicitly, which keeps growth bounded and restoration an explicit caller
// decision.
type CartHistory struct {
	mu      sync.Mutex
	entries []domain.CartHistoryEntry
	newID   func() string
	now     func() time.Time
}

// NewCartHistory constructs an empty history log.
func NewCartHistory(deps CartHistoryDeps) *CartHistory {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	return &CartHistory{
		newID: idGen,
		now:   func() time.Time { return clock().UTC() },
	}
}

// AddState appends a deep copy of the snapshot with the supplied label and
// metadata, returning the stored entry.
func (h *CartHistory) AddState(state domain.CartState, label string, metadata map[string]any) domain.CartHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := domain.CartHistoryEntry{
		ID:        h.newID(),
		Label:     label,
		Metadata:  domain.CloneAnyMap(metadata),
		State:     state.Clone(),
		CreatedAt: h.now(),
	}
	h.entries = append(h.entries, entry)
	return entry.Clone()
}

// RestoreState returns a deep copy of the matching entry's state. It never
// pushes the snapshot into a live cart; applying it is the caller's job.
func (h *CartHistory) RestoreState(entryID string) (domain.CartState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, entry := range h.entries {
		if entry.ID == entryID {
			return entry.State.Clone(), true
		}
	}
	return domain.CartState{}, false
}

// RemoveEntry deletes the matching entry, reporting whether it existed.
func (h *CartHistory) RemoveEntry(entryID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.entries {
		if h.entries[i].ID == entryID {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear discards all entries.
func (h *CartHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Latest returns the most recently added entry.
func (h *CartHistory) Latest() (domain.CartHistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return domain.CartHistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1].Clone(), true
}

// Entries returns deep copies of all entries in append order.
func (h *CartHistory) Entries() []domain.CartHistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.CartHistoryEntry, len(h.entries))
	for i, entry := range h.entries {
		out[i] = entry.Clone()
	}
	return out
}
