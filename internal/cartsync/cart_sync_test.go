package cartsync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/services"
)

func newSyncedCart(t *testing.T, broker *MemoryBroker, originID string) (services.CartService, *CartSync) {
	t.Helper()

	cart := services.NewCartService(services.CartServiceDeps{})
	sync, err := NewCartSync(CartSyncDeps{
		Cart:     cart,
		Medium:   broker.Context(),
		OriginID: originID,
	})
	if err != nil {
		t.Fatalf("NewCartSync: %v", err)
	}
	if err := sync.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(sync.Stop)
	return cart, sync
}

func syncProduct(id string, price float64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: price}
}

func TestCartSyncPropagatesMutationsAcrossContexts(t *testing.T) {
	broker := NewMemoryBroker()
	cartA, _ := newSyncedCart(t, broker, "tab-a")
	cartB, _ := newSyncedCart(t, broker, "tab-b")

	if _, err := cartA.AddItem(syncProduct("p1", 10), 2); err != nil {
		t.Fatalf("AddItem on cart A: %v", err)
	}

	// MemoryBroker delivers synchronously, so cart B has converged on return.
	stateB := cartB.State()
	if len(stateB.Items) != 1 || stateB.Items[0].Quantity != 2 {
		t.Fatalf("cart B did not converge: %+v", stateB)
	}
	if stateB.Total != 20 {
		t.Fatalf("expected total 20 on cart B, got %v", stateB.Total)
	}
}

func TestCartSyncDoesNotEchoAppliedState(t *testing.T) {
	broker := NewMemoryBroker()
	cartA, _ := newSyncedCart(t, broker, "tab-a")
	cartB, _ := newSyncedCart(t, broker, "tab-b")

	// Count writes reaching the shared medium from a third observer.
	observer := broker.Context()
	writes := 0
	cancel, err := observer.Subscribe(func(string, string) { writes++ })
	if err != nil {
		t.Fatalf("observer Subscribe: %v", err)
	}
	defer cancel()

	if _, err := cartA.AddItem(syncProduct("p1", 10), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if writes != 1 {
		t.Fatalf("expected exactly one write on the medium, got %d", writes)
	}

	// Both carts settled on the same state without a publish loop.
	if got := cartB.State(); len(got.Items) != 1 {
		t.Fatalf("cart B missing the item: %+v", got)
	}
}

func TestCartSyncCatchesUpOnInitialize(t *testing.T) {
	broker := NewMemoryBroker()
	cartA, _ := newSyncedCart(t, broker, "tab-a")

	if _, err := cartA.AddItem(syncProduct("p1", 10), 3); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// A context joining later must pick up the existing snapshot.
	cartB, _ := newSyncedCart(t, broker, "tab-b")
	stateB := cartB.State()
	if len(stateB.Items) != 1 || stateB.Items[0].Quantity != 3 {
		t.Fatalf("late joiner did not catch up: %+v", stateB)
	}
}

func TestCartSyncIgnoresOwnOrigin(t *testing.T) {
	broker := NewMemoryBroker()
	cart := services.NewCartService(services.CartServiceDeps{})
	medium := broker.Context()
	sync, err := NewCartSync(CartSyncDeps{Cart: cart, Medium: medium, OriginID: "tab-a"})
	if err != nil {
		t.Fatalf("NewCartSync: %v", err)
	}
	if err := sync.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer sync.Stop()

	envelope := Envelope{
		Sequence: 10,
		OriginID: "tab-a",
		Payload: domain.CartState{
			Items: []domain.CartItem{{ID: "x", Product: syncProduct("p9", 1), Quantity: 1}},
		},
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	sync.handleRemote(SyncKey, string(data))

	if got := cart.State(); len(got.Items) != 0 {
		t.Fatalf("an envelope from our own origin must be ignored, got %+v", got)
	}
}

func TestCartSyncIgnoresStaleSequence(t *testing.T) {
	broker := NewMemoryBroker()
	cart := services.NewCartService(services.CartServiceDeps{})
	sync, err := NewCartSync(CartSyncDeps{Cart: cart, Medium: broker.Context(), OriginID: "tab-a"})
	if err != nil {
		t.Fatalf("NewCartSync: %v", err)
	}
	if err := sync.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer sync.Stop()

	fresh := Envelope{Sequence: 5, OriginID: "tab-b", Payload: domain.CartState{
		Items: []domain.CartItem{{ID: "a", Product: syncProduct("p1", 10), Quantity: 2}},
	}}
	stale := Envelope{Sequence: 3, OriginID: "tab-c", Payload: domain.CartState{
		Items: []domain.CartItem{{ID: "b", Product: syncProduct("p2", 5), Quantity: 9}},
	}}

	freshData, _ := json.Marshal(fresh)
	staleData, _ := json.Marshal(stale)

	sync.handleRemote(SyncKey, string(freshData))
	sync.handleRemote(SyncKey, string(staleData))

	got := cart.State()
	if len(got.Items) != 1 || got.Items[0].Product.ID != "p1" {
		t.Fatalf("stale envelope overwrote newer state: %+v", got)
	}
}

func TestCartSyncIgnoresForeignKeys(t *testing.T) {
	broker := NewMemoryBroker()
	cart := services.NewCartService(services.CartServiceDeps{})
	sync, err := NewCartSync(CartSyncDeps{Cart: cart, Medium: broker.Context(), OriginID: "tab-a"})
	if err != nil {
		t.Fatalf("NewCartSync: %v", err)
	}
	if err := sync.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer sync.Stop()

	envelope := Envelope{Sequence: 1, OriginID: "tab-b", Payload: domain.CartState{
		Items: []domain.CartItem{{ID: "a", Product: syncProduct("p1", 10), Quantity: 1}},
	}}
	data, _ := json.Marshal(envelope)
	sync.handleRemote("some.other.key", string(data))

	if got := cart.State(); len(got.Items) != 0 {
		t.Fatalf("an envelope under a foreign key must be ignored, got %+v", got)
	}
}

func TestCartSyncStopSeversBothDirections(t *testing.T) {
	broker := NewMemoryBroker()
	cartA, syncA := newSyncedCart(t, broker, "tab-a")
	cartB, _ := newSyncedCart(t, broker, "tab-b")

	syncA.Stop()
	if syncA.IsSyncing() {
		t.Fatalf("expected IsSyncing false after Stop")
	}
	// Stop is idempotent.
	syncA.Stop()

	// B's mutations no longer reach A.
	if _, err := cartB.AddItem(syncProduct("p1", 10), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got := cartA.State(); len(got.Items) != 0 {
		t.Fatalf("stopped sync still applied remote state: %+v", got)
	}

	// A's mutations no longer reach the medium.
	if _, err := cartA.AddItem(syncProduct("p2", 5), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got := cartB.State(); len(got.Items) != 1 {
		t.Fatalf("stopped sync still published local state: %+v", got)
	}
}

func TestCartSyncInitializeIsIdempotent(t *testing.T) {
	broker := NewMemoryBroker()
	_, sync := newSyncedCart(t, broker, "tab-a")

	if err := sync.Initialize(context.Background()); err != nil {
		t.Fatalf("second Initialize must be a no-op: %v", err)
	}
	if !sync.IsSyncing() {
		t.Fatalf("expected IsSyncing true after Initialize")
	}
}

func TestCartSyncConstructorValidation(t *testing.T) {
	broker := NewMemoryBroker()

	if _, err := NewCartSync(CartSyncDeps{Medium: broker.Context()}); err != ErrCartRequired {
		t.Fatalf("expected ErrCartRequired, got %v", err)
	}
	cart := services.NewCartService(services.CartServiceDeps{})
	if _, err := NewCartSync(CartSyncDeps{Cart: cart}); err != ErrMediumRequired {
		t.Fatalf("expected ErrMediumRequired, got %v", err)
	}

	sync, err := NewCartSync(CartSyncDeps{Cart: cart, Medium: broker.Context()})
	if err != nil {
		t.Fatalf("NewCartSync: %v", err)
	}
	if sync.OriginID() == "" {
		t.Fatalf("expected a generated origin ID")
	}
}
