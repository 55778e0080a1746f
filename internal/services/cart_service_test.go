package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-kit/engine/internal/domain"
)

func newTestCartService() CartService {
	seq := 0
	return NewCartService(CartServiceDeps{
		Clock: func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) },
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("item-%d", seq)
		},
	})
}

func testProduct(id string, price float64) domain.Product {
	return domain.Product{ID: id, SKU: "SKU-" + id, Name: "Product " + id, Price: price}
}

func TestCartAddItemAppendsLine(t *testing.T) {
	cart := newTestCartService()

	state, err := cart.AddItem(testProduct("p1", 10), 2)
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if len(state.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(state.Items))
	}
	if state.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", state.Items[0].Quantity)
	}
	if state.Total != 20 {
		t.Fatalf("expected total 20, got %v", state.Total)
	}
	if state.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", state.ItemCount)
	}
}

func TestCartAddItemMergesSameProduct(t *testing.T) {
	cart := newTestCartService()

	if _, err := cart.AddItem(testProduct("p1", 10), 2); err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	state, err := cart.AddItem(testProduct("p1", 10), 3)
	if err != nil {
		t.Fatalf("second AddItem: %v", err)
	}

	if len(state.Items) != 1 {
		t.Fatalf("expected merged single line, got %d lines", len(state.Items))
	}
	if state.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", state.Items[0].Quantity)
	}
	if state.Total != 50 {
		t.Fatalf("expected total 50, got %v", state.Total)
	}
}

func TestCartAddItemRejectsInvalidInput(t *testing.T) {
	cart := newTestCartService()

	cases := []struct {
		name     string
		product  domain.Product
		quantity int
	}{
		{"empty product id", domain.Product{Price: 10}, 1},
		{"zero quantity", testProduct("p1", 10), 0},
		{"negative quantity", testProduct("p1", 10), -1},
		{"negative price", testProduct("p1", -5), 1},
	}
	for _, tc := range cases {
		if _, err := cart.AddItem(tc.product, tc.quantity); !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("%s: expected ErrCartInvalidInput, got %v", tc.name, err)
		}
	}
	if got := cart.State(); len(got.Items) != 0 {
		t.Fatalf("rejected inputs must not mutate the cart, got %d items", len(got.Items))
	}
}

func TestCartRemoveItemToleratesAbsent(t *testing.T) {
	cart := newTestCartService()
	if _, err := cart.AddItem(testProduct("p1", 10), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	state := cart.RemoveItem("missing")
	if len(state.Items) != 1 {
		t.Fatalf("removing an absent item must be a no-op, got %d items", len(state.Items))
	}

	state = cart.RemoveItem(state.Items[0].ID)
	if len(state.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(state.Items))
	}
	if state.Total != 0 || state.ItemCount != 0 {
		t.Fatalf("expected zeroed totals, got total=%v count=%d", state.Total, state.ItemCount)
	}
}

func TestCartUpdateQuantityZeroRemovesLine(t *testing.T) {
	cart := newTestCartService()
	state, err := cart.AddItem(testProduct("p1", 10), 3)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	itemID := state.Items[0].ID

	state = cart.UpdateQuantity(itemID, 0)
	if len(state.Items) != 0 {
		t.Fatalf("quantity zero must remove the line, got %d items", len(state.Items))
	}
}

func TestCartUpdateQuantitySetsAbsolutely(t *testing.T) {
	cart := newTestCartService()
	state, err := cart.AddItem(testProduct("p1", 10), 3)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	itemID := state.Items[0].ID

	state = cart.UpdateQuantity(itemID, 7)
	if state.Items[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", state.Items[0].Quantity)
	}
	if state.Total != 70 {
		t.Fatalf("expected total 70, got %v", state.Total)
	}

	// Absent lines are tolerated.
	state = cart.UpdateQuantity("missing", 2)
	if state.Items[0].Quantity != 7 {
		t.Fatalf("updating an absent line must not change existing lines")
	}
}

func TestCartClearResetsEverything(t *testing.T) {
	cart := newTestCartService()
	if _, err := cart.AddItem(testProduct("p1", 10), 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := cart.AddItem(testProduct("p2", 5), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	state := cart.Clear()
	if len(state.Items) != 0 || state.Total != 0 || state.ItemCount != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestCartReplaceStateRecomputesTotals(t *testing.T) {
	cart := newTestCartService()

	snapshot := domain.CartState{
		Items: []domain.CartItem{
			{ID: "a", Product: testProduct("p1", 10), Quantity: 2},
			{ID: "b", Product: testProduct("p2", 5), Quantity: 4},
		},
		// Deliberately wrong derived fields; ReplaceState must recompute them.
		Total:     999,
		ItemCount: 999,
	}

	state := cart.ReplaceState(snapshot)
	if state.Total != 40 {
		t.Fatalf("expected recomputed total 40, got %v", state.Total)
	}
	if state.ItemCount != 6 {
		t.Fatalf("expected recomputed item count 6, got %d", state.ItemCount)
	}
}

func TestCartStateReturnsIsolatedCopy(t *testing.T) {
	cart := newTestCartService()
	if _, err := cart.AddItem(testProduct("p1", 10), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	snapshot := cart.State()
	snapshot.Items[0].Quantity = 99
	snapshot.Items[0].Product.Price = 0

	current := cart.State()
	if current.Items[0].Quantity != 1 || current.Items[0].Product.Price != 10 {
		t.Fatalf("mutating a returned snapshot leaked into the cart: %+v", current.Items[0])
	}
}

func TestCartSubscribeReceivesEveryMutation(t *testing.T) {
	cart := newTestCartService()

	var got []domain.CartState
	unsubscribe := cart.Subscribe(func(state domain.CartState) {
		got = append(got, state)
	})

	if _, err := cart.AddItem(testProduct("p1", 10), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := cart.AddItem(testProduct("p2", 5), 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart.Clear()

	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}
	if got[1].Total != 20 {
		t.Fatalf("expected second snapshot total 20, got %v", got[1].Total)
	}

	unsubscribe()
	cart.UpdateQuantity("missing", 1) // no-op, no notification either way
	if _, err := cart.AddItem(testProduct("p3", 1), 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("unsubscribed listener still notified, got %d", len(got))
	}
}
