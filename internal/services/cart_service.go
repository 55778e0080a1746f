package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/storefront-kit/engine/internal/domain"
	"github.com/storefront-kit/engine/internal/store"
)

var (
	// ErrCartInvalidInput indicates the caller supplied a malformed product or quantity.
	ErrCartInvalidInput = errors.New("cart: invalid input")
)

// CartServiceDeps wires the optional collaborators of the cart manager.
type CartServiceDeps struct {
	Clock       func() time.Time
	IDGenerator func() string
	Logger      EventLogger
}

type cartService struct {
	mu     sync.Mutex
	store  *store.Store[domain.CartState]
	newID  func() string
	now    func() time.Time
	logger EventLogger
}

// NewCartService constructs an empty cart manager.
func NewCartService(deps CartServiceDeps) CartService {
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

	return &cartService{
		store:  store.New(domain.CartState{Items: []domain.CartItem{}}),
		newID:  idGen,
		now:    func() time.Time { return clock().UTC() },
		logger: logger,
	}
}

func (s *cartService) AddItem(product domain.Product, quantity int) (domain.CartState, error) {
	if strings.TrimSpace(product.ID) == "" || quantity < 1 || product.Price < 0 {
		return domain.CartState{}, ErrCartInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	merged := false
	for i := range state.Items {
		if state.Items[i].Product.ID == product.ID {
			state.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		state.Items = append(state.Items, domain.CartItem{
			ID:       s.newID(),
			Product:  product.Clone(),
			Quantity: quantity,
			AddedAt:  s.now(),
		})
	}

	next := s.commit(state)
	s.logger(context.Background(), "cart.item_added", map[string]any{
		"productID": product.ID,
		"quantity":  quantity,
		"merged":    merged,
	})
	return next, nil
}

func (s *cartService) RemoveItem(itemID string) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for i := range state.Items {
		if state.Items[i].ID == itemID {
			state.Items = append(state.Items[:i], state.Items[i+1:]...)
			return s.commit(state)
		}
	}
	// Absent lines are tolerated so UI event handlers stay simple.
	return state
}

func (s *cartService) UpdateQuantity(itemID string, quantity int) domain.CartState {
	if quantity <= 0 {
		return s.RemoveItem(itemID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for i := range state.Items {
		if state.Items[i].ID == itemID {
			state.Items[i].Quantity = quantity
			return s.commit(state)
		}
	}
	return state
}

func (s *cartService) Clear() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(domain.CartState{Items: []domain.CartItem{}})
}

func (s *cartService) ReplaceState(state domain.CartState) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(state.Clone())
}

func (s *cartService) State() domain.CartState {
	return s.store.GetState().Clone()
}

func (s *cartService) Subscribe(fn func(domain.CartState)) func() {
	if fn == nil {
		return func() {}
	}
	return s.store.Subscribe(func(state domain.CartState) {
		fn(state.Clone())
	})
}

// commit recomputes derived totals and publishes the snapshot. Totals are
// always derived from the lines, never mutated independently.
func (s *cartService) commit(state domain.CartState) domain.CartState {
	if state.Items == nil {
		state.Items = []domain.CartItem{}
	}
	total := 0.0
	count := 0
	for _, item := range state.Items {
		total += item.Product.Price * float64(item.Quantity)
		count += item.Quantity
	}
	state.Total = total
	state.ItemCount = count

	s.store.SetState(state)
	return state.Clone()
}
