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

// ErrWishlistInvalidInput indicates the caller supplied a malformed product.
var ErrWishlistInvalidInput = errors.New("wishlist: invalid input")

// WishlistServiceDeps wires the optional collaborators of the wishlist manager.
type WishlistServiceDeps struct {
	Clock       func() time.Time
	IDGenerator func() string
	Logger      EventLogger
}

type wishlistService struct {
	mu     sync.Mutex
	store  *store.Store[domain.WishlistState]
	newID  func() string
	now    func() time.Time
	logger EventLogger
}

// NewWishlistService constructs an empty wishlist manager.
func NewWishlistService(deps WishlistServiceDeps) WishlistService {
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

	return &wishlistService{
		store:  store.New(domain.WishlistState{Items: []domain.WishlistItem{}}),
		newID:  idGen,
		now:    func() time.Time { return clock().UTC() },
		logger: logger,
	}
}

func (s *wishlistService) AddItem(product domain.Product, notes string, metadata map[string]any) (domain.WishlistState, error) {
	if strings.TrimSpace(product.ID) == "" {
		return domain.WishlistState{}, ErrWishlistInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for _, item := range state.Items {
		if item.Product.ID == product.ID {
			// Already saved; adding twice is a no-op.
			return state, nil
		}
	}

	state.Items = append(state.Items, domain.WishlistItem{
		ID:       s.newID(),
		Product:  product.Clone(),
		Notes:    notes,
		Metadata: domain.CloneAnyMap(metadata),
		AddedAt:  s.now(),
	})

	next := s.commit(state)
	s.logger(context.Background(), "wishlist.item_added", map[string]any{
		"productID": product.ID,
	})
	return next, nil
}

func (s *wishlistService) RemoveItem(itemID string) domain.WishlistState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for i := range state.Items {
		if state.Items[i].ID == itemID {
			state.Items = append(state.Items[:i], state.Items[i+1:]...)
			return s.commit(state)
		}
	}
	return state
}

func (s *wishlistService) RemoveProduct(productID string) domain.WishlistState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for i := range state.Items {
		if state.Items[i].Product.ID == productID {
			state.Items = append(state.Items[:i], state.Items[i+1:]...)
			return s.commit(state)
		}
	}
	return state
}

func (s *wishlistService) HasProduct(productID string) bool {
	state := s.store.GetState()
	for _, item := range state.Items {
		if item.Product.ID == productID {
			return true
		}
	}
	return false
}

func (s *wishlistService) ItemByProductID(productID string) (domain.WishlistItem, bool) {
	state := s.store.GetState()
	for _, item := range state.Items {
		if item.Product.ID == productID {
			return item.Clone(), true
		}
	}
	return domain.WishlistItem{}, false
}

func (s *wishlistService) UpdateItemNotes(itemID string, notes string) domain.WishlistState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.GetState().Clone()
	for i := range state.Items {
		if state.Items[i].ID == itemID {
			state.Items[i].Notes = notes
			return s.commit(state)
		}
	}
	return state
}

func (s *wishlistService) Clear() domain.WishlistState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(domain.WishlistState{Items: []domain.WishlistItem{}})
}

func (s *wishlistService) State() domain.WishlistState {
	return s.store.GetState().Clone()
}

func (s *wishlistService) Subscribe(fn func(domain.WishlistState)) func() {
	if fn == nil {
		return func() {}
	}
	return s.store.Subscribe(func(state domain.WishlistState) {
		fn(state.Clone())
	})
}

func (s *wishlistService) commit(state domain.WishlistState) domain.WishlistState {
	if state.Items == nil {
		state.Items = []domain.WishlistItem{}
	}
	s.store.SetState(state)
	return state.Clone()
}
