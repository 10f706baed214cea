package memory

import (
	"sync"

	"github.com/storekit/pos/internal/domain/cart"
)

// CartStore hands out the per-session carts. Each session owns exactly one
// cart; Acquire returns it together with an unlock function that serializes
// overlapping requests from the same session. Carts live only as long as the
// process, matching the session-scoped lifetime they model.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart
	locks map[string]*sync.Mutex
}

func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[string]*cart.Cart),
		locks: make(map[string]*sync.Mutex),
	}
}

// Acquire returns the session's cart, creating it on first use, with its
// per-session lock held. The caller must invoke the returned unlock.
func (s *CartStore) Acquire(sessionID string) (*cart.Cart, func()) {
	s.mu.Lock()
	c, ok := s.carts[sessionID]
	if !ok {
		c = cart.New()
		s.carts[sessionID] = c
		s.locks[sessionID] = &sync.Mutex{}
	}
	l := s.locks[sessionID]
	s.mu.Unlock()

	l.Lock()
	return c, l.Unlock
}

// Drop forgets a session's cart, e.g. when the operator signs off.
func (s *CartStore) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	delete(s.locks, sessionID)
}
