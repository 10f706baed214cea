package stock

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound          = errors.New("stock: product not tracked")
	ErrInvalidQuantity   = errors.New("stock: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("stock: insufficient stock")
)

// InsufficientStockError reports a reservation that could not be granted. It
// carries the requested and available quantities for operator-facing messages
// and matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock: insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Ledger is the authoritative record of available stock per product. All
// mutations go through TryReserve, Release, and Commit; the per-product lock
// makes each check-and-decrement a single atomic step, so two reservations
// against the same product can never both succeed past the available count.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu        sync.Mutex
	available int
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*entry)}
}

// SetAvailable registers a product or replaces its available quantity.
// Intended for seeding and stock intake, not for sales paths.
func (l *Ledger) SetAvailable(productID string, quantity int) error {
	if productID == "" {
		return errors.New("stock: product id is required")
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	l.mu.Lock()
	e, ok := l.entries[productID]
	if !ok {
		e = &entry{}
		l.entries[productID] = e
	}
	l.mu.Unlock()

	e.mu.Lock()
	e.available = quantity
	e.mu.Unlock()
	return nil
}

// Available reports the quantity currently available for the product.
// Unknown products report zero.
func (l *Ledger) Available(productID string) int {
	l.mu.RLock()
	e, ok := l.entries[productID]
	l.mu.RUnlock()
	if !ok {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// TryReserve atomically checks availability and decrements it, returning a
// provisional reservation. On shortfall it returns *InsufficientStockError
// and leaves the ledger untouched.
func (l *Ledger) TryReserve(productID string, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	l.mu.RLock()
	e, ok := l.entries[productID]
	l.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.available < quantity {
		return nil, &InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: e.available,
		}
	}
	e.available -= quantity

	return &Reservation{entry: e, productID: productID, quantity: quantity, state: statePending}, nil
}

// Release restores the stock held by a pending reservation. Releasing an
// already released or committed reservation is a no-op.
func (l *Ledger) Release(r *Reservation) {
	if r == nil || r.entry == nil {
		return
	}

	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	if r.state != statePending {
		return
	}
	r.entry.available += r.quantity
	r.state = stateReleased
}

// Commit finalizes a pending reservation. The stock was already decremented
// by TryReserve, so committing only makes the reservation non-releasable.
func (l *Ledger) Commit(r *Reservation) {
	if r == nil || r.entry == nil {
		return
	}

	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	if r.state != statePending {
		return
	}
	r.state = stateCommitted
}
