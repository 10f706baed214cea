package stock

// reservationState tracks the lifecycle of one reservation. Transitions are
// guarded by the owning entry's lock.
type reservationState int

const (
	statePending reservationState = iota
	stateCommitted
	stateReleased
)

// Reservation is a provisional decrement of available stock. It stays
// revocable via Ledger.Release until Ledger.Commit finalizes it.
type Reservation struct {
	entry     *entry
	productID string
	quantity  int
	state     reservationState
}

func (r *Reservation) ProductID() string { return r.productID }

func (r *Reservation) Quantity() int { return r.quantity }

// Committed reports whether the reservation has been finalized.
func (r *Reservation) Committed() bool {
	r.entry.mu.Lock()
	defer r.entry.mu.Unlock()
	return r.state == stateCommitted
}
