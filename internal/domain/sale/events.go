package sale

import (
	"time"

	"github.com/storekit/pos/internal/domain/money"
)

// SaleCompletedEvent is emitted once a checkout has persisted a sale and
// committed its stock reservations.
type SaleCompletedEvent struct {
	SaleID      string
	TotalAmount money.Cents
	Items       []Item
	OccurredAt  time.Time
}

func (SaleCompletedEvent) EventName() string { return "sale.completed" }

func NewSaleCompletedEvent(s *Sale) SaleCompletedEvent {
	return SaleCompletedEvent{
		SaleID:      s.ID,
		TotalAmount: s.TotalAmount,
		Items:       append([]Item(nil), s.Items...),
		OccurredAt:  time.Now().UTC(),
	}
}
