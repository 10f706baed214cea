package sale

import (
	"context"
	"errors"
	"time"

	"github.com/storekit/pos/internal/domain/money"
)

var (
	ErrNotFound        = errors.New("sale: not found")
	ErrConflict        = errors.New("sale: already exists")
	ErrNoItems         = errors.New("sale: at least one item is required")
	ErrInvalidQuantity = errors.New("sale: item quantity must be greater than zero")
)

// Item is one sold position. The unit price is the cart snapshot the operator
// sold at, not the catalog price at persist time.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice money.Cents
}

func (i Item) Subtotal() money.Cents {
	return i.UnitPrice.MulQty(i.Quantity)
}

// Sale is the finalized record of a checkout. TotalAmount always equals the
// sum of the item subtotals; the constructor computes it and nothing mutates
// a sale afterwards.
type Sale struct {
	ID          string
	TotalAmount money.Cents
	CreatedAt   time.Time
	Items       []Item
}

func New(id string, items []Item) (*Sale, error) {
	if id == "" {
		return nil, errors.New("sale: id is required")
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	var total money.Cents
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total += it.Subtotal()
	}

	return &Sale{
		ID:          id,
		TotalAmount: total,
		CreatedAt:   time.Now().UTC(),
		Items:       append([]Item(nil), items...),
	}, nil
}

// Clone returns a deep copy, keeping stored sales isolated from callers.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Items = append([]Item(nil), s.Items...)
	return &clone
}

// Repository persists finalized sales. Create writes the sale and its items
// as one atomic unit; there are no update or delete operations.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	FindByID(ctx context.Context, id string) (*Sale, error)
}
