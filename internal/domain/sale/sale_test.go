package sale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/pos/internal/domain/money"
)

func TestNewComputesTotal(t *testing.T) {
	items := []Item{
		{ProductID: "p1", Quantity: 2, UnitPrice: 1000},
		{ProductID: "p2", Quantity: 1, UnitPrice: 2500},
	}

	s, err := New("sale-1", items)
	require.NoError(t, err)

	assert.Equal(t, "sale-1", s.ID)
	assert.Equal(t, money.Cents(4500), s.TotalAmount)
	assert.Len(t, s.Items, 2)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, s.CreatedAt.Location())
}

func TestNewValidation(t *testing.T) {
	_, err := New("sale-1", nil)
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = New("sale-1", []Item{{ProductID: "p1", Quantity: 0, UnitPrice: 100}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = New("", []Item{{ProductID: "p1", Quantity: 1, UnitPrice: 100}})
	assert.Error(t, err)
}

func TestNewCopiesItems(t *testing.T) {
	items := []Item{{ProductID: "p1", Quantity: 1, UnitPrice: 100}}
	s, err := New("sale-1", items)
	require.NoError(t, err)

	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items[0].Quantity)
}

func TestCloneIsolation(t *testing.T) {
	s, err := New("sale-1", []Item{{ProductID: "p1", Quantity: 1, UnitPrice: 100}})
	require.NoError(t, err)

	clone := s.Clone()
	clone.Items[0].Quantity = 99
	clone.TotalAmount = 0

	assert.Equal(t, 1, s.Items[0].Quantity)
	assert.Equal(t, money.Cents(100), s.TotalAmount)
}
