package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/pos/internal/domain/catalog"
	"github.com/storekit/pos/internal/domain/money"
	"github.com/storekit/pos/internal/domain/stock"
)

func snap(id, code, name string, price money.Cents, available int) *catalog.Snapshot {
	return &catalog.Snapshot{
		Product: catalog.Product{
			ID:        id,
			Code:      code,
			Name:      name,
			UnitPrice: price,
		},
		Stock: available,
	}
}

func TestAddLineMergesByProduct(t *testing.T) {
	c := New()
	beans := snap("p1", "4006381333931", "Espresso Beans", 1250, 10)

	_, err := c.AddLine(beans, 2)
	require.NoError(t, err)
	line, err := c.AddLine(beans, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, money.Cents(6250), line.Subtotal())
	assert.Len(t, c.Lines(), 1)
}

func TestAddLinePreservesInsertionOrder(t *testing.T) {
	c := New()
	_, err := c.AddLine(snap("p2", "c2", "Second", 100, 10), 1)
	require.NoError(t, err)
	_, err = c.AddLine(snap("p1", "c1", "First", 100, 10), 1)
	require.NoError(t, err)
	_, err = c.AddLine(snap("p3", "c3", "Third", 100, 10), 1)
	require.NoError(t, err)

	// Merging into an existing line must not move it.
	_, err = c.AddLine(snap("p1", "c1", "First", 100, 10), 2)
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "p2", lines[0].ProductID)
	assert.Equal(t, "p1", lines[1].ProductID)
	assert.Equal(t, "p3", lines[2].ProductID)
	assert.Equal(t, 3, lines[1].Quantity)
}

func TestAddLineChecksMergedQuantityAgainstStock(t *testing.T) {
	c := New()
	mug := snap("p1", "c1", "Mug", 1000, 4)

	_, err := c.AddLine(mug, 2)
	require.NoError(t, err)

	_, err = c.AddLine(mug, 3)
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	var shortfall *stock.InsufficientStockError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, "p1", shortfall.ProductID)
	assert.Equal(t, 5, shortfall.Requested)
	assert.Equal(t, 4, shortfall.Available)

	// The rejected add leaves the cart untouched.
	assert.Equal(t, 2, c.Quantity("p1"))
	assert.Equal(t, money.Cents(2000), c.Total())
}

func TestAddLineValidation(t *testing.T) {
	c := New()

	_, err := c.AddLine(snap("p1", "c1", "Mug", 1000, 4), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.AddLine(nil, 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	assert.True(t, c.Empty())
}

func TestIncrement(t *testing.T) {
	t.Run("bumps an existing line", func(t *testing.T) {
		c := New()
		_, err := c.AddLine(snap("p1", "c1", "Mug", 1000, 5), 2)
		require.NoError(t, err)

		line, err := c.Increment("p1", 5)
		require.NoError(t, err)
		require.NotNil(t, line)
		assert.Equal(t, 3, line.Quantity)
	})

	t.Run("is a no-op for absent products", func(t *testing.T) {
		c := New()

		line, err := c.Increment("ghost", 5)
		require.NoError(t, err)
		assert.Nil(t, line)
	})

	t.Run("respects available stock", func(t *testing.T) {
		c := New()
		_, err := c.AddLine(snap("p1", "c1", "Mug", 1000, 2), 2)
		require.NoError(t, err)

		line, err := c.Increment("p1", 2)
		require.ErrorIs(t, err, stock.ErrInsufficientStock)
		assert.Nil(t, line)

		var shortfall *stock.InsufficientStockError
		require.ErrorAs(t, err, &shortfall)
		assert.Equal(t, 3, shortfall.Requested)
		assert.Equal(t, 2, shortfall.Available)
		assert.Equal(t, 2, c.Quantity("p1"))
	})
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	_, err := c.AddLine(snap("p1", "c1", "Mug", 1000, 10), 2)
	require.NoError(t, err)
	_, err = c.AddLine(snap("p2", "c2", "Pot", 2500, 10), 1)
	require.NoError(t, err)

	c.Remove("ghost")
	assert.Len(t, c.Lines(), 2)

	c.Remove("p1")
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)
	assert.Equal(t, 0, c.Quantity("p1"))

	c.Clear()
	assert.True(t, c.Empty())
	assert.Equal(t, money.Cents(0), c.Total())
}

func TestTotalSumsLineSubtotals(t *testing.T) {
	c := New()
	_, err := c.AddLine(snap("p1", "c1", "Mug", 1000, 10), 2)
	require.NoError(t, err)
	_, err = c.AddLine(snap("p2", "c2", "Pot", 2500, 10), 1)
	require.NoError(t, err)

	assert.Equal(t, money.Cents(4500), c.Total())
	assert.Equal(t, "45.00", c.Total().String())
}

func TestLinesReturnsCopies(t *testing.T) {
	c := New()
	_, err := c.AddLine(snap("p1", "c1", "Mug", 1000, 10), 2)
	require.NoError(t, err)

	lines := c.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 2, c.Quantity("p1"))
}
