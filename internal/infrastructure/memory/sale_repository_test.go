package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/pos/internal/domain/money"
	"github.com/storekit/pos/internal/domain/sale"
)

func TestSaleRepository(t *testing.T) {
	ctx := context.Background()

	newSale := func(t *testing.T, id string) *sale.Sale {
		t.Helper()
		s, err := sale.New(id, []sale.Item{
			{ProductID: "p-1", Quantity: 2, UnitPrice: 1000},
		})
		require.NoError(t, err)
		return s
	}

	t.Run("create and find", func(t *testing.T) {
		repo := NewSaleRepository()
		s := newSale(t, "sale-1")

		require.NoError(t, repo.Create(ctx, s))
		assert.Equal(t, 1, repo.Count())

		found, err := repo.FindByID(ctx, "sale-1")
		require.NoError(t, err)
		assert.Equal(t, money.Cents(2000), found.TotalAmount)
		require.Len(t, found.Items, 1)

		// The stored sale is isolated from the returned copy.
		found.Items[0].Quantity = 99
		again, err := repo.FindByID(ctx, "sale-1")
		require.NoError(t, err)
		assert.Equal(t, 2, again.Items[0].Quantity)
	})

	t.Run("duplicate id", func(t *testing.T) {
		repo := NewSaleRepository()
		require.NoError(t, repo.Create(ctx, newSale(t, "sale-1")))

		err := repo.Create(ctx, newSale(t, "sale-1"))
		assert.ErrorIs(t, err, sale.ErrConflict)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := NewSaleRepository()

		_, err := repo.FindByID(ctx, "ghost")
		assert.ErrorIs(t, err, sale.ErrNotFound)
	})

	t.Run("nil sale", func(t *testing.T) {
		repo := NewSaleRepository()
		assert.Error(t, repo.Create(ctx, nil))
	})
}
