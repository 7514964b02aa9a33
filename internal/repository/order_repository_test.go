package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db.DB)
	ctx := context.Background()

	t.Run("create with items", func(t *testing.T) {
		order := db.seedOrder(t, 1, 1, "30", 10, 11)
		assert.NotZero(t, order.ID)
		require.Len(t, order.Items, 2)
		for _, it := range order.Items {
			assert.Equal(t, order.ID, it.OrderID)
			assert.NotZero(t, it.ID)
		}

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusActive, got.Status)
		assertDecimal(t, "30", got.Total)

		items, err := repo.ItemsByOrderIDs(ctx, []int64{order.ID})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("duplicate product in one order", func(t *testing.T) {
		order := db.seedOrder(t, 1, 1, "10", 10)
		_, err := repo.CreateItems(ctx, order.ID, []*model.LineItem{{ProductID: 10, Quantity: 1, UnitPrice: dec("1")}})
		assert.Error(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, ErrOrderNotFound)

		_, err = repo.GetByIDForUpdate(ctx, 999)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestOrderRepository_ReplaceItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db.DB)
	ctx := context.Background()

	order := db.seedOrder(t, 1, 1, "3", 1, 2, 3)
	before, err := repo.ItemsByOrderIDs(ctx, []int64{order.ID})
	require.NoError(t, err)
	idByProduct := map[int64]int64{}
	for _, it := range before {
		idByProduct[it.ProductID] = it.ID
	}

	out, err := repo.ReplaceItems(ctx, order.ID, []*model.LineItem{
		{ProductID: 2, Quantity: 5, UnitPrice: dec("2.50"), TaxAmount: dec("2")},
		{ProductID: 4, Quantity: 1, UnitPrice: dec("9")},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	after, err := repo.ItemsByOrderIDs(ctx, []int64{order.ID})
	require.NoError(t, err)
	require.Len(t, after, 2)

	byProduct := map[int64]*model.LineItem{}
	for _, it := range after {
		byProduct[it.ProductID] = it
	}

	t.Run("kept item updated in place", func(t *testing.T) {
		it := byProduct[2]
		require.NotNil(t, it)
		assert.Equal(t, idByProduct[2], it.ID)
		assert.Equal(t, int64(5), it.Quantity)
		assertDecimal(t, "2.5", it.UnitPrice)
		assertDecimal(t, "2", it.TaxAmount)
	})

	t.Run("new item inserted", func(t *testing.T) {
		require.NotNil(t, byProduct[4])
		assert.Equal(t, order.ID, byProduct[4].OrderID)
	})

	t.Run("missing items removed", func(t *testing.T) {
		assert.Nil(t, byProduct[1])
		assert.Nil(t, byProduct[3])
	})
}

func TestOrderRepository_UpdateHeaderAndStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db.DB)
	ctx := context.Background()

	order := db.seedOrder(t, 1, 1, "10", 1)

	t.Run("update header", func(t *testing.T) {
		order.ClientID = 2
		order.Subtotal = dec("20")
		order.TaxAmount = dec("3.2")
		order.Total = dec("23.2")
		require.NoError(t, repo.UpdateHeader(ctx, order))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ClientID)
		assertDecimal(t, "23.2", got.Total)
	})

	t.Run("update missing order", func(t *testing.T) {
		err := repo.UpdateHeader(ctx, &model.Order{ID: 999, Date: time.Now()})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("guarded transition", func(t *testing.T) {
		require.NoError(t, repo.TransitionStatus(ctx, order.ID, model.OrderStatusActive, model.OrderStatusProcessed))
		err := repo.TransitionStatus(ctx, order.ID, model.OrderStatusActive, model.OrderStatusVoid)
		assert.ErrorIs(t, err, ErrOrderStatusChanged)

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusProcessed, got.Status)
	})
}

func TestOrderRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewOrderRepository(db.DB)
	ctx := context.Background()

	db.seedOrder(t, 1, 1, "10", 1)
	db.seedOrder(t, 1, 2, "20", 1)
	db.seedOrder(t, 2, 2, "30", 1)

	t.Run("all", func(t *testing.T) {
		orders, total, err := repo.List(ctx, model.OrderFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, orders, 3)
	})

	t.Run("by client", func(t *testing.T) {
		orders, total, err := repo.List(ctx, model.OrderFilter{ClientID: ptr(int64(1))})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, orders, 2)
	})

	t.Run("by seller and status", func(t *testing.T) {
		status := model.OrderStatusActive
		orders, _, err := repo.List(ctx, model.OrderFilter{SellerID: ptr(int64(2)), Status: &status})
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		orders, total, err := repo.List(ctx, model.OrderFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, orders, 1)
	})
}
