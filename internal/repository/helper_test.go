package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

func setupTestDB(t *testing.T) *testDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection to :memory: would see its own empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Entities()...))

	return &testDB{
		DB:    pg.NewFromGorm(db, db),
		rawDB: db,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func (db *testDB) seedClient(t *testing.T, id int64) {
	require.NoError(t, db.rawDB.Create(&ClientEntity{ID: id, Name: fmt.Sprintf("client %d", id)}).Error)
}

func (db *testDB) seedSeller(t *testing.T, id int64, routeID *int64) {
	require.NoError(t, db.rawDB.Create(&SellerEntity{ID: id, Name: fmt.Sprintf("seller %d", id), RouteID: routeID}).Error)
}

func (db *testDB) seedProduct(t *testing.T, id int64, price string) {
	require.NoError(t, db.rawDB.Create(&ProductEntity{ID: id, Name: fmt.Sprintf("product %d", id), Price: dec(price)}).Error)
}

func (db *testDB) seedOrder(t *testing.T, clientID, sellerID int64, total string, productIDs ...int64) *model.Order {
	ctx := context.Background()
	repo := NewOrderRepository(db.DB)
	now := time.Now().UTC().Truncate(time.Second)
	order, err := repo.Create(ctx, &model.Order{
		ClientID:  clientID,
		SellerID:  sellerID,
		CreatedAt: now,
		Date:      now,
		Subtotal:  dec(total),
		Total:     dec(total),
		Status:    model.OrderStatusActive,
	})
	require.NoError(t, err)

	items := make([]*model.LineItem, len(productIDs))
	for i, pid := range productIDs {
		items[i] = &model.LineItem{ProductID: pid, Quantity: 1, UnitPrice: dec("1")}
	}
	order.Items, err = repo.CreateItems(ctx, order.ID, items)
	require.NoError(t, err)
	return order
}

func (db *testDB) seedSale(t *testing.T, clientID, sellerID int64, document, value string) *model.Transaction {
	sale, err := NewTransactionRepository(db.DB).Create(context.Background(), &model.Transaction{
		Kind:        model.TransactionKindSale,
		Document:    document,
		ClientID:    clientID,
		SellerID:    sellerID,
		Date:        time.Now().UTC(),
		Value:       dec(value),
		Outstanding: dec(value),
	})
	require.NoError(t, err)
	return sale
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
