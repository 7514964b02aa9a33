package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testStore wires every service against one in-memory sqlite database.
type testStore struct {
	raw *gorm.DB

	orders         *OrderService
	ledger         *LedgerService
	references     *ReferenceService
	reconciliation *ReconciliationService

	transactions *repository.TransactionRepository
	paymentRefs  *repository.PaymentReferenceRepository
}

func newTestStore(t *testing.T, opts OrderOptions) *testStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Entities()...))

	store := pg.NewFromGorm(db, db)
	orderRepo := repository.NewOrderRepository(store)
	catalogRepo := repository.NewCatalogRepository(store)
	txnRepo := repository.NewTransactionRepository(store)
	refRepo := repository.NewPaymentReferenceRepository(store)

	return &testStore{
		raw:            db,
		orders:         NewOrderService(store, orderRepo, catalogRepo, txnRepo, opts),
		ledger:         NewLedgerService(store, txnRepo, refRepo, catalogRepo),
		references:     NewReferenceService(store, txnRepo, refRepo),
		reconciliation: NewReconciliationService(repository.NewReconciliationRepository(store)),
		transactions:   txnRepo,
		paymentRefs:    refRepo,
	}
}

func untaxed() OrderOptions {
	return OrderOptions{Tax: NewTaxPolicy(0, false)}
}

func (s *testStore) client(t *testing.T, id int64) {
	require.NoError(t, s.raw.Create(&repository.ClientEntity{ID: id, Name: fmt.Sprintf("client %d", id)}).Error)
}

func (s *testStore) seller(t *testing.T, id int64, routeID *int64) {
	require.NoError(t, s.raw.Create(&repository.SellerEntity{ID: id, Name: fmt.Sprintf("seller %d", id), RouteID: routeID}).Error)
}

func (s *testStore) product(t *testing.T, id int64, price string) {
	require.NoError(t, s.raw.Create(&repository.ProductEntity{ID: id, Name: fmt.Sprintf("product %d", id), Price: d(price)}).Error)
}

func (s *testStore) deleteProduct(t *testing.T, id int64) {
	require.NoError(t, s.raw.Delete(&repository.ProductEntity{}, id).Error)
}

func (s *testStore) count(t *testing.T, entity interface{}, where string, args ...interface{}) int64 {
	var n int64
	q := s.raw.Model(entity)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// sale creates and checks out a one-line order for client 1 and sellerID.
func (s *testStore) sale(t *testing.T, sellerID int64, productID int64) *model.Transaction {
	ctx := context.Background()
	order, err := s.orders.Create(ctx, model.OrderRequest{
		ClientID: 1,
		SellerID: sellerID,
		Items:    []model.OrderItemInput{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)
	sale, err := s.orders.Checkout(ctx, order.ID)
	require.NoError(t, err)
	return sale
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
