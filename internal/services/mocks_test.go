package services

import (
	"context"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByDocument(ctx context.Context, kind model.TransactionKind, document string) (*model.Transaction, error) {
	args := m.Called(ctx, kind, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.Transaction, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) NextDocumentNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockTransactionRepository) DecrementOutstanding(ctx context.Context, saleID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, saleID, amount)
	return args.Error(0)
}

func (m *MockTransactionRepository) AttachReference(ctx context.Context, id int64, referenceID int64) error {
	args := m.Called(ctx, id, referenceID)
	return args.Error(0)
}

func (m *MockTransactionRepository) AssignDocumentIfMissing(ctx context.Context, id int64, document string) (bool, error) {
	args := m.Called(ctx, id, document)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ListPending(ctx context.Context, f repository.PendingFilter) ([]*model.Transaction, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

type MockPaymentReferenceRepository struct {
	mock.Mock
}

func (m *MockPaymentReferenceRepository) Create(ctx context.Context, ref *model.PaymentReference) (*model.PaymentReference, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentReference), args.Error(1)
}

func (m *MockPaymentReferenceRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*model.PaymentReference, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PaymentReference), args.Error(1)
}

func (m *MockPaymentReferenceRepository) ListBySaleDocument(ctx context.Context, saleDocument string) ([]*model.PaymentReference, error) {
	args := m.Called(ctx, saleDocument)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PaymentReference), args.Error(1)
}

func (m *MockPaymentReferenceRepository) FillMissingPaymentDocument(ctx context.Context, transactionID int64, document string) (int64, error) {
	args := m.Called(ctx, transactionID, document)
	return args.Get(0).(int64), args.Error(1)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ExistingProductIDs(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCatalogRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]*model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockCatalogRepository) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockCatalogRepository) GetSeller(ctx context.Context, id int64) (*model.Seller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Seller), args.Error(1)
}

func (m *MockCatalogRepository) GetClientsByIDs(ctx context.Context, ids []int64) (map[int64]*model.Client, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*model.Client), args.Error(1)
}

func (m *MockCatalogRepository) GetSellersByIDs(ctx context.Context, ids []int64) (map[int64]*model.Seller, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*model.Seller), args.Error(1)
}

func (m *MockCatalogRepository) SellerIDsByRoute(ctx context.Context, routeID int64) ([]int64, error) {
	args := m.Called(ctx, routeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockReconciliationRepository struct {
	mock.Mock
}

func (m *MockReconciliationRepository) ListOrphans(ctx context.Context) ([]*model.OrphanLineItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OrphanLineItem), args.Error(1)
}

func (m *MockReconciliationRepository) PurgeOrphans(ctx context.Context) ([]*model.OrphanLineItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OrphanLineItem), args.Error(1)
}
