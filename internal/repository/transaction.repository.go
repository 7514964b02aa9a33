package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrDuplicateTransaction    = errors.New("transaction document or order already recorded")
	ErrInsufficientOutstanding = errors.New("amount exceeds outstanding balance")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if pg.IsUniqueViolation(err) {
			return nil, ErrDuplicateTransaction
		}
		return nil, err
	}

	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	return r.first(r.Read(ctx).WithContext(ctx).Where("id = ?", id))
}

// GetByIDForUpdate locks the row until the surrounding transaction ends.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error) {
	return r.first(r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *TransactionRepository) GetByDocument(ctx context.Context, kind model.TransactionKind, document string) (*model.Transaction, error) {
	return r.first(r.Read(ctx).WithContext(ctx).Where("kind = ? AND document = ?", string(kind), document))
}

func (r *TransactionRepository) first(q *gorm.DB) (*model.Transaction, error) {
	var entity TransactionEntity
	if err := q.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

func (r *TransactionRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.Transaction, error) {
	out := make(map[int64]*model.Transaction, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var entities []*TransactionEntity
	if err := r.Read(ctx).WithContext(ctx).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.ID] = toTransactionModel(e)
	}
	return out, nil
}

// NextDocumentNumber formats one past the larger of the highest transaction
// id and the highest numeric payment document. Backfilled payments take a
// number without adding a row, so the id alone can lag behind the documents
// already handed out. It reserves nothing: two concurrent callers can read
// the same value, and the (kind, document) unique index rejects the loser.
func (r *TransactionRepository) NextDocumentNumber(ctx context.Context) (string, error) {
	db := r.Write(ctx).WithContext(ctx)

	var maxID int64
	err := db.Model(&TransactionEntity{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).
		Error
	if err != nil {
		return "", err
	}

	var highest []string
	err = db.Model(&TransactionEntity{}).
		Where("kind = ? AND document <> ''", string(model.TransactionKindPayment)).
		Order("LENGTH(document) DESC, document DESC").
		Limit(1).
		Pluck("document", &highest).
		Error
	if err != nil {
		return "", err
	}

	next := maxID
	if len(highest) > 0 {
		if n, err := strconv.ParseInt(highest[0], 10, 64); err == nil && n > next {
			next = n
		}
	}
	return model.FormatDocument(next + 1), nil
}

// DecrementOutstanding subtracts amount from a sale's outstanding value in a
// single relative update. The guard in the WHERE clause makes an over-payment
// update zero rows instead of driving the balance negative.
func (r *TransactionRepository) DecrementOutstanding(ctx context.Context, saleID int64, amount decimal.Decimal) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ? AND kind = ? AND outstanding >= ?", saleID, string(model.TransactionKindSale), amount).
		Update("outstanding", gorm.Expr("outstanding - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, saleID); err != nil {
			return err
		}
		return ErrInsufficientOutstanding
	}
	return nil
}

// AttachReference sets the back-reference of a payment that has none yet.
func (r *TransactionRepository) AttachReference(ctx context.Context, id int64, referenceID int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ? AND reference_id IS NULL", id).
		Update("reference_id", referenceID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// AssignDocumentIfMissing stores document on a row whose document is blank.
// It reports whether the row was changed.
func (r *TransactionRepository) AssignDocumentIfMissing(ctx context.Context, id int64, document string) (bool, error) {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Where("id = ? AND document = ''", id).
		Update("document", document)
	if result.Error != nil {
		if pg.IsUniqueViolation(result.Error) {
			return false, ErrDuplicateTransaction
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type PendingFilter struct {
	// SellerIDs restricts to these sellers; nil means every seller.
	SellerIDs []int64
	ClientID  *int64
}

// ListPending returns sale rows that still carry an outstanding balance.
func (r *TransactionRepository) ListPending(ctx context.Context, f PendingFilter) ([]*model.Transaction, error) {
	q := r.Read(ctx).WithContext(ctx).
		Where("kind = ? AND outstanding > 0", string(model.TransactionKindSale))

	if f.SellerIDs != nil {
		if len(f.SellerIDs) == 0 {
			return []*model.Transaction{}, nil
		}
		q = q.Where("seller_id IN ?", f.SellerIDs)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}

	var entities []*TransactionEntity
	if err := q.Order("date ASC, id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}
