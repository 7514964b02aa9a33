package repository

import (
	"context"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/pkg/pg"
)

type PaymentReferenceRepository struct {
	*pg.DB
}

func NewPaymentReferenceRepository(db *pg.DB) *PaymentReferenceRepository {
	return &PaymentReferenceRepository{
		db,
	}
}

func (r *PaymentReferenceRepository) Create(ctx context.Context, ref *model.PaymentReference) (*model.PaymentReference, error) {
	entity := toPaymentReferenceEntity(ref)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toPaymentReferenceModel(entity), nil
}

// ListByTransaction returns the links owned by a payment, oldest first. The
// result is never nil.
func (r *PaymentReferenceRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*model.PaymentReference, error) {
	var entities []*PaymentReferenceEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toPaymentReferenceModels(entities), nil
}

// ListBySaleDocument returns every payment applied to a sale document, oldest first.
func (r *PaymentReferenceRepository) ListBySaleDocument(ctx context.Context, saleDocument string) ([]*model.PaymentReference, error) {
	var entities []*PaymentReferenceEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("sale_document = ?", saleDocument).
		Order("id").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toPaymentReferenceModels(entities), nil
}

// FillMissingPaymentDocument sets document on the links of transactionID
// whose payment document is blank or NULL. The two conditions are swept in
// separate passes; the total of rows touched is returned.
func (r *PaymentReferenceRepository) FillMissingPaymentDocument(ctx context.Context, transactionID int64, document string) (int64, error) {
	db := r.Write(ctx).WithContext(ctx)

	blank := db.Model(&PaymentReferenceEntity{}).
		Where("transaction_id = ? AND payment_document = ''", transactionID).
		Update("payment_document", document)
	if blank.Error != nil {
		return 0, blank.Error
	}

	absent := db.Model(&PaymentReferenceEntity{}).
		Where("transaction_id = ? AND payment_document IS NULL", transactionID).
		Update("payment_document", document)
	if absent.Error != nil {
		return 0, absent.Error
	}

	return blank.RowsAffected + absent.RowsAffected, nil
}
