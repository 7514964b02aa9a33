package repository

import (
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID          int64           `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	Kind        string          `db:"kind"            gorm:"column:kind;type:varchar(2);not null;uniqueIndex:idx_transactions_kind_document,where:document <> '';index:idx_transactions_pending,priority:1"`
	Document    string          `db:"document"        gorm:"column:document;type:varchar(16);not null;default:'';uniqueIndex:idx_transactions_kind_document,where:document <> ''"`
	ClientID    int64           `db:"client_id"       gorm:"column:client_id;not null;index"`
	SellerID    int64           `db:"seller_id"       gorm:"column:seller_id;not null;index"`
	Date        time.Time       `db:"date"            gorm:"column:date;not null"`
	Value       decimal.Decimal `db:"value"           gorm:"column:value;type:decimal(20,4);not null"`
	Cash        decimal.Decimal `db:"cash_amount"     gorm:"column:cash_amount;type:decimal(20,4);not null;default:0"`
	Card        decimal.Decimal `db:"card_amount"     gorm:"column:card_amount;type:decimal(20,4);not null;default:0"`
	Check       decimal.Decimal `db:"check_amount"    gorm:"column:check_amount;type:decimal(20,4);not null;default:0"`
	Transfer    decimal.Decimal `db:"transfer_amount" gorm:"column:transfer_amount;type:decimal(20,4);not null;default:0"`
	Outstanding decimal.Decimal `db:"outstanding"     gorm:"column:outstanding;type:decimal(20,4);not null;default:0;index:idx_transactions_pending,priority:2"`
	Concept     string          `db:"concept"         gorm:"column:concept;not null;default:''"`
	ReferenceID *int64          `db:"reference_id"    gorm:"column:reference_id"`
	OrderID     *int64          `db:"order_id"        gorm:"column:order_id;uniqueIndex"`
	CreatedAt   time.Time       `db:"created_at"      gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type PaymentReferenceEntity struct {
	ID              int64           `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID   int64           `db:"transaction_id"   gorm:"column:transaction_id;not null;index"`
	PaymentDocument *string         `db:"payment_document" gorm:"column:payment_document;type:varchar(16);index"`
	SaleDocument    string          `db:"sale_document"    gorm:"column:sale_document;type:varchar(16);not null;index"`
	ClientID        int64           `db:"client_id"        gorm:"column:client_id;not null"`
	SellerID        int64           `db:"seller_id"        gorm:"column:seller_id;not null"`
	Amount          decimal.Decimal `db:"amount"           gorm:"column:amount;type:decimal(20,4);not null"`
	CreatedAt       time.Time       `db:"created_at"       gorm:"column:created_at;autoCreateTime"`
}

func (PaymentReferenceEntity) TableName() string {
	return "payment_references"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:          m.ID,
		Kind:        string(m.Kind),
		Document:    m.Document,
		ClientID:    m.ClientID,
		SellerID:    m.SellerID,
		Date:        m.Date,
		Value:       m.Value,
		Cash:        m.Cash,
		Card:        m.Card,
		Check:       m.Check,
		Transfer:    m.Transfer,
		Outstanding: m.Outstanding,
		Concept:     m.Concept,
		ReferenceID: m.ReferenceID,
		OrderID:     m.OrderID,
		CreatedAt:   m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:          e.ID,
		Kind:        model.TransactionKind(e.Kind),
		Document:    e.Document,
		ClientID:    e.ClientID,
		SellerID:    e.SellerID,
		Date:        e.Date,
		Value:       e.Value,
		Cash:        e.Cash,
		Card:        e.Card,
		Check:       e.Check,
		Transfer:    e.Transfer,
		Outstanding: e.Outstanding,
		Concept:     e.Concept,
		ReferenceID: e.ReferenceID,
		OrderID:     e.OrderID,
		CreatedAt:   e.CreatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

func toPaymentReferenceEntity(m *model.PaymentReference) *PaymentReferenceEntity {
	if m == nil {
		return nil
	}
	return &PaymentReferenceEntity{
		ID:              m.ID,
		TransactionID:   m.TransactionID,
		PaymentDocument: m.PaymentDocument,
		SaleDocument:    m.SaleDocument,
		ClientID:        m.ClientID,
		SellerID:        m.SellerID,
		Amount:          m.Amount,
		CreatedAt:       m.CreatedAt,
	}
}

func toPaymentReferenceModel(e *PaymentReferenceEntity) *model.PaymentReference {
	if e == nil {
		return nil
	}
	return &model.PaymentReference{
		ID:              e.ID,
		TransactionID:   e.TransactionID,
		PaymentDocument: e.PaymentDocument,
		SaleDocument:    e.SaleDocument,
		ClientID:        e.ClientID,
		SellerID:        e.SellerID,
		Amount:          e.Amount,
		CreatedAt:       e.CreatedAt,
	}
}

func toPaymentReferenceModels(entities []*PaymentReferenceEntity) []*model.PaymentReference {
	models := make([]*model.PaymentReference, len(entities))
	for i, e := range entities {
		models[i] = toPaymentReferenceModel(e)
	}
	return models
}
