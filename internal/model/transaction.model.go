package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind tags a ledger row. The two-letter codes are what receipts
// and the reference lookup use.
type TransactionKind string

const (
	TransactionKindSale    TransactionKind = "VE"
	TransactionKindPayment TransactionKind = "IN"
)

// DocumentWidth is the zero-padded width of every document number.
const DocumentWidth = 8

func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionKindSale:
		return TransactionKindSale, nil
	case TransactionKindPayment:
		return TransactionKindPayment, nil
	}
	return "", fmt.Errorf("kind must be %q or %q, got %q", TransactionKindSale, TransactionKindPayment, s)
}

// FormatDocument renders n as a DocumentWidth zero-padded decimal string.
func FormatDocument(n int64) string {
	return fmt.Sprintf("%0*d", DocumentWidth, n)
}

type Transaction struct {
	ID       int64           `json:"id"`
	Kind     TransactionKind `json:"kind"`
	Document string          `json:"document"`
	ClientID int64           `json:"client_id"`
	SellerID int64           `json:"seller_id"`
	Date     time.Time       `json:"date"`
	Value    decimal.Decimal `json:"value"`

	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Check    decimal.Decimal `json:"check"`
	Transfer decimal.Decimal `json:"transfer"`

	// Outstanding is authoritative for sale rows only and is always zero on payments.
	Outstanding decimal.Decimal `json:"outstanding"`
	Concept     string          `json:"concept"`
	ReferenceID *int64          `json:"reference_id,omitempty"`
	OrderID     *int64          `json:"order_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (t *Transaction) IsSale() bool { return t.Kind == TransactionKindSale }

type MethodBreakdown struct {
	Cash     decimal.Decimal `json:"cash"     validate:"gte=0"`
	Card     decimal.Decimal `json:"card"     validate:"gte=0"`
	Check    decimal.Decimal `json:"check"    validate:"gte=0"`
	Transfer decimal.Decimal `json:"transfer" validate:"gte=0"`
}

func (m MethodBreakdown) Sum() decimal.Decimal {
	return m.Cash.Add(m.Card).Add(m.Check).Add(m.Transfer)
}

func (m MethodBreakdown) IsZero() bool {
	return m.Cash.IsZero() && m.Card.IsZero() && m.Check.IsZero() && m.Transfer.IsZero()
}

type PaymentRequest struct {
	SaleTransactionID int64           `json:"sale_transaction_id" validate:"gt=0"`
	Amount            decimal.Decimal `json:"amount"              validate:"gt=0"`
	Methods           MethodBreakdown `json:"methods"`
	Concept           string          `json:"concept"             validate:"max=255"`
}

// MoneyScale is the number of decimal places a submitted amount may carry.
const MoneyScale = 2

var (
	ErrBreakdownMismatch = errors.New("methods: breakdown does not add up to amount")
	ErrAmountScale       = fmt.Errorf("amount: at most %d decimal places", MoneyScale)
)

func hasMoneyScale(d decimal.Decimal) bool {
	return d.Round(MoneyScale).Equal(d)
}

func (p PaymentRequest) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	for _, d := range []decimal.Decimal{p.Amount, p.Methods.Cash, p.Methods.Card, p.Methods.Check, p.Methods.Transfer} {
		if !hasMoneyScale(d) {
			return ErrAmountScale
		}
	}
	if !p.Methods.IsZero() && !p.Methods.Sum().Equal(p.Amount) {
		return ErrBreakdownMismatch
	}
	return nil
}

// Breakdown returns the method split to book. An empty split is booked as cash.
func (p PaymentRequest) Breakdown() MethodBreakdown {
	if p.Methods.IsZero() {
		return MethodBreakdown{Cash: p.Amount}
	}
	return p.Methods
}

type PaymentReference struct {
	ID              int64           `json:"id"`
	TransactionID   int64           `json:"transaction_id"`
	PaymentDocument *string         `json:"payment_document"`
	SaleDocument    string          `json:"sale_document"`
	ClientID        int64           `json:"client_id"`
	SellerID        int64           `json:"seller_id"`
	Amount          decimal.Decimal `json:"amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaymentResult is what applying a payment produces.
type PaymentResult struct {
	Payment   *Transaction      `json:"payment"`
	Reference *PaymentReference `json:"reference"`
	Sale      *Transaction      `json:"sale"`
}

type ReferenceWithPayment struct {
	*PaymentReference
	Payment *Transaction `json:"payment"`
}

// DocumentReferences is the reference lookup for one document. For payment
// documents Transaction is the payment and References its links (never nil).
// For sale documents References carries every payment applied to it.
type DocumentReferences struct {
	Kind        TransactionKind         `json:"kind"`
	Document    string                  `json:"document"`
	Transaction *Transaction            `json:"transaction,omitempty"`
	References  []*ReferenceWithPayment `json:"references"`
}

// DocumentBackfill reports what a document backfill changed.
type DocumentBackfill struct {
	Transaction       *Transaction `json:"transaction"`
	Document          string       `json:"document"`
	Assigned          bool         `json:"assigned"`
	ReferencesUpdated int64        `json:"references_updated"`
}
