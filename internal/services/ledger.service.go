package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/nimasrn/collections-ledger/pkg/prom"
	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Transaction, error)
	GetByDocument(ctx context.Context, kind model.TransactionKind, document string) (*model.Transaction, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.Transaction, error)
	NextDocumentNumber(ctx context.Context) (string, error)
	DecrementOutstanding(ctx context.Context, saleID int64, amount decimal.Decimal) error
	AttachReference(ctx context.Context, id int64, referenceID int64) error
	AssignDocumentIfMissing(ctx context.Context, id int64, document string) (bool, error)
	ListPending(ctx context.Context, f repository.PendingFilter) ([]*model.Transaction, error)
}

type PaymentReferenceRepository interface {
	Create(ctx context.Context, ref *model.PaymentReference) (*model.PaymentReference, error)
	ListByTransaction(ctx context.Context, transactionID int64) ([]*model.PaymentReference, error)
	ListBySaleDocument(ctx context.Context, saleDocument string) ([]*model.PaymentReference, error)
	FillMissingPaymentDocument(ctx context.Context, transactionID int64, document string) (int64, error)
}

// conflictRetries is how many times a payment is re-run after losing a
// document number race.
const conflictRetries = 1

type LedgerService struct {
	tx           Transactor
	transactions TransactionRepository
	references   PaymentReferenceRepository
	catalog      CatalogRepository
	now          func() time.Time
}

func NewLedgerService(tx Transactor, transactions TransactionRepository, references PaymentReferenceRepository, catalog CatalogRepository) *LedgerService {
	return &LedgerService{
		tx:           tx,
		transactions: transactions,
		references:   references,
		catalog:      catalog,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ApplyPayment books amount against a sale. The payment row, its reference
// and the decrement of the sale's outstanding value commit together or not
// at all.
func (s *LedgerService) ApplyPayment(ctx context.Context, req model.PaymentRequest) (*model.PaymentResult, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		prom.ObservePaymentDuration(time.Since(start).Seconds(), "rejected")
		if errors.Is(err, model.ErrBreakdownMismatch) {
			return nil, &ValidationError{Field: "methods", Message: "breakdown does not add up to amount", Err: err}
		}
		if errors.Is(err, model.ErrAmountScale) {
			return nil, &ValidationError{Field: "amount", Message: err.Error(), Err: err}
		}
		return nil, invalidInput(err)
	}

	var (
		result *model.PaymentResult
		err    error
	)
	for attempt := 0; ; attempt++ {
		result, err = s.applyPayment(ctx, req)
		if err == nil || !IsConflict(err) || attempt >= conflictRetries {
			break
		}
		prom.IncPaymentConflict()
		logger.Warn("payment document collided, retrying", "sale_id", req.SaleTransactionID, "attempt", attempt+1)
	}
	if err != nil {
		if IsConflict(err) {
			prom.IncPaymentConflict()
		}
		prom.ObservePaymentDuration(time.Since(start).Seconds(), outcomeOf(err))
		logFailure("ledger.apply_payment", err, "sale_id", req.SaleTransactionID)
		return nil, err
	}

	prom.IncPaymentApplied()
	prom.ObservePaymentDuration(time.Since(start).Seconds(), "applied")
	logger.Info("payment applied",
		"sale_id", result.Sale.ID,
		"sale_document", result.Sale.Document,
		"payment_id", result.Payment.ID,
		"document", result.Payment.Document)
	return result, nil
}

func (s *LedgerService) applyPayment(ctx context.Context, req model.PaymentRequest) (*model.PaymentResult, error) {
	var result *model.PaymentResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.transactions.GetByIDForUpdate(ctx, req.SaleTransactionID)
		if err != nil {
			if errors.Is(err, repository.ErrTransactionNotFound) {
				return notFound("sale", req.SaleTransactionID, err)
			}
			return err
		}
		if !sale.IsSale() {
			return newValidationError("sale_transaction_id", fmt.Sprintf("transaction %d is not a sale", sale.ID))
		}
		if req.Amount.GreaterThan(sale.Outstanding) {
			return newValidationError("amount", fmt.Sprintf("amount %s exceeds outstanding %s", req.Amount.StringFixed(2), sale.Outstanding.StringFixed(2)))
		}

		document, err := s.transactions.NextDocumentNumber(ctx)
		if err != nil {
			return fmt.Errorf("next document number: %w", err)
		}

		concept := req.Concept
		if concept == "" {
			concept = "Payment for " + sale.Document
		}
		methods := req.Breakdown()
		payment, err := s.transactions.Create(ctx, &model.Transaction{
			Kind:        model.TransactionKindPayment,
			Document:    document,
			ClientID:    sale.ClientID,
			SellerID:    sale.SellerID,
			Date:        s.now(),
			Value:       req.Amount,
			Cash:        methods.Cash,
			Card:        methods.Card,
			Check:       methods.Check,
			Transfer:    methods.Transfer,
			Outstanding: decimal.Zero,
			Concept:     concept,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateTransaction) {
				return &ConflictError{Op: "ledger.apply_payment", Err: err}
			}
			return fmt.Errorf("record payment: %w", err)
		}

		paymentDocument := payment.Document
		ref, err := s.references.Create(ctx, &model.PaymentReference{
			TransactionID:   payment.ID,
			PaymentDocument: &paymentDocument,
			SaleDocument:    sale.Document,
			ClientID:        sale.ClientID,
			SellerID:        sale.SellerID,
			Amount:          req.Amount,
		})
		if err != nil {
			return fmt.Errorf("record payment reference: %w", err)
		}

		if err := s.transactions.AttachReference(ctx, payment.ID, ref.ID); err != nil {
			return fmt.Errorf("attach payment reference: %w", err)
		}
		refID := ref.ID
		payment.ReferenceID = &refID

		if err := s.transactions.DecrementOutstanding(ctx, sale.ID, req.Amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientOutstanding) {
				return &ValidationError{Field: "amount", Message: "amount exceeds outstanding balance", Err: err}
			}
			return fmt.Errorf("decrement outstanding: %w", err)
		}

		updated, err := s.transactions.GetByID(ctx, sale.ID)
		if err != nil {
			return err
		}

		result = &model.PaymentResult{Payment: payment, Reference: ref, Sale: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListPendingByRoute returns the outstanding sales of every seller sharing
// sellerID's route. A seller without a route, or one that is unknown, sees
// every outstanding sale.
func (s *LedgerService) ListPendingByRoute(ctx context.Context, sellerID int64) ([]*model.Transaction, error) {
	if sellerID <= 0 {
		return nil, newValidationError("seller_id", "seller id is required")
	}

	filter := repository.PendingFilter{}
	seller, err := s.catalog.GetSeller(ctx, sellerID)
	switch {
	case errors.Is(err, repository.ErrSellerNotFound):
		logger.Debug("pending by route for unknown seller, listing everything", "seller_id", sellerID)
	case err != nil:
		logFailure("ledger.pending_by_route", err, "seller_id", sellerID)
		return nil, err
	case seller.RouteID != nil:
		sellerIDs, err := s.catalog.SellerIDsByRoute(ctx, *seller.RouteID)
		if err != nil {
			logFailure("ledger.pending_by_route", err, "seller_id", sellerID, "route_id", *seller.RouteID)
			return nil, err
		}
		filter.SellerIDs = sellerIDs
	}

	sales, err := s.transactions.ListPending(ctx, filter)
	if err != nil {
		logFailure("ledger.pending_by_route", err, "seller_id", sellerID)
		return nil, err
	}
	return sales, nil
}

func (s *LedgerService) ListPendingByClient(ctx context.Context, clientID int64) ([]*model.Transaction, error) {
	if clientID <= 0 {
		return nil, newValidationError("client_id", "client id is required")
	}
	if _, err := s.catalog.GetClient(ctx, clientID); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, notFound("client", clientID, err)
		}
		logFailure("ledger.pending_by_client", err, "client_id", clientID)
		return nil, err
	}

	sales, err := s.transactions.ListPending(ctx, repository.PendingFilter{ClientID: &clientID})
	if err != nil {
		logFailure("ledger.pending_by_client", err, "client_id", clientID)
		return nil, err
	}
	return sales, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, notFound("transaction", id, err)
		}
		logFailure("ledger.get_transaction", err, "transaction_id", id)
		return nil, err
	}
	return txn, nil
}

// NextDocumentNumber previews the number the next payment would get. Nothing
// is reserved.
func (s *LedgerService) NextDocumentNumber(ctx context.Context) (string, error) {
	doc, err := s.transactions.NextDocumentNumber(ctx)
	if err != nil {
		logFailure("ledger.next_document", err)
		return "", err
	}
	return doc, nil
}

func outcomeOf(err error) string {
	switch {
	case IsValidation(err):
		return "rejected"
	case IsNotFound(err):
		return "not_found"
	case IsConflict(err):
		return "conflict"
	}
	return "error"
}
