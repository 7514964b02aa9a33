package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/nimasrn/collections-ledger/pkg/prom"
)

// ReferenceService answers which payments settle which sales and repairs
// payments recorded without a document number.
type ReferenceService struct {
	tx           Transactor
	transactions TransactionRepository
	references   PaymentReferenceRepository
}

func NewReferenceService(tx Transactor, transactions TransactionRepository, references PaymentReferenceRepository) *ReferenceService {
	return &ReferenceService{
		tx:           tx,
		transactions: transactions,
		references:   references,
	}
}

// GetReferencesByDocument looks a document up by kind. For a payment the
// result is the payment and its links, possibly none. For a sale it is every
// link whose sale document matches, each with its payment; a sale nobody has
// paid yet is NotFound.
func (s *ReferenceService) GetReferencesByDocument(ctx context.Context, kind string, document string) (*model.DocumentReferences, error) {
	k, err := model.ParseTransactionKind(kind)
	if err != nil {
		return nil, &ValidationError{Field: "kind", Message: err.Error(), Err: err}
	}
	document = strings.TrimSpace(document)
	if document == "" {
		return nil, newValidationError("document", "document is required")
	}

	var out *model.DocumentReferences
	if k == model.TransactionKindPayment {
		out, err = s.paymentReferences(ctx, document)
	} else {
		out, err = s.saleReferences(ctx, document)
	}
	if err != nil {
		logFailure("references.by_document", err, "kind", string(k), "document", document)
		return nil, err
	}
	return out, nil
}

func (s *ReferenceService) paymentReferences(ctx context.Context, document string) (*model.DocumentReferences, error) {
	payment, err := s.transactions.GetByDocument(ctx, model.TransactionKindPayment, document)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, notFound("payment", document, err)
		}
		return nil, err
	}

	refs, err := s.references.ListByTransaction(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	joined := make([]*model.ReferenceWithPayment, len(refs))
	for i, ref := range refs {
		joined[i] = &model.ReferenceWithPayment{PaymentReference: ref, Payment: payment}
	}

	return &model.DocumentReferences{
		Kind:        model.TransactionKindPayment,
		Document:    document,
		Transaction: payment,
		References:  joined,
	}, nil
}

func (s *ReferenceService) saleReferences(ctx context.Context, document string) (*model.DocumentReferences, error) {
	refs, err := s.references.ListBySaleDocument(ctx, document)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, notFound("payment references for sale", document, nil)
	}

	ids := make([]int64, len(refs))
	for i, ref := range refs {
		ids[i] = ref.TransactionID
	}
	payments, err := s.transactions.GetByIDs(ctx, distinct(ids))
	if err != nil {
		return nil, err
	}

	joined := make([]*model.ReferenceWithPayment, len(refs))
	for i, ref := range refs {
		joined[i] = &model.ReferenceWithPayment{PaymentReference: ref, Payment: payments[ref.TransactionID]}
	}

	out := &model.DocumentReferences{
		Kind:       model.TransactionKindSale,
		Document:   document,
		References: joined,
	}
	sale, err := s.transactions.GetByDocument(ctx, model.TransactionKindSale, document)
	switch {
	case err == nil:
		out.Transaction = sale
	case !errors.Is(err, repository.ErrTransactionNotFound):
		return nil, err
	}
	return out, nil
}

// BackfillMissingPaymentDocument gives a payment recorded without a document
// the next number, then sweeps its references whose payment document is
// blank or NULL. A payment that already has a document keeps it and only
// its references are repaired.
func (s *ReferenceService) BackfillMissingPaymentDocument(ctx context.Context, paymentID int64) (*model.DocumentBackfill, error) {
	var out *model.DocumentBackfill
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.transactions.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, repository.ErrTransactionNotFound) {
				return notFound("transaction", paymentID, err)
			}
			return err
		}
		if payment.IsSale() {
			return newValidationError("transaction_id", fmt.Sprintf("transaction %d is a sale, not a payment", payment.ID))
		}

		out = &model.DocumentBackfill{Transaction: payment, Document: payment.Document}
		if payment.Document == "" {
			doc, err := s.transactions.NextDocumentNumber(ctx)
			if err != nil {
				return fmt.Errorf("next document number: %w", err)
			}
			assigned, err := s.transactions.AssignDocumentIfMissing(ctx, payment.ID, doc)
			if err != nil {
				if errors.Is(err, repository.ErrDuplicateTransaction) {
					return &ConflictError{Op: "references.backfill", Err: err}
				}
				return err
			}
			out.Assigned = assigned
			if assigned {
				payment.Document = doc
				out.Document = doc
			}
		}

		updated, err := s.references.FillMissingPaymentDocument(ctx, payment.ID, out.Document)
		if err != nil {
			return fmt.Errorf("fill reference documents: %w", err)
		}
		out.ReferencesUpdated = updated
		return nil
	})
	if err != nil {
		logFailure("references.backfill", err, "transaction_id", paymentID)
		return nil, err
	}

	if out.Assigned {
		prom.AddDocumentsBackfilled(1)
	}
	if out.Assigned || out.ReferencesUpdated > 0 {
		logger.Info("payment document backfilled",
			"transaction_id", paymentID,
			"document", out.Document,
			"references_updated", out.ReferencesUpdated)
	}
	return out, nil
}
