package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/nimasrn/collections-ledger/internal/idempotency"
	"github.com/nimasrn/collections-ledger/internal/model"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const paymentScope = "payment"

type LedgerService interface {
	ApplyPayment(ctx context.Context, req model.PaymentRequest) (*model.PaymentResult, error)
	ListPendingByRoute(ctx context.Context, sellerID int64) ([]*model.Transaction, error)
	ListPendingByClient(ctx context.Context, clientID int64) ([]*model.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	NextDocumentNumber(ctx context.Context) (string, error)
}

type IdempotencyGuard interface {
	Acquire(ctx context.Context, scope, key string) (*idempotency.Claim, error)
	Complete(ctx context.Context, c *idempotency.Claim, result []byte) error
	Release(ctx context.Context, c *idempotency.Claim) error
	Result(ctx context.Context, scope, key string) ([]byte, error)
}

type LedgerHandler struct {
	svc   LedgerService
	guard IdempotencyGuard
}

func RegisterLedgerRoutes(e *router.Group, h *LedgerHandler) {
	e.GET("/transactions/{id}", h.GetTransaction)
	e.POST("/transactions/{id}/payments", h.ApplyPayment)
	e.GET("/ledger/pending/route", h.ListPendingByRoute)
	e.GET("/ledger/pending/client", h.ListPendingByClient)
	e.GET("/ledger/next-document", h.NextDocument)
}

// NewLedgerHandler builds the handler. guard may be nil, in which case
// Idempotency-Key headers are ignored.
func NewLedgerHandler(ledgerService LedgerService, guard IdempotencyGuard) *LedgerHandler {
	return &LedgerHandler{
		svc:   ledgerService,
		guard: guard,
	}
}

type paymentBody struct {
	Amount  decimal.Decimal       `json:"amount"`
	Methods model.MethodBreakdown `json:"methods"`
	Concept string                `json:"concept"`
}

type listTransactionsResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int                  `json:"total"`
}

// replayedPaymentResponse answers a key that already completed. PaymentID
// is the payment the first request created, when it is still remembered.
type replayedPaymentResponse struct {
	Error     string `json:"error"`
	PaymentID int64  `json:"payment_id,omitempty"`
}

type nextDocumentResponse struct {
	Document string `json:"document"`
}

func (h *LedgerHandler) ApplyPayment(ctx *xhttp.RequestCtx) {
	saleID, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	var body paymentBody
	if err := readJSON(ctx, &body); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	claim, ok := h.acquire(ctx)
	if !ok {
		return
	}

	result, err := h.svc.ApplyPayment(ctx, model.PaymentRequest{
		SaleTransactionID: saleID,
		Amount:            body.Amount,
		Methods:           body.Methods,
		Concept:           body.Concept,
	})
	if err != nil {
		h.release(ctx, claim)
		writeServiceError(ctx, err)
		return
	}
	if claim != nil {
		_ = h.guard.Complete(ctx, claim, []byte(strconv.FormatInt(result.Payment.ID, 10)))
	}
	writeJSON(ctx, xhttp.StatusCreated, result)
}

// acquire claims the request's idempotency key. It writes the response and
// reports false when the request must not proceed.
func (h *LedgerHandler) acquire(ctx *xhttp.RequestCtx) (*idempotency.Claim, bool) {
	key := string(ctx.Request.Header.Peek(HeaderIdempotencyKey))
	if h.guard == nil || key == "" {
		return nil, true
	}
	claim, err := h.guard.Acquire(ctx, paymentScope, key)
	switch {
	case errors.Is(err, idempotency.ErrCompleted):
		writeJSON(ctx, xhttp.StatusConflict, replayedPaymentResponse{
			Error:     "payment with this idempotency key was already applied",
			PaymentID: h.replayedPaymentID(ctx, key),
		})
		return nil, false
	case errors.Is(err, idempotency.ErrInFlight):
		writeError(ctx, xhttp.StatusConflict, "payment with this idempotency key is being applied")
		return nil, false
	case err != nil:
		logger.Warn("idempotency guard unavailable, continuing without it", "request_id", xhttp.RequestID(ctx), "error", err)
		return nil, true
	}
	return claim, true
}

func (h *LedgerHandler) replayedPaymentID(ctx *xhttp.RequestCtx, key string) int64 {
	stored, err := h.guard.Result(ctx, paymentScope, key)
	if err != nil {
		logger.Warn("idempotency result unavailable", "request_id", xhttp.RequestID(ctx), "error", err)
		return 0
	}
	id, err := strconv.ParseInt(string(stored), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (h *LedgerHandler) release(ctx *xhttp.RequestCtx, claim *idempotency.Claim) {
	if claim == nil {
		return
	}
	_ = h.guard.Release(ctx, claim)
}

func (h *LedgerHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	txn, err := h.svc.GetTransaction(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, txn)
}

func (h *LedgerHandler) ListPendingByRoute(ctx *xhttp.RequestCtx) {
	sellerID, err := paramInt64(ctx, "seller_id")
	if err != nil || sellerID <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "seller_id is required")
		return
	}
	items, err := h.svc.ListPendingByRoute(ctx, sellerID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listTransactionsResponse{Items: items, Total: len(items)})
}

func (h *LedgerHandler) ListPendingByClient(ctx *xhttp.RequestCtx) {
	clientID, err := paramInt64(ctx, "client_id")
	if err != nil || clientID <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "client_id is required")
		return
	}
	items, err := h.svc.ListPendingByClient(ctx, clientID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listTransactionsResponse{Items: items, Total: len(items)})
}

func (h *LedgerHandler) NextDocument(ctx *xhttp.RequestCtx) {
	doc, err := h.svc.NextDocumentNumber(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, nextDocumentResponse{Document: doc})
}
