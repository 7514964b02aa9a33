package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/collections-ledger/internal/model"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
)

type ReferenceService interface {
	GetReferencesByDocument(ctx context.Context, kind string, document string) (*model.DocumentReferences, error)
	BackfillMissingPaymentDocument(ctx context.Context, paymentID int64) (*model.DocumentBackfill, error)
}

type ReferenceHandler struct {
	svc ReferenceService
}

func RegisterReferenceRoutes(e *router.Group, h *ReferenceHandler) {
	e.GET("/references/{kind}/{document}", h.GetByDocument)
	e.POST("/transactions/{id}/document", h.BackfillDocument)
}

func NewReferenceHandler(referenceService ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{
		svc: referenceService,
	}
}

func (h *ReferenceHandler) GetByDocument(ctx *xhttp.RequestCtx) {
	refs, err := h.svc.GetReferencesByDocument(ctx, pathString(ctx, "kind"), pathString(ctx, "document"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, refs)
}

func (h *ReferenceHandler) BackfillDocument(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.BackfillMissingPaymentDocument(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, result)
}
