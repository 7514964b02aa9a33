package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/collections-ledger/internal/model"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
)

type ReconciliationService interface {
	ListOrphanLineItems(ctx context.Context) ([]*model.OrphanLineItem, error)
	PurgeOrphanLineItems(ctx context.Context) (*model.PurgeResult, error)
}

// MaintenanceHandler exposes the orphan line item sweep.
type MaintenanceHandler struct {
	svc ReconciliationService
}

func RegisterMaintenanceRoutes(e *router.Group, h *MaintenanceHandler) {
	e.GET("/maintenance/orphan-items", h.ListOrphans)
	e.DELETE("/maintenance/orphan-items", h.PurgeOrphans)
}

func NewMaintenanceHandler(reconciliationService ReconciliationService) *MaintenanceHandler {
	return &MaintenanceHandler{
		svc: reconciliationService,
	}
}

type listOrphansResponse struct {
	Items []*model.OrphanLineItem `json:"items"`
	Total int                     `json:"total"`
}

func (h *MaintenanceHandler) ListOrphans(ctx *xhttp.RequestCtx) {
	items, err := h.svc.ListOrphanLineItems(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listOrphansResponse{Items: items, Total: len(items)})
}

func (h *MaintenanceHandler) PurgeOrphans(ctx *xhttp.RequestCtx) {
	result, err := h.svc.PurgeOrphanLineItems(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, result)
}
