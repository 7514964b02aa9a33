package handlers

import (
	"context"

	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
)

type HealthService interface {
	Ping(ctx context.Context) error
}
type HealthHandler struct {
	store HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(store HealthService) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			writeError(ctx, xhttp.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	ctx.Response.SetBodyString("success")
}
