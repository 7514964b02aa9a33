package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/collections-ledger/internal/model"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
)

type OrderService interface {
	Create(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	Update(ctx context.Context, id int64, req model.OrderRequest) (*model.Order, error)
	Get(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error)
	Checkout(ctx context.Context, id int64) (*model.Transaction, error)
	Void(ctx context.Context, id int64) (*model.Order, error)
}

type OrderHandler struct {
	svc OrderService
}

func RegisterOrderRoutes(e *router.Group, h *OrderHandler) {
	e.POST("/orders", h.CreateOrder)
	e.GET("/orders", h.ListOrders)
	e.GET("/orders/{id}", h.GetOrder)
	e.PUT("/orders/{id}", h.UpdateOrder)
	e.POST("/orders/{id}/checkout", h.CheckoutOrder)
	e.POST("/orders/{id}/void", h.VoidOrder)
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{
		svc: orderService,
	}
}

type listOrdersResponse struct {
	Items []*model.Order `json:"items"`
	Total int64          `json:"total"`
}

func (h *OrderHandler) CreateOrder(ctx *xhttp.RequestCtx) {
	var req model.OrderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	order, err := h.svc.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, order)
}

func (h *OrderHandler) UpdateOrder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	var req model.OrderRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	order, err := h.svc.Update(ctx, id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) GetOrder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	order, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}

func (h *OrderHandler) ListOrders(ctx *xhttp.RequestCtx) {
	var f model.OrderFilter

	if v := query(ctx, "client_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.ClientID = &id
		}
	}
	if v := query(ctx, "seller_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.SellerID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		status := model.OrderStatus(strings.ToLower(strings.TrimSpace(v)))
		if !status.Valid() {
			writeError(ctx, xhttp.StatusBadRequest, "status must be active, processed or void")
			return
		}
		f.Status = &status
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listOrdersResponse{Items: items, Total: total})
}

func (h *OrderHandler) CheckoutOrder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	sale, err := h.svc.Checkout(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, sale)
}

func (h *OrderHandler) VoidOrder(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}
	order, err := h.svc.Void(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, order)
}
