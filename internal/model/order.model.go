package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusProcessed OrderStatus = "processed"
	OrderStatusVoid      OrderStatus = "void"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusActive, OrderStatusProcessed, OrderStatusVoid:
		return true
	}
	return false
}

type Order struct {
	ID        int64           `json:"id"`
	ClientID  int64           `json:"client_id"`
	SellerID  int64           `json:"seller_id"`
	CreatedAt time.Time       `json:"created_at"`
	Date      time.Time       `json:"date"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`

	Client *Client     `json:"client,omitempty"`
	Seller *Seller     `json:"seller,omitempty"`
	Items  []*LineItem `json:"items"`
}

type LineItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxAmount decimal.Decimal `json:"tax_amount"`

	Product *Product `json:"product,omitempty"`
}

type OrderItemInput struct {
	ProductID int64           `json:"product_id" validate:"gt=0"`
	Quantity  int64           `json:"quantity"   validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// OrderRequest is the header plus full item set of a create or update.
type OrderRequest struct {
	ClientID int64            `json:"client_id" validate:"gt=0"`
	SellerID int64            `json:"seller_id" validate:"gt=0"`
	Date     *time.Time       `json:"date,omitempty"`
	Items    []OrderItemInput `json:"items"     validate:"required,min=1,dive"`
}

func (r OrderRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if dup := r.DuplicateProductIDs(); len(dup) > 0 {
		return fmt.Errorf("items: duplicate product ids %v", dup)
	}
	return nil
}

// ProductIDs returns the distinct product ids of the item list in ascending order.
func (r OrderRequest) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Items))
	ids := make([]int64, 0, len(r.Items))
	for _, it := range r.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r OrderRequest) DuplicateProductIDs() []int64 {
	count := make(map[int64]int, len(r.Items))
	var dup []int64
	for _, it := range r.Items {
		count[it.ProductID]++
		if count[it.ProductID] == 2 {
			dup = append(dup, it.ProductID)
		}
	}
	return dup
}

// OrderFilter controls List queries.
type OrderFilter struct {
	ClientID *int64
	SellerID *int64
	Status   *OrderStatus
	From     *time.Time
	To       *time.Time
	Limit    int  // default 50
	Offset   int  // for pagination
	Desc     bool // order by date
}

// OrphanLineItem is a line item whose product no longer exists, with enough
// order context to triage it.
type OrphanLineItem struct {
	LineItemID int64           `json:"line_item_id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	OrderDate  time.Time       `json:"order_date"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type PurgeResult struct {
	Count   int               `json:"count"`
	Removed []*OrphanLineItem `json:"removed"`
}
