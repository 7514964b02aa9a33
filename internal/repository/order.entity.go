package repository

import (
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type OrderEntity struct {
	ID        int64           `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	ClientID  int64           `db:"client_id"  gorm:"column:client_id;not null;index"`
	SellerID  int64           `db:"seller_id"  gorm:"column:seller_id;not null;index"`
	CreatedAt time.Time       `db:"created_at" gorm:"column:created_at;not null"`
	Date      time.Time       `db:"date"       gorm:"column:date;not null;index"`
	Subtotal  decimal.Decimal `db:"subtotal"   gorm:"column:subtotal;type:decimal(20,4);not null;default:0"`
	TaxAmount decimal.Decimal `db:"tax_amount" gorm:"column:tax_amount;type:decimal(20,4);not null;default:0"`
	Total     decimal.Decimal `db:"total"      gorm:"column:total;type:decimal(20,4);not null;default:0"`
	Status    string          `db:"status"     gorm:"column:status;not null;default:'active';index"`
}

func (OrderEntity) TableName() string {
	return "orders"
}

// LineItemEntity has no foreign key on product_id: products can be deleted
// while the order keeps its history.
type LineItemEntity struct {
	ID        int64           `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	OrderID   int64           `db:"order_id"   gorm:"column:order_id;not null;uniqueIndex:idx_order_items_order_product"`
	ProductID int64           `db:"product_id" gorm:"column:product_id;not null;uniqueIndex:idx_order_items_order_product;index"`
	Quantity  int64           `db:"quantity"   gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `db:"unit_price" gorm:"column:unit_price;type:decimal(20,4);not null"`
	TaxAmount decimal.Decimal `db:"tax_amount" gorm:"column:tax_amount;type:decimal(20,4);not null;default:0"`
}

func (LineItemEntity) TableName() string {
	return "order_items"
}

func toOrderEntity(m *model.Order) *OrderEntity {
	if m == nil {
		return nil
	}
	return &OrderEntity{
		ID:        m.ID,
		ClientID:  m.ClientID,
		SellerID:  m.SellerID,
		CreatedAt: m.CreatedAt,
		Date:      m.Date,
		Subtotal:  m.Subtotal,
		TaxAmount: m.TaxAmount,
		Total:     m.Total,
		Status:    string(m.Status),
	}
}

func toOrderModel(e *OrderEntity) *model.Order {
	if e == nil {
		return nil
	}
	return &model.Order{
		ID:        e.ID,
		ClientID:  e.ClientID,
		SellerID:  e.SellerID,
		CreatedAt: e.CreatedAt,
		Date:      e.Date,
		Subtotal:  e.Subtotal,
		TaxAmount: e.TaxAmount,
		Total:     e.Total,
		Status:    model.OrderStatus(e.Status),
	}
}

func toOrderModels(entities []*OrderEntity) []*model.Order {
	models := make([]*model.Order, len(entities))
	for i, e := range entities {
		models[i] = toOrderModel(e)
	}
	return models
}

func toLineItemEntity(m *model.LineItem) *LineItemEntity {
	if m == nil {
		return nil
	}
	return &LineItemEntity{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		TaxAmount: m.TaxAmount,
	}
}

func toLineItemModel(e *LineItemEntity) *model.LineItem {
	if e == nil {
		return nil
	}
	return &model.LineItem{
		ID:        e.ID,
		OrderID:   e.OrderID,
		ProductID: e.ProductID,
		Quantity:  e.Quantity,
		UnitPrice: e.UnitPrice,
		TaxAmount: e.TaxAmount,
	}
}

func toLineItemModels(entities []*LineItemEntity) []*model.LineItem {
	models := make([]*model.LineItem, len(entities))
	for i, e := range entities {
		models[i] = toLineItemModel(e)
	}
	return models
}
