package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusChanged = errors.New("order status changed concurrently")
)

type OrderRepository struct {
	*pg.DB
}

func NewOrderRepository(db *pg.DB) *OrderRepository {
	return &OrderRepository{
		db,
	}
}

// Create inserts the order header. Items are written separately with
// CreateItems so both can share the caller's transaction.
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	entity := toOrderEntity(order)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toOrderModel(entity), nil
}

func (r *OrderRepository) CreateItems(ctx context.Context, orderID int64, items []*model.LineItem) ([]*model.LineItem, error) {
	if len(items) == 0 {
		return []*model.LineItem{}, nil
	}
	entities := make([]*LineItemEntity, len(items))
	for i, it := range items {
		entities[i] = toLineItemEntity(it)
		entities[i].ID = 0
		entities[i].OrderID = orderID
	}
	if err := r.Write(ctx).WithContext(ctx).Create(&entities).Error; err != nil {
		return nil, err
	}
	return toLineItemModels(entities), nil
}

// UpdateHeader rewrites the client, seller, date and totals of an order.
func (r *OrderRepository) UpdateHeader(ctx context.Context, order *model.Order) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"client_id":  order.ClientID,
			"seller_id":  order.SellerID,
			"date":       order.Date,
			"subtotal":   order.Subtotal,
			"tax_amount": order.TaxAmount,
			"total":      order.Total,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ReplaceItems makes the stored items of orderID equal to items, keyed by
// product: missing products are deleted, present ones updated in place and
// new ones inserted. Deletes run first so the (order, product) index never
// sees a transient duplicate.
func (r *OrderRepository) ReplaceItems(ctx context.Context, orderID int64, items []*model.LineItem) ([]*model.LineItem, error) {
	db := r.Write(ctx).WithContext(ctx)

	var existing []*LineItemEntity
	if err := db.Where("order_id = ?", orderID).Find(&existing).Error; err != nil {
		return nil, err
	}

	incoming := make(map[int64]*model.LineItem, len(items))
	for _, it := range items {
		incoming[it.ProductID] = it
	}

	stored := make(map[int64]*LineItemEntity, len(existing))
	var removeIDs []int64
	for _, e := range existing {
		if _, keep := incoming[e.ProductID]; keep {
			stored[e.ProductID] = e
			continue
		}
		removeIDs = append(removeIDs, e.ID)
	}

	if len(removeIDs) > 0 {
		if err := db.Where("id IN ?", removeIDs).Delete(&LineItemEntity{}).Error; err != nil {
			return nil, err
		}
	}

	out := make([]*model.LineItem, 0, len(items))
	for _, it := range items {
		if e, ok := stored[it.ProductID]; ok {
			err := db.Model(&LineItemEntity{}).
				Where("id = ?", e.ID).
				Updates(map[string]interface{}{
					"quantity":   it.Quantity,
					"unit_price": it.UnitPrice,
					"tax_amount": it.TaxAmount,
				}).Error
			if err != nil {
				return nil, err
			}
			e.Quantity, e.UnitPrice, e.TaxAmount = it.Quantity, it.UnitPrice, it.TaxAmount
			out = append(out, toLineItemModel(e))
			continue
		}
		entity := toLineItemEntity(it)
		entity.ID = 0
		entity.OrderID = orderID
		if err := db.Create(entity).Error; err != nil {
			return nil, err
		}
		out = append(out, toLineItemModel(entity))
	}
	return out, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return r.get(r.Read(ctx).WithContext(ctx), id)
}

// GetByIDForUpdate reads the header holding a row lock until the surrounding
// transaction ends.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return r.get(r.Write(ctx).WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *OrderRepository) get(db *gorm.DB, id int64) (*model.Order, error) {
	var entity OrderEntity
	if err := db.Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return toOrderModel(&entity), nil
}

// TransitionStatus moves the order from one status to another, failing if
// it is no longer in the expected one.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id int64, from, to model.OrderStatus) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&OrderEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderStatusChanged
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&OrderEntity{})

	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.Status != nil && *f.Status != "" {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "date ASC, id ASC"
	if f.Desc {
		order = "date DESC, id DESC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*OrderEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toOrderModels(entities), total, nil
}

// ItemsByOrderIDs returns the raw stored items, dangling product references included.
func (r *OrderRepository) ItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]*model.LineItem, error) {
	if len(orderIDs) == 0 {
		return []*model.LineItem{}, nil
	}
	var entities []*LineItemEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id, id").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toLineItemModels(entities), nil
}
