package repository

import (
	"context"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orphanRow struct {
	LineItemID int64           `gorm:"column:line_item_id"`
	OrderID    int64           `gorm:"column:order_id"`
	ProductID  int64           `gorm:"column:product_id"`
	Quantity   int64           `gorm:"column:quantity"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price"`
	OrderDate  time.Time       `gorm:"column:order_date"`
	OrderTotal decimal.Decimal `gorm:"column:order_total"`
}

func (o *orphanRow) toModel() *model.OrphanLineItem {
	return &model.OrphanLineItem{
		LineItemID: o.LineItemID,
		OrderID:    o.OrderID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		UnitPrice:  o.UnitPrice,
		OrderDate:  o.OrderDate,
		OrderTotal: o.OrderTotal,
	}
}

// ReconciliationRepository finds and removes line items whose product no
// longer exists.
type ReconciliationRepository struct {
	*pg.DB
}

func NewReconciliationRepository(db *pg.DB) *ReconciliationRepository {
	return &ReconciliationRepository{
		db,
	}
}

func orphanQuery(db *gorm.DB) *gorm.DB {
	return db.Table("order_items AS oi").
		Select(`
            oi.id          AS line_item_id,
            oi.order_id    AS order_id,
            oi.product_id  AS product_id,
            oi.quantity    AS quantity,
            oi.unit_price  AS unit_price,
            o.date         AS order_date,
            o.total        AS order_total
        `).
		Joins("JOIN orders AS o ON o.id = oi.order_id").
		Joins("LEFT JOIN products AS p ON p.id = oi.product_id").
		Where("p.id IS NULL").
		Order("oi.order_id, oi.id")
}

func (r *ReconciliationRepository) ListOrphans(ctx context.Context) ([]*model.OrphanLineItem, error) {
	return r.scanOrphans(orphanQuery(r.Read(ctx).WithContext(ctx)))
}

// PurgeOrphans deletes every orphan line item in one transaction and returns
// what was removed. Rows whose product reappeared between the read and the
// delete are left alone and excluded from the result.
func (r *ReconciliationRepository) PurgeOrphans(ctx context.Context) ([]*model.OrphanLineItem, error) {
	var removed []*model.OrphanLineItem
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		db := r.Write(ctx).WithContext(ctx)

		found, err := r.scanOrphans(orphanQuery(db).
			Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "oi"}}))
		if err != nil {
			return err
		}
		if len(found) == 0 {
			removed = found
			return nil
		}

		ids := make([]int64, len(found))
		for i, o := range found {
			ids[i] = o.LineItemID
		}

		result := db.
			Where("id IN ? AND product_id NOT IN (SELECT id FROM products)", ids).
			Delete(&LineItemEntity{})
		if result.Error != nil {
			return result.Error
		}

		if int(result.RowsAffected) == len(found) {
			removed = found
			return nil
		}

		var survivors []int64
		if err := db.Model(&LineItemEntity{}).Where("id IN ?", ids).Pluck("id", &survivors).Error; err != nil {
			return err
		}
		kept := make(map[int64]struct{}, len(survivors))
		for _, id := range survivors {
			kept[id] = struct{}{}
		}
		removed = make([]*model.OrphanLineItem, 0, len(found))
		for _, o := range found {
			if _, ok := kept[o.LineItemID]; !ok {
				removed = append(removed, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *ReconciliationRepository) scanOrphans(q *gorm.DB) ([]*model.OrphanLineItem, error) {
	var rows []*orphanRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*model.OrphanLineItem, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}
