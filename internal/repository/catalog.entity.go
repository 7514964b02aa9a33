package repository

import (
	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type ZoneEntity struct {
	ID   int64  `db:"id"   gorm:"primaryKey;autoIncrement;column:id"`
	Name string `db:"name" gorm:"column:name;not null"`
}

func (ZoneEntity) TableName() string {
	return "zones"
}

type RouteEntity struct {
	ID     int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	Name   string `db:"name"    gorm:"column:name;not null"`
	ZoneID *int64 `db:"zone_id" gorm:"column:zone_id;index"`
}

func (RouteEntity) TableName() string {
	return "routes"
}

type ClientEntity struct {
	ID      int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	Name    string `db:"name"    gorm:"column:name;not null"`
	TaxID   string `db:"tax_id"  gorm:"column:tax_id;not null;default:''"`
	Phone   string `db:"phone"   gorm:"column:phone;not null;default:''"`
	Address string `db:"address" gorm:"column:address;not null;default:''"`
}

func (ClientEntity) TableName() string {
	return "clients"
}

type SellerEntity struct {
	ID      int64  `db:"id"       gorm:"primaryKey;autoIncrement;column:id"`
	Name    string `db:"name"     gorm:"column:name;not null"`
	RouteID *int64 `db:"route_id" gorm:"column:route_id;index"`
}

func (SellerEntity) TableName() string {
	return "sellers"
}

type ProductEntity struct {
	ID      int64           `db:"id"       gorm:"primaryKey;autoIncrement;column:id"`
	Code    string          `db:"code"     gorm:"column:code;not null;default:''"`
	Name    string          `db:"name"     gorm:"column:name;not null"`
	Price   decimal.Decimal `db:"price"    gorm:"column:price;type:decimal(20,4);not null;default:0"`
	TaxRate decimal.Decimal `db:"tax_rate" gorm:"column:tax_rate;type:decimal(7,4);not null;default:0"`
	Stock   int64           `db:"stock"    gorm:"column:stock;not null;default:0"`
}

func (ProductEntity) TableName() string {
	return "products"
}

func toClientModel(e *ClientEntity) *model.Client {
	if e == nil {
		return nil
	}
	return &model.Client{
		ID:      e.ID,
		Name:    e.Name,
		TaxID:   e.TaxID,
		Phone:   e.Phone,
		Address: e.Address,
	}
}

func toSellerModel(e *SellerEntity) *model.Seller {
	if e == nil {
		return nil
	}
	return &model.Seller{
		ID:      e.ID,
		Name:    e.Name,
		RouteID: e.RouteID,
	}
}

func toProductModel(e *ProductEntity) *model.Product {
	if e == nil {
		return nil
	}
	return &model.Product{
		ID:      e.ID,
		Code:    e.Code,
		Name:    e.Name,
		Price:   e.Price,
		TaxRate: e.TaxRate,
		Stock:   e.Stock,
	}
}

func toProductModels(entities []*ProductEntity) []*model.Product {
	models := make([]*model.Product, len(entities))
	for i, e := range entities {
		models[i] = toProductModel(e)
	}
	return models
}
