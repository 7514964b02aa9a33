package model

import "github.com/shopspring/decimal"

type Zone struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Route struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	ZoneID *int64 `json:"zone_id,omitempty"`
}

type Client struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Seller belongs to at most one route. Sellers without a route see the whole
// pending ledger.
type Seller struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	RouteID *int64 `json:"route_id,omitempty"`
}

type Product struct {
	ID    int64           `json:"id"`
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	// TaxRate is a percentage; zero means the configured default applies.
	TaxRate decimal.Decimal `json:"tax_rate"`
	Stock   int64           `json:"stock"`
}
