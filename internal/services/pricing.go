package services

import (
	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// TaxPolicy prices order lines with a single default rate and one of two
// display modes. In inclusive mode unit prices already contain the tax and
// it is extracted; in exclusive mode it is added on top.
type TaxPolicy struct {
	DefaultRate decimal.Decimal
	Inclusive   bool
}

func NewTaxPolicy(ratePercent float64, inclusive bool) TaxPolicy {
	return TaxPolicy{
		DefaultRate: decimal.NewFromFloat(ratePercent),
		Inclusive:   inclusive,
	}
}

// RateFor returns the product's own rate when it has one.
func (p TaxPolicy) RateFor(product *model.Product) decimal.Decimal {
	if product != nil && product.TaxRate.IsPositive() {
		return product.TaxRate
	}
	return p.DefaultRate
}

// Line returns the net and tax figures of quantity units at unitPrice.
func (p TaxPolicy) Line(quantity int64, unitPrice, rate decimal.Decimal) (net, tax decimal.Decimal) {
	gross := unitPrice.Mul(decimal.NewFromInt(quantity))
	if p.Inclusive {
		tax = gross.Mul(rate).DivRound(hundred.Add(rate), moneyPlaces)
		return gross.Sub(tax).Round(moneyPlaces), tax
	}
	tax = gross.Mul(rate).DivRound(hundred, moneyPlaces)
	return gross.Round(moneyPlaces), tax
}

type orderTotals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// Price builds the line items of an order and its totals. Lines without a
// unit price take the catalog price. Every product id must be in products.
func (p TaxPolicy) Price(items []model.OrderItemInput, products map[int64]*model.Product) ([]*model.LineItem, orderTotals) {
	lines := make([]*model.LineItem, 0, len(items))
	totals := orderTotals{Subtotal: decimal.Zero, TaxAmount: decimal.Zero}
	for _, in := range items {
		product := products[in.ProductID]
		unit := in.UnitPrice
		if unit.IsZero() && product != nil {
			unit = product.Price
		}
		net, tax := p.Line(in.Quantity, unit, p.RateFor(product))
		totals.Subtotal = totals.Subtotal.Add(net)
		totals.TaxAmount = totals.TaxAmount.Add(tax)
		lines = append(lines, &model.LineItem{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: unit,
			TaxAmount: tax,
			Product:   product,
		})
	}
	totals.Total = totals.Subtotal.Add(totals.TaxAmount)
	return lines, totals
}
