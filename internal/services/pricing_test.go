package services

import (
	"testing"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTaxPolicy_Line(t *testing.T) {
	tests := []struct {
		name      string
		inclusive bool
		quantity  int64
		unitPrice string
		rate      string
		wantNet   string
		wantTax   string
	}{
		{"exclusive adds tax", false, 2, "50", "16", "100", "16"},
		{"exclusive rounds to cents", false, 3, "3.33", "16", "9.99", "1.6"},
		{"inclusive extracts tax", true, 1, "116", "16", "100", "16"},
		{"inclusive rounds to cents", true, 1, "10", "16", "8.62", "1.38"},
		{"zero rate", false, 4, "2.5", "0", "10", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := TaxPolicy{DefaultRate: d("16"), Inclusive: tt.inclusive}
			net, tax := policy.Line(tt.quantity, d(tt.unitPrice), d(tt.rate))
			assert.Truef(t, d(tt.wantNet).Equal(net), "net: want %s, got %s", tt.wantNet, net)
			assert.Truef(t, d(tt.wantTax).Equal(tax), "tax: want %s, got %s", tt.wantTax, tax)
		})
	}
}

func TestTaxPolicy_RateFor(t *testing.T) {
	policy := NewTaxPolicy(16, false)

	assert.True(t, d("16").Equal(policy.RateFor(nil)))
	assert.True(t, d("16").Equal(policy.RateFor(&model.Product{TaxRate: decimal.Zero})))
	assert.True(t, d("8").Equal(policy.RateFor(&model.Product{TaxRate: d("8")})))
}

func TestTaxPolicy_Price(t *testing.T) {
	products := map[int64]*model.Product{
		10: {ID: 10, Price: d("25")},
		11: {ID: 11, Price: d("40"), TaxRate: d("8")},
	}
	items := []model.OrderItemInput{
		{ProductID: 10, Quantity: 2, UnitPrice: d("20")},
		{ProductID: 11, Quantity: 1},
	}

	lines, totals := NewTaxPolicy(16, false).Price(items, products)
	require.Len(t, lines, 2)

	assert.True(t, d("20").Equal(lines[0].UnitPrice))
	assert.True(t, d("6.4").Equal(lines[0].TaxAmount))
	// catalog price applies when none is given
	assert.True(t, d("40").Equal(lines[1].UnitPrice))
	assert.True(t, d("3.2").Equal(lines[1].TaxAmount))

	assert.True(t, d("80").Equal(totals.Subtotal))
	assert.True(t, d("9.6").Equal(totals.TaxAmount))
	assert.True(t, d("89.6").Equal(totals.Total))
	assert.True(t, totals.Subtotal.Add(totals.TaxAmount).Equal(totals.Total))
}

func TestTaxPolicy_Price_Inclusive(t *testing.T) {
	products := map[int64]*model.Product{1: {ID: 1, Price: d("116")}}
	items := []model.OrderItemInput{{ProductID: 1, Quantity: 2}}

	_, totals := NewTaxPolicy(16, true).Price(items, products)

	assert.True(t, d("200").Equal(totals.Subtotal))
	assert.True(t, d("32").Equal(totals.TaxAmount))
	assert.True(t, d("232").Equal(totals.Total))
}
