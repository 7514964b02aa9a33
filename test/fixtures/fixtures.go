package fixtures

import (
	"testing"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ZoneNorth int64 = 1

	RouteDowntown int64 = 1

	ClientCorner int64 = 1
	ClientMarket int64 = 2

	SellerAlice int64 = 1 // on RouteDowntown
	SellerBruno int64 = 2 // on RouteDowntown
	SellerCarla int64 = 3 // no route

	ProductSoda  int64 = 10
	ProductChips int64 = 11
)

// SeedCatalog creates the reference data every ledger flow needs.
func SeedCatalog(t *testing.T, db *gorm.DB) {
	zone := ZoneNorth
	route := RouteDowntown
	rows := []any{
		&repository.ZoneEntity{ID: ZoneNorth, Name: "North"},
		&repository.RouteEntity{ID: RouteDowntown, Name: "Downtown", ZoneID: &zone},
		&repository.ClientEntity{ID: ClientCorner, Name: "Corner Store", TaxID: "CS-001"},
		&repository.ClientEntity{ID: ClientMarket, Name: "Central Market"},
		&repository.SellerEntity{ID: SellerAlice, Name: "Alice", RouteID: &route},
		&repository.SellerEntity{ID: SellerBruno, Name: "Bruno", RouteID: &route},
		&repository.SellerEntity{ID: SellerCarla, Name: "Carla"},
		&repository.ProductEntity{ID: ProductSoda, Code: "SODA", Name: "Soda", Price: decimal.RequireFromString("100")},
		&repository.ProductEntity{ID: ProductChips, Code: "CHIPS", Name: "Chips", Price: decimal.RequireFromString("50")},
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

func Item(productID, quantity int64, unitPrice string) model.OrderItemInput {
	return model.OrderItemInput{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: decimal.RequireFromString(unitPrice),
	}
}

func NewOrderRequest(clientID, sellerID int64, items ...model.OrderItemInput) model.OrderRequest {
	return model.OrderRequest{
		ClientID: clientID,
		SellerID: sellerID,
		Items:    items,
	}
}

func NewPaymentBody(amount string, methods model.MethodBreakdown) map[string]any {
	return map[string]any{
		"amount":  amount,
		"methods": methods,
	}
}
