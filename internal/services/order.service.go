package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/internal/repository"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/nimasrn/collections-ledger/pkg/prom"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	CreateItems(ctx context.Context, orderID int64, items []*model.LineItem) ([]*model.LineItem, error)
	UpdateHeader(ctx context.Context, order *model.Order) error
	ReplaceItems(ctx context.Context, orderID int64, items []*model.LineItem) ([]*model.LineItem, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Order, error)
	TransitionStatus(ctx context.Context, id int64, from, to model.OrderStatus) error
	List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) // results, totalCount
	ItemsByOrderIDs(ctx context.Context, orderIDs []int64) ([]*model.LineItem, error)
}

type CatalogRepository interface {
	ExistingProductIDs(ctx context.Context, ids []int64) ([]int64, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*model.Product, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	GetSeller(ctx context.Context, id int64) (*model.Seller, error)
	GetClientsByIDs(ctx context.Context, ids []int64) (map[int64]*model.Client, error)
	GetSellersByIDs(ctx context.Context, ids []int64) (map[int64]*model.Seller, error)
	SellerIDsByRoute(ctx context.Context, routeID int64) ([]int64, error)
}

type SaleWriter interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
}

type OrderOptions struct {
	Tax TaxPolicy
	// TrustClientDate keeps a caller supplied effective date instead of the server time.
	TrustClientDate bool
}

type OrderService struct {
	tx      Transactor
	orders  OrderRepository
	catalog CatalogRepository
	sales   SaleWriter
	opts    OrderOptions
	now     func() time.Time
}

func NewOrderService(tx Transactor, orders OrderRepository, catalog CatalogRepository, sales SaleWriter, opts OrderOptions) *OrderService {
	return &OrderService{
		tx:      tx,
		orders:  orders,
		catalog: catalog,
		sales:   sales,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the referenced client, seller and products and writes the
// order with its items atomically.
func (s *OrderService) Create(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	now := s.now()
	var created *model.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		refs, err := s.resolveReferences(ctx, req)
		if err != nil {
			return err
		}

		lines, totals := s.opts.Tax.Price(req.Items, refs.products)
		order, err := s.orders.Create(ctx, &model.Order{
			ClientID:  req.ClientID,
			SellerID:  req.SellerID,
			CreatedAt: now,
			Date:      s.effectiveDate(req.Date, now),
			Subtotal:  totals.Subtotal,
			TaxAmount: totals.TaxAmount,
			Total:     totals.Total,
			Status:    model.OrderStatusActive,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items, err := s.orders.CreateItems(ctx, order.ID, lines)
		if err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		created = refs.assemble(order, items)
		return nil
	})
	if err != nil {
		logFailure("order.create", err, "client_id", req.ClientID, "seller_id", req.SellerID)
		return nil, err
	}
	return created, nil
}

// Update replaces the header and the full item set of an active order.
func (s *OrderService) Update(ctx context.Context, id int64, req model.OrderRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	var updated *model.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return notFound("order", id, err)
			}
			return err
		}
		if order.Status != model.OrderStatusActive {
			return newValidationError("status", fmt.Sprintf("order is %s and can no longer be changed", order.Status))
		}

		refs, err := s.resolveReferences(ctx, req)
		if err != nil {
			return err
		}

		lines, totals := s.opts.Tax.Price(req.Items, refs.products)
		order.ClientID = req.ClientID
		order.SellerID = req.SellerID
		order.Subtotal = totals.Subtotal
		order.TaxAmount = totals.TaxAmount
		order.Total = totals.Total
		if s.opts.TrustClientDate && req.Date != nil && !req.Date.IsZero() {
			order.Date = req.Date.UTC()
		}

		if err := s.orders.UpdateHeader(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		items, err := s.orders.ReplaceItems(ctx, order.ID, lines)
		if err != nil {
			return fmt.Errorf("replace order items: %w", err)
		}

		updated = refs.assemble(order, items)
		return nil
	})
	if err != nil {
		logFailure("order.update", err, "order_id", id)
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, notFound("order", id, err)
		}
		logFailure("order.get", err, "order_id", id)
		return nil, err
	}
	if err := s.attach(ctx, "order.get", []*model.Order{order}); err != nil {
		logFailure("order.get", err, "order_id", id)
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, f model.OrderFilter) ([]*model.Order, int64, error) {
	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		logFailure("order.list", err)
		return nil, 0, err
	}
	if err := s.attach(ctx, "order.list", orders); err != nil {
		logFailure("order.list", err)
		return nil, 0, err
	}
	return orders, total, nil
}

// Checkout turns an active order into a sale transaction whose outstanding
// value is the order total, and marks the order processed.
func (s *OrderService) Checkout(ctx context.Context, id int64) (*model.Transaction, error) {
	var sale *model.Transaction
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return notFound("order", id, err)
			}
			return err
		}
		if order.Status != model.OrderStatusActive {
			return newValidationError("status", fmt.Sprintf("order is %s, only active orders can be checked out", order.Status))
		}

		orderID := order.ID
		sale, err = s.sales.Create(ctx, &model.Transaction{
			Kind:        model.TransactionKindSale,
			Document:    model.FormatDocument(order.ID),
			ClientID:    order.ClientID,
			SellerID:    order.SellerID,
			Date:        s.now(),
			Value:       order.Total,
			Outstanding: order.Total,
			Concept:     fmt.Sprintf("Order #%d", order.ID),
			OrderID:     &orderID,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateTransaction) {
				return &ConflictError{Op: "order.checkout", Err: err}
			}
			return fmt.Errorf("record sale: %w", err)
		}

		if err := s.orders.TransitionStatus(ctx, order.ID, model.OrderStatusActive, model.OrderStatusProcessed); err != nil {
			if errors.Is(err, repository.ErrOrderStatusChanged) {
				return &ConflictError{Op: "order.checkout", Err: err}
			}
			return err
		}
		return nil
	})
	if err != nil {
		logFailure("order.checkout", err, "order_id", id)
		return nil, err
	}
	prom.IncSaleRecorded()
	logger.Info("sale recorded", "order_id", id, "sale_id", sale.ID, "document", sale.Document)
	return sale, nil
}

// Void cancels an active order. Voiding a void order is a no-op.
func (s *OrderService) Void(ctx context.Context, id int64) (*model.Order, error) {
	var voided *model.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return notFound("order", id, err)
			}
			return err
		}
		switch order.Status {
		case model.OrderStatusVoid:
			voided = order
			return nil
		case model.OrderStatusProcessed:
			return newValidationError("status", "processed orders cannot be voided")
		}
		if err := s.orders.TransitionStatus(ctx, id, model.OrderStatusActive, model.OrderStatusVoid); err != nil {
			if errors.Is(err, repository.ErrOrderStatusChanged) {
				return &ConflictError{Op: "order.void", Err: err}
			}
			return err
		}
		order.Status = model.OrderStatusVoid
		voided = order
		return nil
	})
	if err != nil {
		logFailure("order.void", err, "order_id", id)
		return nil, err
	}
	return voided, nil
}

func (s *OrderService) effectiveDate(requested *time.Time, now time.Time) time.Time {
	if s.opts.TrustClientDate && requested != nil && !requested.IsZero() {
		return requested.UTC()
	}
	return now
}

type orderReferences struct {
	client   *model.Client
	seller   *model.Seller
	products map[int64]*model.Product
}

func (r *orderReferences) assemble(order *model.Order, items []*model.LineItem) *model.Order {
	for _, it := range items {
		it.Product = r.products[it.ProductID]
	}
	order.Items = items
	order.Client = r.client
	order.Seller = r.seller
	return order
}

// resolveReferences checks that everything the request points at exists.
// Missing products are reported together.
func (s *OrderService) resolveReferences(ctx context.Context, req model.OrderRequest) (*orderReferences, error) {
	client, err := s.catalog.GetClient(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, &ValidationError{Field: "client_id", Message: "client does not exist", MissingIDs: []int64{req.ClientID}, Err: err}
		}
		return nil, err
	}
	seller, err := s.catalog.GetSeller(ctx, req.SellerID)
	if err != nil {
		if errors.Is(err, repository.ErrSellerNotFound) {
			return nil, &ValidationError{Field: "seller_id", Message: "seller does not exist", MissingIDs: []int64{req.SellerID}, Err: err}
		}
		return nil, err
	}

	ids := req.ProductIDs()
	existing, err := s.catalog.ExistingProductIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(existing) != len(ids) {
		found := make(map[int64]struct{}, len(existing))
		for _, id := range existing {
			found[id] = struct{}{}
		}
		var missing []int64
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, &ValidationError{Field: "items", Message: "products do not exist", MissingIDs: missing}
	}

	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	return &orderReferences{client: client, seller: seller, products: byID}, nil
}

// attach loads items, products, clients and sellers for orders. Items whose
// product no longer resolves are dropped from the result.
func (s *OrderService) attach(ctx context.Context, op string, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]int64, len(orders))
	clientIDs := make([]int64, 0, len(orders))
	sellerIDs := make([]int64, 0, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
		clientIDs = append(clientIDs, o.ClientID)
		sellerIDs = append(sellerIDs, o.SellerID)
	}

	items, err := s.orders.ItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	productIDs := make([]int64, len(items))
	for i, it := range items {
		productIDs[i] = it.ProductID
	}
	products, err := s.catalog.GetProductsByIDs(ctx, distinct(productIDs))
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	byID := make(map[int64]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	itemsByOrder := make(map[int64][]*model.LineItem, len(orders))
	var dangling *StoreInconsistencyError
	for _, it := range items {
		product, ok := byID[it.ProductID]
		if !ok {
			if dangling == nil {
				dangling = &StoreInconsistencyError{Op: op}
			}
			dangling.OrderIDs = append(dangling.OrderIDs, it.OrderID)
			dangling.ProductIDs = append(dangling.ProductIDs, it.ProductID)
			continue
		}
		it.Product = product
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}
	if dangling != nil {
		reportInconsistency(dangling)
	}

	clients, err := s.catalog.GetClientsByIDs(ctx, distinct(clientIDs))
	if err != nil {
		return fmt.Errorf("load clients: %w", err)
	}
	sellers, err := s.catalog.GetSellersByIDs(ctx, distinct(sellerIDs))
	if err != nil {
		return fmt.Errorf("load sellers: %w", err)
	}

	for _, o := range orders {
		o.Items = itemsByOrder[o.ID]
		if o.Items == nil {
			o.Items = []*model.LineItem{}
		}
		o.Client = clients[o.ClientID]
		o.Seller = sellers[o.SellerID]
	}
	return nil
}

func reportInconsistency(err *StoreInconsistencyError) {
	err.OrderIDs = distinct(err.OrderIDs)
	err.ProductIDs = distinct(err.ProductIDs)
	sort.Slice(err.ProductIDs, func(i, j int) bool { return err.ProductIDs[i] < err.ProductIDs[j] })
	logger.Warn("orphan line items skipped", "op", err.Op, "order_ids", err.OrderIDs, "product_ids", err.ProductIDs, "error", err)
	prom.IncStoreInconsistency(err.Op)
}
