package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrSellerNotFound = errors.New("seller not found")
)

// CatalogRepository is the read-only view of clients, sellers, routes and
// products the ledger depends on.
type CatalogRepository struct {
	*pg.DB
}

func NewCatalogRepository(db *pg.DB) *CatalogRepository {
	return &CatalogRepository{
		db,
	}
}

// ExistingProductIDs returns the subset of ids that resolve to a product.
func (r *CatalogRepository) ExistingProductIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	var found []int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&ProductEntity{}).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &found).
		Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *CatalogRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]*model.Product, error) {
	if len(ids) == 0 {
		return []*model.Product{}, nil
	}
	var entities []*ProductEntity
	if err := r.Read(ctx).WithContext(ctx).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, err
	}
	return toProductModels(entities), nil
}

func (r *CatalogRepository) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	var entity ClientEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return toClientModel(&entity), nil
}

func (r *CatalogRepository) GetSeller(ctx context.Context, id int64) (*model.Seller, error) {
	var entity SellerEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	return toSellerModel(&entity), nil
}

func (r *CatalogRepository) GetClientsByIDs(ctx context.Context, ids []int64) (map[int64]*model.Client, error) {
	out := make(map[int64]*model.Client, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var entities []*ClientEntity
	if err := r.Read(ctx).WithContext(ctx).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.ID] = toClientModel(e)
	}
	return out, nil
}

func (r *CatalogRepository) GetSellersByIDs(ctx context.Context, ids []int64) (map[int64]*model.Seller, error) {
	out := make(map[int64]*model.Seller, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var entities []*SellerEntity
	if err := r.Read(ctx).WithContext(ctx).Where("id IN ?", ids).Find(&entities).Error; err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.ID] = toSellerModel(e)
	}
	return out, nil
}

// SellerIDsByRoute lists every seller assigned to routeID.
func (r *CatalogRepository) SellerIDsByRoute(ctx context.Context, routeID int64) ([]int64, error) {
	var ids []int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&SellerEntity{}).
		Where("route_id = ?", routeID).
		Order("id").
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
