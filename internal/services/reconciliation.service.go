package services

import (
	"context"

	"github.com/nimasrn/collections-ledger/internal/model"
	"github.com/nimasrn/collections-ledger/pkg/logger"
	"github.com/nimasrn/collections-ledger/pkg/prom"
)

type ReconciliationRepository interface {
	ListOrphans(ctx context.Context) ([]*model.OrphanLineItem, error)
	PurgeOrphans(ctx context.Context) ([]*model.OrphanLineItem, error)
}

type ReconciliationService struct {
	repo ReconciliationRepository
}

func NewReconciliationService(repo ReconciliationRepository) *ReconciliationService {
	return &ReconciliationService{
		repo: repo,
	}
}

func (s *ReconciliationService) ListOrphanLineItems(ctx context.Context) ([]*model.OrphanLineItem, error) {
	orphans, err := s.repo.ListOrphans(ctx)
	if err != nil {
		logFailure("reconciliation.list_orphans", err)
		return nil, err
	}
	if orphans == nil {
		orphans = []*model.OrphanLineItem{}
	}
	return orphans, nil
}

// PurgeOrphanLineItems deletes every line item whose product is gone. A
// second call right after finds nothing.
func (s *ReconciliationService) PurgeOrphanLineItems(ctx context.Context) (*model.PurgeResult, error) {
	removed, err := s.repo.PurgeOrphans(ctx)
	if err != nil {
		logFailure("reconciliation.purge_orphans", err)
		return nil, err
	}
	if removed == nil {
		removed = []*model.OrphanLineItem{}
	}

	if len(removed) > 0 {
		prom.AddOrphansPurged(len(removed))
		logger.Info("orphan line items purged", "count", len(removed))
	}
	return &model.PurgeResult{Count: len(removed), Removed: removed}, nil
}
