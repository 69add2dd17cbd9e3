// Package services hosts the orchestration layer between the HTTP
// boundary and the stateless rule engines: loading stored data, shaping
// it into engine requests and rendering results.
package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/kardex"
	"github.com/bodegacl/bodega-core/internal/repository"
)

// ReconciliationService reconciles the ledger-derived stock position
// against recorded physical counts.
type ReconciliationService struct {
	movements *repository.MovementRepository
	stock     *repository.StockRepository
	tolerance float64
	logger    *zap.Logger
}

// NewReconciliationService creates a reconciliation service with the
// configured default tolerance.
func NewReconciliationService(
	movements *repository.MovementRepository,
	stock *repository.StockRepository,
	tolerance float64,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		movements: movements,
		stock:     stock,
		tolerance: tolerance,
		logger:    logger,
	}
}

// Run rebuilds the ledger from approved movements, pairs it with the
// company's physical counts and reconciles the two. One line per stored
// count: a count with no ledger position reconciles against zero.
func (s *ReconciliationService) Run(companyID string) (*engine.ReconcileResult, error) {
	approved, err := s.movements.ListApproved(companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved movements: %w", err)
	}

	counts, err := s.stock.ListCounts(companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock counts: %w", err)
	}

	ledger := kardex.RebuildStock(approved)

	lines := make([]engine.ReconcileLine, 0, len(counts))
	for _, count := range counts {
		lines = append(lines, engine.ReconcileLine{
			CompanyID:  count.CompanyID,
			LocationID: count.LocationID,
			ItemID:     count.ItemID,
			LotID:      count.LotID,
			KardexQty:  kardex.FindStock(ledger, count.LocationID, count.ItemID, count.LotID),
			BalanceQty: count.CountedQty,
		})
	}

	result, err := engine.Reconcile(lines, s.tolerance)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock reconciliation completed",
		zap.String("company_id", companyID),
		zap.Int("checked_lines", result.CheckedLines),
		zap.Int("mismatch_count", result.MismatchCount),
		zap.Bool("balanced", result.Balanced))
	return result, nil
}
