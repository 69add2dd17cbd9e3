package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bodegacl/bodega-core/internal/models"
	"go.uber.org/zap"
)

// StockRepository reads stored stock balances and physical count
// snapshots.
type StockRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStockRepository creates a new stock repository.
func NewStockRepository(db *sql.DB, logger *zap.Logger) *StockRepository {
	return &StockRepository{db: db, logger: logger}
}

// ListBalances returns the stored stock balances of a company.
func (r *StockRepository) ListBalances(companyID string) ([]models.StockBalance, error) {
	rows, err := r.db.Query(`
		SELECT company_id, location_id, item_id, lot_id, quantity, updated_at
		FROM stock_balances
		WHERE company_id = ?
		ORDER BY location_id, item_id, ifnull(lot_id, '')
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock balances: %w", err)
	}
	defer rows.Close()

	var balances []models.StockBalance
	for rows.Next() {
		var balance models.StockBalance
		var lotID sql.NullString
		var updatedAt string
		if err := rows.Scan(&balance.CompanyID, &balance.LocationID, &balance.ItemID,
			&lotID, &balance.Quantity, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock balance: %w", err)
		}
		if lotID.Valid {
			balance.LotID = &lotID.String
		}
		balance.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance timestamp %q: %w", updatedAt, err)
		}
		balances = append(balances, balance)
	}
	return balances, rows.Err()
}

// ListCounts returns the physical count snapshots of a company in the
// order they were recorded.
func (r *StockRepository) ListCounts(companyID string) ([]models.StockCount, error) {
	rows, err := r.db.Query(`
		SELECT company_id, location_id, item_id, lot_id, counted_qty, counted_at
		FROM stock_counts
		WHERE company_id = ?
		ORDER BY counted_at, location_id, item_id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock counts: %w", err)
	}
	defer rows.Close()

	var counts []models.StockCount
	for rows.Next() {
		var count models.StockCount
		var lotID sql.NullString
		var countedAt string
		if err := rows.Scan(&count.CompanyID, &count.LocationID, &count.ItemID,
			&lotID, &count.CountedQty, &countedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock count: %w", err)
		}
		if lotID.Valid {
			count.LotID = &lotID.String
		}
		count.CountedAt, err = time.Parse(time.RFC3339, countedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse count timestamp %q: %w", countedAt, err)
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}
