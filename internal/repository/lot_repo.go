package repository

import (
	"database/sql"
	"fmt"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/models"
	"go.uber.org/zap"
)

// LotRepository reads lot master data and lot-level availability.
type LotRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLotRepository creates a new lot repository.
func NewLotRepository(db *sql.DB, logger *zap.Logger) *LotRepository {
	return &LotRepository{db: db, logger: logger}
}

// ListByCompany returns all lots of a company.
func (r *LotRepository) ListByCompany(companyID string) ([]models.Lot, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, item_id, lot_code, expires_at
		FROM lots
		WHERE company_id = ?
		ORDER BY expires_at, id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	defer rows.Close()

	var lots []models.Lot
	for rows.Next() {
		var lot models.Lot
		if err := rows.Scan(&lot.ID, &lot.CompanyID, &lot.ItemID, &lot.LotCode, &lot.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// ListAvailable returns the candidate lot set for a FIFO allocation:
// lots of the item that hold positive stock at the location. The
// allocator re-checks item/location/quantity itself; this query just
// feeds it.
func (r *LotRepository) ListAvailable(companyID, itemID, locationID string) ([]engine.Lot, error) {
	rows, err := r.db.Query(`
		SELECT l.id, l.item_id, sb.location_id, l.expires_at, sb.quantity
		FROM lots l
		JOIN stock_balances sb ON sb.lot_id = l.id AND sb.company_id = l.company_id
		WHERE l.company_id = ? AND l.item_id = ? AND sb.location_id = ? AND sb.quantity > 0
		ORDER BY l.expires_at, l.id
	`, companyID, itemID, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available lots: %w", err)
	}
	defer rows.Close()

	var lots []engine.Lot
	for rows.Next() {
		var lot engine.Lot
		if err := rows.Scan(&lot.LotID, &lot.ItemID, &lot.LocationID, &lot.ExpiresAt, &lot.AvailableQty); err != nil {
			return nil, fmt.Errorf("failed to scan available lot: %w", err)
		}
		lots = append(lots, lot)
	}

	r.logger.Debug("Loaded candidate lots",
		zap.String("item_id", itemID),
		zap.String("location_id", locationID),
		zap.Int("count", len(lots)))
	return lots, rows.Err()
}
