package repository

import (
	"database/sql"
	"fmt"

	"github.com/bodegacl/bodega-core/internal/models"
	"go.uber.org/zap"
)

// CatalogRepository reads warehouse master data (items and locations).
type CatalogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sql.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{db: db, logger: logger}
}

// ListItems returns all items of a company.
func (r *CatalogRepository) ListItems(companyID string) ([]models.Item, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, sku, name, base_unit, category, has_expiry, by_lot
		FROM items
		WHERE company_id = ?
		ORDER BY sku
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.CompanyID, &item.SKU, &item.Name,
			&item.BaseUnit, &item.Category, &item.HasExpiry, &item.ByLot); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListLocations returns all locations of a company.
func (r *CatalogRepository) ListLocations(companyID string) ([]models.Location, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, code, name, zone
		FROM locations
		WHERE company_id = ?
		ORDER BY code
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var location models.Location
		var zone sql.NullString
		if err := rows.Scan(&location.ID, &location.CompanyID, &location.Code, &location.Name, &zone); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		if zone.Valid {
			location.Zone = &zone.String
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}
