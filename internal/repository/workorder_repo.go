package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bodegacl/bodega-core/internal/models"
	"go.uber.org/zap"
)

// WorkOrderRepository reads work orders.
type WorkOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkOrderRepository creates a new work order repository.
func NewWorkOrderRepository(db *sql.DB, logger *zap.Logger) *WorkOrderRepository {
	return &WorkOrderRepository{db: db, logger: logger}
}

// ListByCompany returns all work orders of a company.
func (r *WorkOrderRepository) ListByCompany(companyID string) ([]models.WorkOrder, error) {
	return r.list(`
		SELECT id, company_id, code, responsible, cost_center, status, notes, created_at
		FROM work_orders
		WHERE company_id = ?
		ORDER BY created_at
	`, companyID)
}

// ListOpen returns work orders still accepting consumption.
func (r *WorkOrderRepository) ListOpen(companyID string) ([]models.WorkOrder, error) {
	return r.list(`
		SELECT id, company_id, code, responsible, cost_center, status, notes, created_at
		FROM work_orders
		WHERE company_id = ? AND status IN ('OPEN', 'IN_PROGRESS')
		ORDER BY created_at
	`, companyID)
}

func (r *WorkOrderRepository) list(query string, args ...any) ([]models.WorkOrder, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	defer rows.Close()

	var workOrders []models.WorkOrder
	for rows.Next() {
		var wo models.WorkOrder
		var status, createdAt string
		var notes sql.NullString
		if err := rows.Scan(&wo.ID, &wo.CompanyID, &wo.Code, &wo.Responsible,
			&wo.CostCenter, &status, &notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		wo.Status = models.WorkOrderStatus(status)
		if notes.Valid {
			wo.Notes = &notes.String
		}
		wo.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse work order timestamp %q: %w", createdAt, err)
		}
		workOrders = append(workOrders, wo)
	}
	return workOrders, rows.Err()
}
