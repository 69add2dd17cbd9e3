package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/models"
	"go.uber.org/zap"
)

// MovementRepository reads and writes kardex movements.
type MovementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMovementRepository creates a new movement repository.
func NewMovementRepository(db *sql.DB, logger *zap.Logger) *MovementRepository {
	return &MovementRepository{db: db, logger: logger}
}

// Create persists a movement and its lines in one transaction provided
// by the caller.
func (r *MovementRepository) Create(tx *sql.Tx, movement *models.Movement) error {
	_, err := tx.Exec(`
		INSERT INTO movements (
			id, company_id, movement_type, status, reason, notes,
			requested_by_role, requested_by, approved_by_role, approved_by,
			work_order_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		movement.ID,
		movement.CompanyID,
		string(movement.Type),
		string(movement.Status),
		movement.Reason,
		movement.Notes,
		string(movement.RequestedByRole),
		movement.RequestedBy,
		roleValue(movement.ApprovedByRole),
		movement.ApprovedBy,
		movement.WorkOrderID,
		movement.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}

	for i, line := range movement.Lines {
		_, err := tx.Exec(`
			INSERT INTO movement_lines (movement_id, line_no, location_id, item_id, lot_id, delta_qty)
			VALUES (?, ?, ?, ?, ?, ?)
		`, movement.ID, i+1, line.LocationID, line.ItemID, line.LotID, line.DeltaQty)
		if err != nil {
			return fmt.Errorf("failed to insert movement line: %w", err)
		}
	}

	return nil
}

// UpdateStatus records an approval decision on a movement.
func (r *MovementRepository) UpdateStatus(movementID string, status engine.MovementStatus, approverRole engine.Role, approvedBy string) error {
	result, err := r.db.Exec(`
		UPDATE movements
		SET status = ?, approved_by_role = ?, approved_by = ?
		WHERE id = ?
	`, string(status), string(approverRole), approvedBy, movementID)
	if err != nil {
		return fmt.Errorf("failed to update movement status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("movement %s not found", movementID)
	}

	r.logger.Info("Movement status updated",
		zap.String("movement_id", movementID),
		zap.String("status", string(status)))
	return nil
}

// ListByCompany returns all movements with their lines, oldest first.
func (r *MovementRepository) ListByCompany(companyID string) ([]models.Movement, error) {
	return r.list(`
		SELECT id, company_id, movement_type, status, reason, notes,
		       requested_by_role, requested_by, approved_by_role, approved_by,
		       work_order_id, created_at
		FROM movements
		WHERE company_id = ?
		ORDER BY created_at, id
	`, companyID)
}

// ListApproved returns only approved movements, the input for ledger
// replay.
func (r *MovementRepository) ListApproved(companyID string) ([]models.Movement, error) {
	return r.list(`
		SELECT id, company_id, movement_type, status, reason, notes,
		       requested_by_role, requested_by, approved_by_role, approved_by,
		       work_order_id, created_at
		FROM movements
		WHERE company_id = ? AND status = 'APPROVED'
		ORDER BY created_at, id
	`, companyID)
}

func (r *MovementRepository) list(query string, args ...any) ([]models.Movement, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	var movements []models.Movement
	for rows.Next() {
		var m models.Movement
		var movementType, status, requestedByRole, createdAt string
		var reason, notes, approvedByRole, approvedBy, workOrderID sql.NullString

		if err := rows.Scan(&m.ID, &m.CompanyID, &movementType, &status, &reason, &notes,
			&requestedByRole, &m.RequestedBy, &approvedByRole, &approvedBy,
			&workOrderID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}

		m.Type = engine.MovementType(movementType)
		m.Status = engine.MovementStatus(status)
		m.RequestedByRole = engine.Role(requestedByRole)
		if reason.Valid {
			m.Reason = &reason.String
		}
		if notes.Valid {
			m.Notes = &notes.String
		}
		if approvedByRole.Valid {
			role := engine.Role(approvedByRole.String)
			m.ApprovedByRole = &role
		}
		if approvedBy.Valid {
			m.ApprovedBy = &approvedBy.String
		}
		if workOrderID.Valid {
			m.WorkOrderID = &workOrderID.String
		}

		m.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse movement timestamp %q: %w", createdAt, err)
		}

		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range movements {
		lines, err := r.listLines(movements[i].ID)
		if err != nil {
			return nil, err
		}
		movements[i].Lines = lines
	}

	return movements, nil
}

func (r *MovementRepository) listLines(movementID string) ([]models.MovementLine, error) {
	rows, err := r.db.Query(`
		SELECT location_id, item_id, lot_id, delta_qty
		FROM movement_lines
		WHERE movement_id = ?
		ORDER BY line_no
	`, movementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list movement lines: %w", err)
	}
	defer rows.Close()

	var lines []models.MovementLine
	for rows.Next() {
		var line models.MovementLine
		var lotID sql.NullString
		if err := rows.Scan(&line.LocationID, &line.ItemID, &lotID, &line.DeltaQty); err != nil {
			return nil, fmt.Errorf("failed to scan movement line: %w", err)
		}
		if lotID.Valid {
			line.LotID = &lotID.String
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func roleValue(role *engine.Role) any {
	if role == nil {
		return nil
	}
	return string(*role)
}
