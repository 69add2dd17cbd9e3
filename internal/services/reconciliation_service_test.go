package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/models"
	"github.com/bodegacl/bodega-core/internal/repository"
	"github.com/bodegacl/bodega-core/pkg/database"
)

func newReconcileFixture(t *testing.T) (*ReconciliationService, *database.DB) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	stmts := []string{
		`INSERT INTO companies (id, name) VALUES ('COMP-1', 'Bodega Central')`,
		`INSERT INTO locations (id, company_id, code, name, zone) VALUES ('LOC-1', 'COMP-1', 'BOD-A', 'Bodega A', NULL)`,
		`INSERT INTO items (id, company_id, sku, name, base_unit, category, has_expiry, by_lot) VALUES
			('ITEM-1', 'COMP-1', 'SKU-001', 'Harina 25kg', 'KG', 'insumos', 0, 0)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	logger := zap.NewNop()
	movements := repository.NewMovementRepository(db.DB, logger)
	stock := repository.NewStockRepository(db.DB, logger)
	return NewReconciliationService(movements, stock, engine.DefaultTolerance, logger), db
}

func insertMovement(t *testing.T, db *database.DB, id string, status engine.MovementStatus, createdAt time.Time, deltaQty float64) {
	t.Helper()

	movements := repository.NewMovementRepository(db.DB, zap.NewNop())
	err := db.WithTransaction(func(tx *sql.Tx) error {
		return movements.Create(tx, &models.Movement{
			ID:              id,
			CompanyID:       "COMP-1",
			Type:            engine.MovementAdjust,
			Status:          status,
			RequestedByRole: engine.RoleSupervisor,
			RequestedBy:     "user-1",
			CreatedAt:       createdAt,
			Lines: []models.MovementLine{
				{LocationID: "LOC-1", ItemID: "ITEM-1", DeltaQty: deltaQty},
			},
		})
	})
	require.NoError(t, err)
}

func insertCount(t *testing.T, db *database.DB, countedQty float64) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO stock_counts (company_id, location_id, item_id, lot_id, counted_qty, counted_at)
		VALUES ('COMP-1', 'LOC-1', 'ITEM-1', NULL, ?, '2025-06-14T00:00:00Z')`, countedQty)
	require.NoError(t, err)
}

func TestRunFlagsCountDrift(t *testing.T) {
	service, db := newReconcileFixture(t)

	insertMovement(t, db, "MOV-1", engine.StatusApproved, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), 50)
	insertMovement(t, db, "MOV-2", engine.StatusApproved, time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC), -8)
	insertCount(t, db, 41)

	result, err := service.Run("COMP-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.CheckedLines)
	require.Equal(t, 1, result.MismatchCount)
	assert.Equal(t, 42.0, result.Mismatches[0].KardexQty)
	assert.Equal(t, 41.0, result.Mismatches[0].BalanceQty)
	assert.InDelta(t, -1.0, result.Mismatches[0].Delta, 1e-9)
	assert.False(t, result.Balanced)
}

func TestRunIgnoresPendingMovements(t *testing.T) {
	service, db := newReconcileFixture(t)

	insertMovement(t, db, "MOV-1", engine.StatusApproved, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), 42)
	insertMovement(t, db, "MOV-2", engine.StatusPending, time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC), -8)
	insertCount(t, db, 42)

	result, err := service.Run("COMP-1")
	require.NoError(t, err)
	assert.True(t, result.Balanced)
	assert.Equal(t, 0, result.MismatchCount)
}

func TestRunCountWithoutLedgerReconcilesAgainstZero(t *testing.T) {
	service, db := newReconcileFixture(t)

	insertCount(t, db, 5)

	result, err := service.Run("COMP-1")
	require.NoError(t, err)
	require.Equal(t, 1, result.MismatchCount)
	assert.Equal(t, 0.0, result.Mismatches[0].KardexQty)
	assert.InDelta(t, 5.0, result.Mismatches[0].Delta, 1e-9)
}

func TestRunNoCountsIsBalanced(t *testing.T) {
	service, db := newReconcileFixture(t)

	insertMovement(t, db, "MOV-1", engine.StatusApproved, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), 10)

	result, err := service.Run("COMP-1")
	require.NoError(t, err)
	assert.True(t, result.Balanced)
	assert.Equal(t, 0, result.CheckedLines)
}
