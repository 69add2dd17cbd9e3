package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bodegacl/bodega-core/internal/repository"
	"github.com/bodegacl/bodega-core/pkg/database"
)

func newReportFixture(t *testing.T) (*ReportService, *database.DB) {
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
		`INSERT INTO locations (id, company_id, code, name, zone) VALUES
			('LOC-1', 'COMP-1', 'BOD-A', 'Bodega A', NULL),
			('LOC-2', 'COMP-1', 'BOD-B', 'Bodega B', NULL)`,
		`INSERT INTO items (id, company_id, sku, name, base_unit, category, has_expiry, by_lot) VALUES
			('ITEM-1', 'COMP-1', 'SKU-001', 'Harina 25kg', 'KG', 'insumos', 1, 1),
			('ITEM-2', 'COMP-1', 'SKU-002', 'Pallet', 'UN', 'embalaje', 0, 0)`,
		`INSERT INTO lots (id, company_id, item_id, lot_code, expires_at) VALUES
			('L-SOON', 'COMP-1', 'ITEM-1', 'LC-SOON', '2025-07-01'),
			('L-FAR', 'COMP-1', 'ITEM-1', 'LC-FAR', '2031-01-01')`,
		`INSERT INTO stock_balances (company_id, location_id, item_id, lot_id, quantity, updated_at) VALUES
			('COMP-1', 'LOC-1', 'ITEM-1', 'L-SOON', 8, '2025-06-01T00:00:00Z'),
			('COMP-1', 'LOC-2', 'ITEM-1', 'L-FAR', 10, '2025-06-01T00:00:00Z'),
			('COMP-1', 'LOC-1', 'ITEM-2', NULL, 40, '2025-06-01T00:00:00Z')`,
		`INSERT INTO work_orders (id, company_id, code, responsible, cost_center, status, notes, created_at) VALUES
			('WO-1', 'COMP-1', 'OT-100', 'Perez', 'CC-10', 'OPEN', NULL, '2025-06-01T00:00:00Z'),
			('WO-2', 'COMP-1', 'OT-101', 'Soto', 'CC-10', 'IN_PROGRESS', NULL, '2025-06-02T00:00:00Z'),
			('WO-3', 'COMP-1', 'OT-102', 'Soto', 'CC-10', 'DONE', NULL, '2025-05-01T00:00:00Z')`,
		`INSERT INTO movements (id, company_id, movement_type, status, reason, notes, requested_by_role,
			requested_by, approved_by_role, approved_by, work_order_id, created_at) VALUES
			('MOV-1', 'COMP-1', 'IN', 'APPROVED', NULL, NULL, 'BODEGUERO', 'user-1', 'SUPERVISOR', 'boss-1', NULL, '2025-06-01T10:00:00Z'),
			('MOV-2', 'COMP-1', 'ADJUST', 'PENDING', 'conteo', NULL, 'BODEGUERO', 'user-1', NULL, NULL, NULL, '2025-06-05T10:00:00Z')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	logger := zap.NewNop()
	service := NewReportService(
		repository.NewCatalogRepository(db.DB, logger),
		repository.NewLotRepository(db.DB, logger),
		repository.NewStockRepository(db.DB, logger),
		repository.NewMovementRepository(db.DB, logger),
		repository.NewWorkOrderRepository(db.DB, logger),
		logger)
	return service, db
}

func TestSummaryAggregatesPosition(t *testing.T) {
	service, _ := newReportFixture(t)

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	summary, err := service.Summary("COMP-1", now, 30)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, 2, summary.TotalLocations)
	assert.Equal(t, 1, summary.PendingMovements)
	assert.Equal(t, 2, summary.OpenWorkOrders)

	require.Len(t, summary.ExpiringLots, 1)
	assert.Equal(t, "L-SOON", summary.ExpiringLots[0].ID)

	require.Len(t, summary.ItemStock, 2)
	assert.Equal(t, 18.0, summary.ItemStock[0].TotalQty)
	assert.Equal(t, 40.0, summary.ItemStock[1].TotalQty)
}

func TestExpiryWorkbookRejectsUnknownWindow(t *testing.T) {
	service, _ := newReportFixture(t)

	_, err := service.ExpiryWorkbook("COMP-1", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), 45)
	assert.ErrorContains(t, err, "expiry window must be 30, 60 or 90 days")
}

func TestStockWorkbookRenders(t *testing.T) {
	service, _ := newReportFixture(t)

	workbook, err := service.StockWorkbook("COMP-1")
	require.NoError(t, err)
	defer workbook.Close()

	rows, err := workbook.GetRows("stock")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
