package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/models"
)

func strPtr(s string) *string { return &s }

func masterData() ([]models.Item, []models.Location, []models.Lot) {
	items := []models.Item{
		{ID: "ITEM-1", CompanyID: "COMP-1", SKU: "SKU-100", Name: "Harina", BaseUnit: "kg", HasExpiry: true, ByLot: true},
	}
	locations := []models.Location{
		{ID: "LOC-1", CompanyID: "COMP-1", Code: "BOD-A", Name: "Bodega A"},
	}
	lots := []models.Lot{
		{ID: "LOT-1", CompanyID: "COMP-1", ItemID: "ITEM-1", LotCode: "H-2025-01", ExpiresAt: "2025-07-01"},
	}
	return items, locations, lots
}

func TestBuildStockWorkbook(t *testing.T) {
	items, locations, lots := masterData()
	updatedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stock := []models.StockBalance{
		{CompanyID: "COMP-1", LocationID: "LOC-1", ItemID: "ITEM-1", LotID: strPtr("LOT-1"), Quantity: 42.5, UpdatedAt: updatedAt},
		{CompanyID: "COMP-1", LocationID: "LOC-UNKNOWN", ItemID: "ITEM-UNKNOWN", LotID: nil, Quantity: 3, UpdatedAt: updatedAt},
	}

	f, err := BuildStockWorkbook(stock, items, locations, lots)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("stock", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ubicacion", header)

	location, _ := f.GetCellValue("stock", "A2")
	sku, _ := f.GetCellValue("stock", "B2")
	lotCode, _ := f.GetCellValue("stock", "D2")
	qty, _ := f.GetCellValue("stock", "F2")
	assert.Equal(t, "BOD-A", location)
	assert.Equal(t, "SKU-100", sku)
	assert.Equal(t, "H-2025-01", lotCode)
	assert.Equal(t, "42.5", qty)

	// Unknown master data falls back to raw identifiers, lotless lines
	// show N/A.
	rawLocation, _ := f.GetCellValue("stock", "A3")
	rawLot, _ := f.GetCellValue("stock", "D3")
	assert.Equal(t, "LOC-UNKNOWN", rawLocation)
	assert.Equal(t, "N/A", rawLot)
}

func TestBuildExpiryWorkbook(t *testing.T) {
	items, _, lots := masterData()
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	stock := []models.StockBalance{
		{CompanyID: "COMP-1", LocationID: "LOC-1", ItemID: "ITEM-1", LotID: strPtr("LOT-1"), Quantity: 10, UpdatedAt: now},
		{CompanyID: "COMP-1", LocationID: "LOC-1", ItemID: "ITEM-1", LotID: nil, Quantity: 99, UpdatedAt: now},
	}

	f, err := BuildExpiryWorkbook(stock, lots, items, now, 30)
	require.NoError(t, err)
	defer f.Close()

	name, _ := f.GetCellValue("vencimientos_30", "A2")
	days, _ := f.GetCellValue("vencimientos_30", "E2")
	assert.Equal(t, "Harina", name)
	assert.Equal(t, "16", days)

	// Lotless line is excluded; only one data row.
	empty, _ := f.GetCellValue("vencimientos_30", "A3")
	assert.Empty(t, empty)
}

func TestBuildExpiryWorkbookSkipsOutOfWindow(t *testing.T) {
	items, _, _ := masterData()
	lots := []models.Lot{
		{ID: "LOT-FAR", CompanyID: "COMP-1", ItemID: "ITEM-1", LotCode: "H-2030", ExpiresAt: "2030-01-01"},
	}
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	stock := []models.StockBalance{
		{CompanyID: "COMP-1", LocationID: "LOC-1", ItemID: "ITEM-1", LotID: strPtr("LOT-FAR"), Quantity: 5, UpdatedAt: now},
	}

	f, err := BuildExpiryWorkbook(stock, lots, items, now, 60)
	require.NoError(t, err)
	defer f.Close()

	empty, _ := f.GetCellValue("vencimientos_60", "A2")
	assert.Empty(t, empty)
}

func TestBuildReconcileWorkbook(t *testing.T) {
	lotID := "LOT-1"
	result := &engine.ReconcileResult{
		Balanced:      false,
		CheckedLines:  3,
		MismatchCount: 1,
		Mismatches: []engine.ReconcileMismatch{
			{
				ReconcileLine: engine.ReconcileLine{
					CompanyID:  "COMP-1",
					LocationID: "LOC-1",
					ItemID:     "ITEM-1",
					LotID:      &lotID,
					KardexQty:  10,
					BalanceQty: 10.25,
				},
				Delta: 0.25,
			},
		},
	}

	f, err := BuildReconcileWorkbook(result)
	require.NoError(t, err)
	defer f.Close()

	item, _ := f.GetCellValue("descuadres", "C2")
	delta, _ := f.GetCellValue("descuadres", "G2")
	assert.Equal(t, "ITEM-1", item)
	assert.Equal(t, "0.25", delta)
}

func TestWriteKardexCSV(t *testing.T) {
	workOrderID := "OT-1"
	reason := "merma mensual"
	movements := []models.Movement{
		{
			ID:              "M-1",
			CompanyID:       "COMP-1",
			Type:            engine.MovementOutOT,
			Status:          engine.StatusApproved,
			RequestedByRole: engine.RoleBodeguero,
			RequestedBy:     "user-1",
			WorkOrderID:     &workOrderID,
			Reason:          &reason,
			CreatedAt:       time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
			Lines: []models.MovementLine{
				{LocationID: "LOC-1", ItemID: "ITEM-1", LotID: strPtr("LOT-1"), DeltaQty: -12.5},
				{LocationID: "LOC-1", ItemID: "ITEM-2", LotID: nil, DeltaQty: -3},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteKardexCSV(&buf, movements))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3, "header plus one row per movement line")
	assert.Equal(t, "movement_id", records[0][0])
	assert.Equal(t, []string{
		"M-1", "OUT_OT", "APPROVED", "2025-05-01T08:00:00Z",
		"LOC-1", "ITEM-1", "LOT-1", "-12.5", "OT-1", "merma mensual",
	}, records[1])
	assert.Equal(t, "", records[2][6], "lotless line leaves the lot column empty")
}
