// Package report renders warehouse exports: stock and expiry workbooks,
// reconciliation mismatch workbooks and the kardex CSV. Builders are
// pure; callers decide where the bytes go.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/models"
)

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func lotDisplay(lots map[string]models.Lot, lotID *string) (code, expiry string) {
	if lotID == nil {
		return "N/A", "N/A"
	}
	if lot, ok := lots[*lotID]; ok {
		return lot.LotCode, lot.ExpiresAt
	}
	return *lotID, "N/A"
}

// BuildStockWorkbook renders stock balances joined with master data into
// a single-sheet workbook, mirroring the warehouse stock export.
func BuildStockWorkbook(stock []models.StockBalance, items []models.Item, locations []models.Location, lots []models.Lot) (*excelize.File, error) {
	itemIdx := make(map[string]models.Item, len(items))
	for _, item := range items {
		itemIdx[item.ID] = item
	}
	locationIdx := make(map[string]models.Location, len(locations))
	for _, location := range locations {
		locationIdx[location.ID] = location
	}
	lotIdx := make(map[string]models.Lot, len(lots))
	for _, lot := range lots {
		lotIdx[lot.ID] = lot
	}

	f := excelize.NewFile()
	const sheet = "stock"
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{"ubicacion", "item_sku", "item_nombre", "lote", "vence", "cantidad", "unidad", "actualizado"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return nil, fmt.Errorf("failed to write stock header: %w", err)
	}

	for i, line := range stock {
		locationCode := line.LocationID
		if location, ok := locationIdx[line.LocationID]; ok {
			locationCode = location.Code
		}

		sku, itemName, unit := line.ItemID, line.ItemID, "-"
		if item, ok := itemIdx[line.ItemID]; ok {
			sku, itemName, unit = item.SKU, item.Name, item.BaseUnit
		}

		lotCode, expiry := lotDisplay(lotIdx, line.LotID)

		row := []interface{}{
			locationCode, sku, itemName, lotCode, expiry,
			line.Quantity, unit, line.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, fmt.Errorf("failed to write stock row: %w", err)
		}
	}

	return f, nil
}

// BuildExpiryWorkbook renders lot-level stock whose expiry falls within
// the coming window of days. Lines without a lot, with unknown master
// data or with an unparsable expiry are skipped.
func BuildExpiryWorkbook(stock []models.StockBalance, lots []models.Lot, items []models.Item, now time.Time, windowDays int) (*excelize.File, error) {
	itemIdx := make(map[string]models.Item, len(items))
	for _, item := range items {
		itemIdx[item.ID] = item
	}
	lotIdx := make(map[string]models.Lot, len(lots))
	for _, lot := range lots {
		lotIdx[lot.ID] = lot
	}

	maxDate := now.AddDate(0, 0, windowDays)

	f := excelize.NewFile()
	sheet := fmt.Sprintf("vencimientos_%d", windowDays)
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{"item", "sku", "lote", "vence", "dias_restantes", "cantidad"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return nil, fmt.Errorf("failed to write expiry header: %w", err)
	}

	rowIdx := 2
	for _, line := range stock {
		if line.LotID == nil {
			continue
		}
		lot, ok := lotIdx[*line.LotID]
		if !ok {
			continue
		}
		item, ok := itemIdx[line.ItemID]
		if !ok {
			continue
		}

		expiry, err := engine.ParseExpiry(lot.ExpiresAt)
		if err != nil {
			continue
		}
		if expiry.After(maxDate) {
			continue
		}

		daysLeft := int(math.Floor(expiry.Sub(now).Hours() / 24))
		row := []interface{}{item.Name, item.SKU, lot.LotCode, lot.ExpiresAt, daysLeft, line.Quantity}
		if err := writeRow(f, sheet, rowIdx, row); err != nil {
			return nil, fmt.Errorf("failed to write expiry row: %w", err)
		}
		rowIdx++
	}

	return f, nil
}

// BuildReconcileWorkbook renders a reconciliation run's mismatches.
func BuildReconcileWorkbook(result *engine.ReconcileResult) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "descuadres"
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{"company_id", "ubicacion", "item", "lote", "kardex_qty", "balance_qty", "delta"}
	if err := writeRow(f, sheet, 1, headers); err != nil {
		return nil, fmt.Errorf("failed to write reconcile header: %w", err)
	}

	for i, mismatch := range result.Mismatches {
		lotID := ""
		if mismatch.LotID != nil {
			lotID = *mismatch.LotID
		}
		row := []interface{}{
			mismatch.CompanyID, mismatch.LocationID, mismatch.ItemID, lotID,
			mismatch.KardexQty, mismatch.BalanceQty, mismatch.Delta,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, fmt.Errorf("failed to write reconcile row: %w", err)
		}
	}

	return f, nil
}
