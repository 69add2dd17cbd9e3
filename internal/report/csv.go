package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bodegacl/bodega-core/internal/models"
)

// WriteKardexCSV streams the movement history as CSV, one row per
// movement line.
func WriteKardexCSV(w io.Writer, movements []models.Movement) error {
	writer := csv.NewWriter(w)

	header := []string{
		"movement_id", "tipo", "estado", "fecha", "ubicacion",
		"item", "lote", "delta_qty", "ot", "motivo",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write kardex header: %w", err)
	}

	for _, movement := range movements {
		workOrderID := ""
		if movement.WorkOrderID != nil {
			workOrderID = *movement.WorkOrderID
		}
		reason := ""
		if movement.Reason != nil {
			reason = *movement.Reason
		}

		for _, line := range movement.Lines {
			lotID := ""
			if line.LotID != nil {
				lotID = *line.LotID
			}

			record := []string{
				movement.ID,
				string(movement.Type),
				string(movement.Status),
				movement.CreatedAt.UTC().Format(time.RFC3339),
				line.LocationID,
				line.ItemID,
				lotID,
				strconv.FormatFloat(line.DeltaQty, 'f', -1, 64),
				workOrderID,
				reason,
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write kardex row: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
