// Package kardex derives stock positions from the recorded movement
// history. Only APPROVED movements touch balances; everything here is a
// pure computation over caller-supplied slices.
package kardex

import (
	"math"
	"sort"
	"time"

	"github.com/bodegacl/bodega-core/internal/engine"
	"github.com/bodegacl/bodega-core/internal/models"
)

// round4 keeps balance quantities at the 4-decimal precision the ledger
// stores.
func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}

func sameLot(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ApplyApprovedMovement folds one movement's lines into a balance set
// and returns the updated copy. Non-approved movements leave balances
// untouched. Keys driven to zero or below are removed; unknown keys are
// created only for positive deltas.
func ApplyApprovedMovement(balances []models.StockBalance, movement models.Movement) []models.StockBalance {
	if movement.Status != engine.StatusApproved {
		return balances
	}

	next := make([]models.StockBalance, len(balances))
	copy(next, balances)

	for _, line := range movement.Lines {
		idx := -1
		for i, candidate := range next {
			if candidate.CompanyID == movement.CompanyID &&
				candidate.LocationID == line.LocationID &&
				candidate.ItemID == line.ItemID &&
				sameLot(candidate.LotID, line.LotID) {
				idx = i
				break
			}
		}

		if idx >= 0 {
			updated := next[idx]
			updated.Quantity = round4(updated.Quantity + line.DeltaQty)
			updated.UpdatedAt = movement.CreatedAt

			if updated.Quantity <= 0 {
				next = append(next[:idx], next[idx+1:]...)
			} else {
				next[idx] = updated
			}
		} else if line.DeltaQty > 0 {
			next = append(next, models.StockBalance{
				CompanyID:  movement.CompanyID,
				LocationID: line.LocationID,
				ItemID:     line.ItemID,
				LotID:      line.LotID,
				Quantity:   round4(line.DeltaQty),
				UpdatedAt:  movement.CreatedAt,
			})
		}
	}

	return next
}

// RebuildStock replays all approved movements in chronological order
// into a fresh balance set. This is the ledger-quantity source for
// reconciliation.
func RebuildStock(movements []models.Movement) []models.StockBalance {
	approved := make([]models.Movement, 0, len(movements))
	for _, movement := range movements {
		if movement.Status == engine.StatusApproved {
			approved = append(approved, movement)
		}
	}

	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].CreatedAt.Before(approved[j].CreatedAt)
	})

	var balances []models.StockBalance
	for _, movement := range approved {
		balances = ApplyApprovedMovement(balances, movement)
	}
	return balances
}

// FindStock returns the quantity at one stock key, zero when absent.
func FindStock(stock []models.StockBalance, locationID, itemID string, lotID *string) float64 {
	for _, line := range stock {
		if line.LocationID == locationID && line.ItemID == itemID && sameLot(line.LotID, lotID) {
			return line.Quantity
		}
	}
	return 0
}

// ItemTotalStock sums an item's quantity across all locations and lots.
func ItemTotalStock(stock []models.StockBalance, itemID string) float64 {
	var total float64
	for _, line := range stock {
		if line.ItemID == itemID {
			total += line.Quantity
		}
	}
	return total
}

// IsExpired reports whether an expiry string falls strictly before the
// given day. Unparsable dates are treated as not expired.
func IsExpired(expiresAt string, today time.Time) bool {
	date, err := engine.ParseExpiry(expiresAt)
	if err != nil {
		return false
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return date.Before(day)
}

// IsNearExpiry reports whether an expiry string falls inside the coming
// window of days, expired lots included.
func IsNearExpiry(expiresAt string, now time.Time, days int) bool {
	date, err := engine.ParseExpiry(expiresAt)
	if err != nil {
		return false
	}
	limit := now.AddDate(0, 0, days)
	return !date.After(limit)
}

// ListExpiringLots filters lots whose expiry falls within the coming
// window of days. Lots with unparsable expiry dates are skipped.
func ListExpiringLots(lots []models.Lot, now time.Time, days int) []models.Lot {
	expiring := make([]models.Lot, 0)
	for _, lot := range lots {
		if IsNearExpiry(lot.ExpiresAt, now, days) {
			expiring = append(expiring, lot)
		}
	}
	return expiring
}

// CountOpenWorkOrders counts work orders still accepting consumption.
func CountOpenWorkOrders(workOrders []models.WorkOrder) int {
	count := 0
	for _, wo := range workOrders {
		if wo.Open() {
			count++
		}
	}
	return count
}

// NextStatusAfterApproval maps the approver's decision to the resulting
// movement status.
func NextStatusAfterApproval(approved bool) engine.MovementStatus {
	if approved {
		return engine.StatusApproved
	}
	return engine.StatusRejected
}

// MovementLabel is the operator-facing Spanish label for a movement
// type.
func MovementLabel(movementType engine.MovementType) string {
	switch movementType {
	case engine.MovementInitial:
		return "Inventario Inicial"
	case engine.MovementIn:
		return "Entrada"
	case engine.MovementOutOT:
		return "Salida OT"
	case engine.MovementTransfer:
		return "Traslado"
	case engine.MovementAdjust:
		return "Ajuste"
	case engine.MovementScrap:
		return "Merma"
	default:
		return string(movementType)
	}
}
