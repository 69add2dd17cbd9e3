package engine

import (
	"errors"
	"math"
)

// DefaultTolerance is the maximum absolute ledger/count discrepancy
// accepted when the caller does not supply one.
const DefaultTolerance = 0.000001

// ReconcileLine pairs a ledger-computed quantity with a physically
// counted one for a single (company, location, item, lot) key.
type ReconcileLine struct {
	CompanyID  string  `json:"companyId"`
	LocationID string  `json:"locationId"`
	ItemID     string  `json:"itemId"`
	LotID      *string `json:"lotId"`
	KardexQty  float64 `json:"kardexQty"`
	BalanceQty float64 `json:"balanceQty"`
}

// ReconcileMismatch is a line whose discrepancy exceeds the tolerance,
// with the signed delta (counted minus ledger).
type ReconcileMismatch struct {
	ReconcileLine
	Delta float64 `json:"delta"`
}

// ReconcileResult summarizes a reconciliation run. Mismatches keep the
// input order.
type ReconcileResult struct {
	Balanced      bool                `json:"balanced"`
	CheckedLines  int                 `json:"checkedLines"`
	MismatchCount int                 `json:"mismatchCount"`
	Mismatches    []ReconcileMismatch `json:"mismatches"`
}

// Reconcile flags every line whose |counted - ledger| is strictly
// greater than tolerance. A delta exactly equal to the tolerance is not
// a mismatch. Each line stands alone; there is no cross-line grouping.
func Reconcile(lines []ReconcileLine, tolerance float64) (*ReconcileResult, error) {
	// Signbit rather than < 0 so that -0.0 is rejected too.
	if math.Signbit(tolerance) {
		return nil, errors.New("Tolerance must be zero or positive")
	}

	mismatches := make([]ReconcileMismatch, 0)
	for _, line := range lines {
		delta := line.BalanceQty - line.KardexQty
		if math.Abs(delta) > tolerance {
			mismatches = append(mismatches, ReconcileMismatch{
				ReconcileLine: line,
				Delta:         delta,
			})
		}
	}

	return &ReconcileResult{
		Balanced:      len(mismatches) == 0,
		CheckedLines:  len(lines),
		MismatchCount: len(mismatches),
		Mismatches:    mismatches,
	}, nil
}
