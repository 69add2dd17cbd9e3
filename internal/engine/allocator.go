package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ExpiredUseMotive is the fixed motive text operators must register when
// an allocation draws from expired lots.
const ExpiredUseMotive = "Uso de lote vencido"

// Lot is a candidate batch offered to the allocator. Lots are immutable
// inputs; the allocator only computes how much to draw from each.
type Lot struct {
	LotID        string  `json:"lotId"`
	ItemID       string  `json:"itemId"`
	LocationID   string  `json:"locationId"`
	ExpiresAt    string  `json:"expiresAt"`
	AvailableQty float64 `json:"availableQty"`
}

// AllocationRequest asks for a quantity of an item at a location to be
// covered from a candidate lot set, oldest expiry first.
type AllocationRequest struct {
	CompanyID    string  `json:"companyId"`
	ItemID       string  `json:"itemId"`
	LocationID   string  `json:"locationId"`
	RequestedQty float64 `json:"requestedQty"`
	Lots         []Lot   `json:"lots"`
	AllowExpired bool    `json:"allowExpired"`
	Reason       string  `json:"reason"`
}

// Allocation is a single draw against a lot.
type Allocation struct {
	LotID     string  `json:"lotId"`
	Qty       float64 `json:"qty"`
	ExpiresAt string  `json:"expiresAt"`
	IsExpired bool    `json:"isExpired"`
}

// AllocationResult is the outcome of a FIFO allocation. Partial
// fulfillment is not an error: MissingQty > 0 and the caller decides.
type AllocationResult struct {
	Allocations  []Allocation `json:"allocations"`
	FulfilledQty float64      `json:"fulfilledQty"`
	MissingQty   float64      `json:"missingQty"`
	UsedExpired  bool         `json:"usedExpired"`
	Warnings     []string     `json:"warnings"`
}

// Allocator assigns stock to requests under a first-expired-first-out
// policy. It holds no state beyond its clock and is safe for concurrent
// use.
type Allocator struct {
	clock  Clock
	logger *zap.Logger
}

// NewAllocator creates an allocator using the given clock for expiry
// classification.
func NewAllocator(clock Clock, logger *zap.Logger) *Allocator {
	return &Allocator{
		clock:  clock,
		logger: logger,
	}
}

// ParseExpiry parses the first 10 characters of a date string as
// YYYY-MM-DD. Anything past the date portion is ignored.
func ParseExpiry(value string) (time.Time, error) {
	candidate := value
	if len(candidate) >= 10 {
		candidate = candidate[:10]
	}

	date, err := time.Parse("2006-01-02", candidate)
	if err != nil {
		return time.Time{}, fmt.Errorf("Invalid date format: %s", value)
	}
	return date, nil
}

type candidateLot struct {
	lot     Lot
	expiry  time.Time
	expired bool
}

// Allocate selects lots to satisfy the requested quantity. Non-expired
// lots are consumed first, ascending by expiry with ties broken by lot
// id. Expired lots participate only with explicit confirmation and a
// registered reason.
func (a *Allocator) Allocate(req AllocationRequest) (*AllocationResult, error) {
	if req.RequestedQty <= 0 {
		return nil, errors.New("Requested quantity must be greater than zero")
	}

	today := a.clock.Today()

	var nonExpired, expired []candidateLot
	for _, lot := range req.Lots {
		if lot.ItemID != req.ItemID || lot.LocationID != req.LocationID || lot.AvailableQty <= 0 {
			continue
		}

		expDate, err := ParseExpiry(lot.ExpiresAt)
		if err != nil {
			return nil, err
		}

		if expDate.Before(today) {
			expired = append(expired, candidateLot{lot: lot, expiry: expDate, expired: true})
		} else {
			nonExpired = append(nonExpired, candidateLot{lot: lot, expiry: expDate})
		}
	}

	sortByExpiry(nonExpired)
	sortByExpiry(expired)

	if len(nonExpired) == 0 && len(expired) == 0 {
		return nil, errors.New("No stock available for FIFO allocation in selected location")
	}

	warnings := make([]string, 0)
	var pool []candidateLot

	if len(nonExpired) == 0 {
		if !req.AllowExpired {
			return nil, fmt.Errorf("All available stock is expired. Enable allow_expired and register motive '%s'", ExpiredUseMotive)
		}
		if strings.TrimSpace(req.Reason) == "" {
			return nil, errors.New("Reason is required when using expired lots")
		}

		warnings = append(warnings, "Todos los lotes disponibles se encuentran vencidos")
		pool = expired
	} else {
		pool = nonExpired

		var freshTotal float64
		for _, c := range pool {
			freshTotal += c.lot.AvailableQty
		}

		if freshTotal < req.RequestedQty {
			if len(expired) == 0 {
				return nil, errors.New("Insufficient non-expired stock for requested quantity")
			}
			if !req.AllowExpired {
				return nil, fmt.Errorf("Expired lots are required to complete FIFO allocation. Confirmation is required with motive '%s'", ExpiredUseMotive)
			}
			if strings.TrimSpace(req.Reason) == "" {
				return nil, errors.New("Reason is required when using expired lots")
			}

			warnings = append(warnings, "Se utilizaron lotes vencidos para completar la salida")
			pool = append(pool, expired...)
		}
	}

	remaining := req.RequestedQty
	allocations := make([]Allocation, 0, len(pool))

	for _, c := range pool {
		if remaining <= 0 {
			break
		}

		take := remaining
		if c.lot.AvailableQty < take {
			take = c.lot.AvailableQty
		}
		if take <= 0 {
			continue
		}

		allocations = append(allocations, Allocation{
			LotID:     c.lot.LotID,
			Qty:       take,
			ExpiresAt: c.lot.ExpiresAt,
			IsExpired: c.expired,
		})
		remaining -= take
	}

	// The loop cannot drive remaining below zero, but the floor guard
	// keeps fulfilled/missing well-formed regardless.
	if remaining < 0 {
		remaining = 0
	}

	usedExpired := false
	for _, line := range allocations {
		if line.IsExpired {
			usedExpired = true
			break
		}
	}

	result := &AllocationResult{
		Allocations:  allocations,
		FulfilledQty: req.RequestedQty - remaining,
		MissingQty:   remaining,
		UsedExpired:  usedExpired,
		Warnings:     warnings,
	}

	if a.logger != nil {
		a.logger.Debug("FIFO allocation computed",
			zap.String("item_id", req.ItemID),
			zap.String("location_id", req.LocationID),
			zap.Float64("requested_qty", req.RequestedQty),
			zap.Float64("fulfilled_qty", result.FulfilledQty),
			zap.Float64("missing_qty", result.MissingQty),
			zap.Bool("used_expired", result.UsedExpired))
	}

	return result, nil
}

// sortByExpiry orders candidates ascending by expiry date, ties broken
// by lot id so allocation order is deterministic.
func sortByExpiry(candidates []candidateLot) {
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].expiry.Equal(candidates[j].expiry) {
			return candidates[i].expiry.Before(candidates[j].expiry)
		}
		return candidates[i].lot.LotID < candidates[j].lot.LotID
	})
}
