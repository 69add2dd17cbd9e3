package models

import (
	"time"

	"github.com/bodegacl/bodega-core/internal/engine"
)

// WorkOrderStatus is the lifecycle state of a work order.
type WorkOrderStatus string

const (
	WorkOrderOpen       WorkOrderStatus = "OPEN"
	WorkOrderInProgress WorkOrderStatus = "IN_PROGRESS"
	WorkOrderDone       WorkOrderStatus = "DONE"
	WorkOrderCancelled  WorkOrderStatus = "CANCELLED"
)

// MovementLine is one stock delta inside a movement.
type MovementLine struct {
	LocationID string  `json:"locationId"`
	ItemID     string  `json:"itemId"`
	LotID      *string `json:"lotId"`
	DeltaQty   float64 `json:"deltaQty"`
}

// Movement is a kardex entry: a typed, role-attributed change of stock
// with its approval trail.
type Movement struct {
	ID              string                `json:"id"`
	CompanyID       string                `json:"companyId"`
	Type            engine.MovementType   `json:"movementType"`
	Status          engine.MovementStatus `json:"status"`
	Reason          *string               `json:"reason"`
	Notes           *string               `json:"notes"`
	RequestedByRole engine.Role           `json:"requestedByRole"`
	RequestedBy     string                `json:"requestedBy"`
	ApprovedByRole  *engine.Role          `json:"approvedByRole,omitempty"`
	ApprovedBy      *string               `json:"approvedBy,omitempty"`
	WorkOrderID     *string               `json:"workOrderId,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	Lines           []MovementLine        `json:"lines"`
}

// WorkOrder is a production order that OUT_OT movements consume against.
type WorkOrder struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"companyId"`
	Code        string          `json:"code"`
	Responsible string          `json:"responsible"`
	CostCenter  string          `json:"costCenter"`
	Status      WorkOrderStatus `json:"status"`
	Notes       *string         `json:"notes"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Open reports whether the work order still accepts consumption.
func (w WorkOrder) Open() bool {
	return w.Status == WorkOrderOpen || w.Status == WorkOrderInProgress
}
