package engine

import (
	"errors"
	"strings"
)

// MovementType classifies a kardex movement.
type MovementType string

const (
	MovementInitial  MovementType = "INITIAL"
	MovementIn       MovementType = "IN"
	MovementOutOT    MovementType = "OUT_OT"
	MovementTransfer MovementType = "TRANSFER"
	MovementAdjust   MovementType = "ADJUST"
	MovementScrap    MovementType = "SCRAP"
)

// MovementStatus is the lifecycle state of a movement.
type MovementStatus string

const (
	StatusPending  MovementStatus = "PENDING"
	StatusApproved MovementStatus = "APPROVED"
	StatusRejected MovementStatus = "REJECTED"
)

// Role is a warehouse user role.
type Role string

const (
	RoleBodeguero  Role = "BODEGUERO"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Normalize trims surrounding whitespace and uppercases an enumeration
// value before comparison. The normalized form is what results echo back.
func Normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ParseMovementType normalizes and validates a movement type string.
func ParseMovementType(raw string) (MovementType, error) {
	switch t := MovementType(Normalize(raw)); t {
	case MovementInitial, MovementIn, MovementOutOT, MovementTransfer, MovementAdjust, MovementScrap:
		return t, nil
	default:
		return "", errors.New("Invalid movement_type")
	}
}

// ParseMovementStatus normalizes and validates a status string.
func ParseMovementStatus(raw string) (MovementStatus, error) {
	switch s := MovementStatus(Normalize(raw)); s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", errors.New("Invalid status")
	}
}

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	switch r := Role(Normalize(raw)); r {
	case RoleBodeguero, RoleSupervisor, RoleAdmin, RoleSuperAdmin:
		return r, nil
	default:
		return "", errors.New("Invalid role")
	}
}

// CanApprove reports whether the role may approve or reject pending
// movements.
func (r Role) CanApprove() bool {
	return r == RoleSupervisor || r == RoleAdmin || r == RoleSuperAdmin
}

// RequiresMotive reports whether the movement type demands a free-text
// motive.
func (t MovementType) RequiresMotive() bool {
	return t == MovementAdjust || t == MovementScrap
}

// MovementValidationInput is a proposed movement with its ancillary
// flags. Pointer fields are optional; a nil approver role is a distinct
// failure from an invalid one.
type MovementValidationInput struct {
	MovementType    string  `json:"movementType"`
	Status          string  `json:"status"`
	Motive          *string `json:"motive"`
	RequestedByRole string  `json:"requestedByRole"`
	ApproverRole    *string `json:"approverRole"`
	HasWorkOrder    *bool   `json:"hasWorkOrder"`
	CurrentStatus   *string `json:"currentStatus"`
	NewStatus       *string `json:"newStatus"`
}

// MovementValidationResult reports a legal movement. Valid is always
// true on success; illegality is returned as an error, never as a false
// flag.
type MovementValidationResult struct {
	Valid        bool           `json:"valid"`
	MovementType MovementType   `json:"movementType"`
	Status       MovementStatus `json:"status"`
	Warnings     []string       `json:"warnings"`
}

// ValidateMovement decides whether a proposed movement is legal. Checks
// run in a fixed order and the first failure wins; warnings are advisory
// and never block validity.
func ValidateMovement(input MovementValidationInput) (*MovementValidationResult, error) {
	movementType, err := ParseMovementType(input.MovementType)
	if err != nil {
		return nil, err
	}

	status, err := ParseMovementStatus(input.Status)
	if err != nil {
		return nil, err
	}

	if _, err := ParseRole(input.RequestedByRole); err != nil {
		return nil, errors.New("Invalid requested_by_role")
	}

	if movementType.RequiresMotive() && !hasText(input.Motive) {
		return nil, errors.New("Motive is required for ADJUST and SCRAP")
	}

	if movementType.RequiresMotive() && status != StatusPending {
		return nil, errors.New("ADJUST and SCRAP must start as PENDING")
	}

	if movementType == MovementOutOT && !(input.HasWorkOrder != nil && *input.HasWorkOrder) {
		return nil, errors.New("OUT_OT requires an associated work order")
	}

	warnings := make([]string, 0)

	if input.CurrentStatus != nil && input.NewStatus != nil {
		if MovementStatus(Normalize(*input.CurrentStatus)) != StatusPending {
			return nil, errors.New("Only PENDING movements can change status")
		}

		newStatus := MovementStatus(Normalize(*input.NewStatus))
		if newStatus != StatusApproved && newStatus != StatusRejected {
			return nil, errors.New("New status must be APPROVED or REJECTED")
		}

		if input.ApproverRole == nil {
			return nil, errors.New("Approver role is required for PENDING transitions")
		}

		approver := Role(Normalize(*input.ApproverRole))
		if !approver.CanApprove() {
			return nil, errors.New("Only Supervisor/Admin/SuperAdmin can approve or reject pending movements")
		}

		if approver == RoleSupervisor && movementType == MovementScrap {
			warnings = append(warnings, "Supervisor aprobando SCRAP: revisar politica interna de montos")
		}
	}

	return &MovementValidationResult{
		Valid:        true,
		MovementType: movementType,
		Status:       status,
		Warnings:     warnings,
	}, nil
}

func hasText(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}
