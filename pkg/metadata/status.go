package metadata

import "fmt"

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

func NewDeliveryStatus(value string) (DeliveryStatus, error) {
	status := DeliveryStatus(value)
	if !status.isValid() {
		return "", fmt.Errorf("invalid delivery status: %s", value)
	}
	return status, nil
}

func (s DeliveryStatus) isValid() bool {
	switch s {
	case DeliveryPending, DeliveryDelivered, DeliveryCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a delivery may move from s to next.
// delivered and cancelled are terminal.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if s != DeliveryPending {
		return false
	}
	return next == DeliveryDelivered || next == DeliveryCancelled
}

type SignoutStatus string

const (
	SignoutCheckedOut SignoutStatus = "checked_out"
	SignoutReturned   SignoutStatus = "returned"
	SignoutDamaged    SignoutStatus = "damaged"
	SignoutMissing    SignoutStatus = "missing"
)

func NewSignoutStatus(value string) (SignoutStatus, error) {
	status := SignoutStatus(value)
	switch status {
	case SignoutCheckedOut, SignoutReturned, SignoutDamaged, SignoutMissing:
		return status, nil
	default:
		return "", fmt.Errorf("invalid signout status: %s", value)
	}
}

// IsReturn reports whether the status closes a signout.
func (s SignoutStatus) IsReturn() bool {
	return s == SignoutReturned || s == SignoutDamaged || s == SignoutMissing
}

type IssuanceReason string

const (
	ReasonProduction  IssuanceReason = "production"
	ReasonMaintenance IssuanceReason = "maintenance"
	ReasonReplacement IssuanceReason = "replacement"
	ReasonTesting     IssuanceReason = "testing"
	ReasonOther       IssuanceReason = "other"
)

func NewIssuanceReason(value string) (IssuanceReason, error) {
	reason := IssuanceReason(value)
	switch reason {
	case ReasonProduction, ReasonMaintenance, ReasonReplacement, ReasonTesting, ReasonOther:
		return reason, nil
	default:
		return "", fmt.Errorf("invalid issuance reason: %s", value)
	}
}
