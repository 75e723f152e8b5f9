package inventory

import "time"

// Inventory is the single stock row: finished bricks plus khanger (the
// broken-brick byproduct sold at a discount).
type Inventory struct {
	ID           string    `json:"id"`
	CurrentStock int       `json:"currentStock"`
	KhangerStock int       `json:"khangerStock"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Movement is one append-only stock change. Quantity is signed: production
// and upward adjustments positive, sales and damage negative.
type Movement struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	Reason       string    `json:"reason,omitempty"`
	ReferenceID  string    `json:"referenceId,omitempty"`
	MovementDate time.Time `json:"movementDate"`
}

const (
	MovementProduction = "production"
	MovementSale       = "sale"
	MovementAdjustment = "adjustment"
	MovementDamage     = "damage"
)

func ValidMovementType(movementType string) bool {
	switch movementType {
	case MovementProduction, MovementSale, MovementAdjustment, MovementDamage:
		return true
	}
	return false
}
