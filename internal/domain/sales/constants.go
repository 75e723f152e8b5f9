package sales

const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusInvoiced  = "invoiced"
	StatusCancelled = "cancelled"

	VehicleTruck   = "truck"
	VehicleTractor = "tractor"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusDelivered, StatusInvoiced, StatusCancelled:
		return true
	}
	return false
}

func ValidVehicleType(vehicleType string) bool {
	return vehicleType == VehicleTruck || vehicleType == VehicleTractor
}

// transitions is the order lifecycle. Cancelled and invoiced are terminal;
// delivery is the only path to invoicing.
var transitions = map[string][]string{
	StatusPending:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusInvoiced},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
