package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone,omitempty"`
	Address       string          `json:"address,omitempty"`
	RatePerBrick  decimal.Decimal `json:"ratePerBrick"`
	TotalOrders   int             `json:"totalOrders"`
	LastOrderDate *time.Time      `json:"lastOrderDate,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type SalesOrder struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"orderNumber"`
	CustomerID     string          `json:"customerId"`
	Quantity       int             `json:"quantity"`
	RatePerBrick   decimal.Decimal `json:"ratePerBrick"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	VehicleType    string          `json:"vehicleType"`
	VehicleNumber  string          `json:"vehicleNumber,omitempty"`
	DriverName     string          `json:"driverName,omitempty"`
	OwnFleet       bool            `json:"ownFleet"`
	DriverWorkerID string          `json:"driverWorkerId,omitempty"`
	Status         string          `json:"status"`
	OrderDate      time.Time       `json:"orderDate"`
	DeliveryDate   *time.Time      `json:"deliveryDate,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type Trip struct {
	ID            string          `json:"id"`
	DriverID      string          `json:"driverId"`
	TripDate      time.Time       `json:"tripDate"`
	VehicleType   string          `json:"vehicleType"`
	AmountPerTrip decimal.Decimal `json:"amountPerTrip"`
	SalesOrderID  string          `json:"salesOrderId,omitempty"`
	Participants  []string        `json:"participantIds,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
