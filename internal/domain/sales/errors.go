package sales

import "errors"

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrOrderNotFound     = errors.New("sales order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)
