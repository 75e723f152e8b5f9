package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the immutable audit record of one weekly settlement.
type Payment struct {
	ID             string          `json:"id"`
	WorkerID       string          `json:"workerId"`
	WeekStart      time.Time       `json:"weekStartDate"`
	WeekEnd        time.Time       `json:"weekEndDate"`
	DaysWorked     int             `json:"daysWorked"`
	BricksProduced int             `json:"bricksProduced"`
	GrossAmount    decimal.Decimal `json:"grossAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	BalanceAmount  decimal.Decimal `json:"balanceAmount"`
	PaymentDate    time.Time       `json:"paymentDate"`
	Notes          string          `json:"notes,omitempty"`
}

// AdvancePayment is cash handed out ahead of settlement. AdjustedAmount
// tracks how much later settlements have consumed; it never exceeds Amount.
type AdvancePayment struct {
	ID             string          `json:"id"`
	WorkerID       string          `json:"workerId"`
	Amount         decimal.Decimal `json:"amount"`
	AdjustedAmount decimal.Decimal `json:"adjustedAmount"`
	Reason         string          `json:"reason,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	IssuedAt       time.Time       `json:"issuedAt"`
}

// Remaining is the portion of the advance still claimable by settlements.
func (a AdvancePayment) Remaining() decimal.Decimal {
	return a.Amount.Sub(a.AdjustedAmount)
}

// AdvanceAdjustment records how much one settlement consumed from one advance.
type AdvanceAdjustment struct {
	AdvanceID string
	Consumed  decimal.Decimal
}

// Settlement is the outcome of the pure calculation, before persistence.
type Settlement struct {
	GrossAmount    decimal.Decimal
	PaidAmount     decimal.Decimal
	UnpaidAmount   decimal.Decimal
	ConsumedAmount decimal.Decimal
	BalanceAmount  decimal.Decimal
	DaysWorked     int
	BricksProduced int
	Adjustments    []AdvanceAdjustment
}

// SettleRequest carries the operator's settlement parameters into the store.
type SettleRequest struct {
	WorkerID  string
	WeekStart time.Time
	WeekEnd   time.Time
	Notes     string
}
