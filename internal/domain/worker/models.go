package worker

import (
	"time"

	"github.com/shopspring/decimal"
)

type Worker struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Type      string              `json:"type"`
	DailyWage decimal.NullDecimal `json:"dailyWage"`
	PieceRate decimal.NullDecimal `json:"pieceRate"`
	Phone     string              `json:"phone,omitempty"`
	Address   string              `json:"address,omitempty"`
	JoinDate  time.Time           `json:"joinDate"`
	IsActive  bool                `json:"isActive"`
	Balance   decimal.Decimal     `json:"balance"`
}

type Attendance struct {
	ID             string    `json:"id"`
	WorkerID       string    `json:"workerId"`
	Date           time.Time `json:"date"`
	IsPresent      bool      `json:"isPresent"`
	BricksProduced int       `json:"bricksProduced"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// WeeklySummary is the per-worker rollup shown before settlement.
type WeeklySummary struct {
	WorkerID       string          `json:"workerId"`
	WorkerName     string          `json:"workerName"`
	WorkerType     string          `json:"workerType"`
	DaysWorked     int             `json:"daysWorked"`
	BricksProduced int             `json:"bricksProduced"`
	GrossAmount    decimal.Decimal `json:"grossAmount"`
}
