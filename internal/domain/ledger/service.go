package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bhatta/internal/domain/worker"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// SettleParams carries one weekly settlement request from the handler.
type SettleParams struct {
	WorkerID   string
	WeekStart  time.Time
	WeekEnd    time.Time
	PaidAmount decimal.Decimal
	// AdvanceApply, when non-nil, is the exact outstanding-advance amount to
	// consume. Nil lets the calculator consume up to the unpaid gross.
	AdvanceApply *decimal.Decimal
	Notes        string
}

// SettleWeek computes and atomically records a weekly settlement. The store
// runs the calculation under the worker's lock so the advances it adjusts are
// exactly the ones the calculation saw.
func (s *Service) SettleWeek(ctx context.Context, params SettleParams) (Payment, error) {
	if params.WeekEnd.Before(params.WeekStart) {
		return Payment{}, ErrInvalidDateRange
	}
	if params.PaidAmount.IsNegative() {
		return Payment{}, ErrNegativeAmount
	}
	if params.AdvanceApply != nil && params.AdvanceApply.IsNegative() {
		return Payment{}, ErrNegativeAmount
	}

	req := SettleRequest{
		WorkerID:  params.WorkerID,
		WeekStart: params.WeekStart,
		WeekEnd:   params.WeekEnd,
		Notes:     params.Notes,
	}
	return s.store.Settle(ctx, req, func(w worker.Worker, attendance []worker.Attendance, advances []AdvancePayment) (Settlement, error) {
		return ComputeSettlement(w, attendance, params.PaidAmount, params.AdvanceApply, advances)
	})
}

// IssueAdvance hands out cash ahead of settlement, debiting the worker's
// running balance.
func (s *Service) IssueAdvance(ctx context.Context, workerID string, amount decimal.Decimal, reason, notes string) (AdvancePayment, error) {
	if !amount.IsPositive() {
		return AdvancePayment{}, ErrNegativeAmount
	}
	return s.store.IssueAdvance(ctx, AdvancePayment{
		WorkerID: workerID,
		Amount:   amount.Round(2),
		Reason:   reason,
		Notes:    notes,
	})
}

func (s *Service) ListPayments(ctx context.Context, workerID string) ([]Payment, error) {
	return s.store.ListPayments(ctx, workerID)
}

func (s *Service) ListAdvances(ctx context.Context, workerID string) ([]AdvancePayment, error) {
	return s.store.ListAdvances(ctx, workerID)
}

// ClearAdvances wipes the advance ledger and zeroes every balance.
func (s *Service) ClearAdvances(ctx context.Context) error {
	return s.store.ClearAdvances(ctx)
}

// ZeroOutAdvances marks every advance fully consumed and zeroes every
// balance, keeping the history.
func (s *Service) ZeroOutAdvances(ctx context.Context) error {
	return s.store.ZeroOutAdvances(ctx)
}
