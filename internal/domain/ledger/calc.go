package ledger

import (
	"github.com/shopspring/decimal"

	"bhatta/internal/domain/worker"
)

// ComputeGross derives the gross wages owed for a run of attendance records.
// Rojdaar workers earn dailyWage per day present; karagir workers earn
// pieceRate per brick produced on present days. Absent days contribute
// nothing either way. The result is rounded to 2 decimal places half-up,
// which is the precision every stored amount carries.
func ComputeGross(w worker.Worker, attendance []worker.Attendance) (gross decimal.Decimal, daysWorked, bricksProduced int) {
	for _, record := range attendance {
		if !record.IsPresent {
			continue
		}
		daysWorked++
		bricksProduced += record.BricksProduced
	}

	switch w.Type {
	case worker.TypeRojdaar:
		gross = w.DailyWage.Decimal.Mul(decimal.NewFromInt(int64(daysWorked)))
	case worker.TypeKaragir:
		gross = w.PieceRate.Decimal.Mul(decimal.NewFromInt(int64(bricksProduced)))
	}
	return gross.Round(2), daysWorked, bricksProduced
}

// ComputeSettlement nets a worker's gross wages for a period against cash
// already paid out and outstanding advances.
//
// advanceApply, when non-nil, is the exact amount of outstanding advance the
// operator wants consumed; when nil the calculator consumes just enough to
// cover the unpaid gross, bounded by what is available. An explicit request
// beyond the available total is rejected rather than clamped, so a caller
// working from a stale advance list finds out instead of silently
// under-adjusting.
//
// advances must be ordered ascending by issue date; consumption is FIFO.
// The function is pure: adjustments are returned, not applied.
func ComputeSettlement(w worker.Worker, attendance []worker.Attendance, paidAmount decimal.Decimal, advanceApply *decimal.Decimal, advances []AdvancePayment) (Settlement, error) {
	if paidAmount.IsNegative() {
		return Settlement{}, ErrNegativeAmount
	}
	if advanceApply != nil && advanceApply.IsNegative() {
		return Settlement{}, ErrNegativeAmount
	}

	gross, daysWorked, bricksProduced := ComputeGross(w, attendance)
	if paidAmount.GreaterThan(gross) {
		return Settlement{}, ErrPaidExceedsGross
	}

	unpaid := gross.Sub(paidAmount)
	if unpaid.IsNegative() {
		unpaid = decimal.Zero
	}

	available := decimal.Zero
	for _, advance := range advances {
		available = available.Add(advance.Remaining())
	}

	var toConsume decimal.Decimal
	if advanceApply != nil {
		if advanceApply.GreaterThan(available) {
			return Settlement{}, ErrAdvanceExceedsAvailable
		}
		toConsume = *advanceApply
	} else {
		toConsume = unpaid
		if toConsume.GreaterThan(available) {
			toConsume = available
		}
	}

	settlement := Settlement{
		GrossAmount:    gross,
		PaidAmount:     paidAmount.Round(2),
		UnpaidAmount:   unpaid,
		DaysWorked:     daysWorked,
		BricksProduced: bricksProduced,
	}

	remaining := toConsume
	for _, advance := range advances {
		if !remaining.IsPositive() {
			break
		}
		claimable := advance.Remaining()
		if !claimable.IsPositive() {
			continue
		}
		consumed := decimal.Min(claimable, remaining)
		settlement.Adjustments = append(settlement.Adjustments, AdvanceAdjustment{
			AdvanceID: advance.ID,
			Consumed:  consumed,
		})
		remaining = remaining.Sub(consumed)
	}

	settlement.ConsumedAmount = toConsume.Sub(remaining)
	settlement.BalanceAmount = unpaid.Sub(settlement.ConsumedAmount).Round(2)
	return settlement, nil
}
