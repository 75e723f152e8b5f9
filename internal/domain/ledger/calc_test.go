package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bhatta/internal/domain/worker"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func nullDec(value string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(value), Valid: true}
}

func rojdaar(wage string) worker.Worker {
	return worker.Worker{ID: "w1", Name: "Ramesh", Type: worker.TypeRojdaar, DailyWage: nullDec(wage), IsActive: true}
}

func karagir(rate string) worker.Worker {
	return worker.Worker{ID: "w2", Name: "Suresh", Type: worker.TypeKaragir, PieceRate: nullDec(rate), IsActive: true}
}

func day(offset int, present bool, bricks int) worker.Attendance {
	return worker.Attendance{
		WorkerID:       "w1",
		Date:           time.Date(2025, 6, 2+offset, 0, 0, 0, 0, time.UTC),
		IsPresent:      present,
		BricksProduced: bricks,
	}
}

func TestComputeGrossRojdaar(t *testing.T) {
	attendance := []worker.Attendance{
		day(0, true, 0),
		day(1, true, 0),
		day(2, false, 0),
		day(3, true, 0),
	}
	gross, days, bricks := ComputeGross(rojdaar("450.50"), attendance)
	if days != 3 {
		t.Fatalf("days worked = %d, want 3", days)
	}
	if bricks != 0 {
		t.Fatalf("bricks = %d, want 0", bricks)
	}
	if !gross.Equal(dec("1351.50")) {
		t.Fatalf("gross = %s, want 1351.50", gross)
	}
}

func TestComputeGrossKaragir(t *testing.T) {
	attendance := []worker.Attendance{
		day(0, true, 500),
		day(1, true, 620),
		day(2, false, 0),
	}
	gross, days, bricks := ComputeGross(karagir("1.25"), attendance)
	if days != 2 {
		t.Fatalf("days worked = %d, want 2", days)
	}
	if bricks != 1120 {
		t.Fatalf("bricks = %d, want 1120", bricks)
	}
	if !gross.Equal(dec("1400")) {
		t.Fatalf("gross = %s, want 1400", gross)
	}
}

func TestComputeGrossNoAttendance(t *testing.T) {
	gross, days, bricks := ComputeGross(rojdaar("450"), nil)
	if days != 0 || bricks != 0 {
		t.Fatalf("days = %d, bricks = %d, want 0, 0", days, bricks)
	}
	if !gross.IsZero() {
		t.Fatalf("gross = %s, want 0", gross)
	}
}

func TestComputeGrossMissingWageRate(t *testing.T) {
	w := worker.Worker{ID: "w3", Type: worker.TypeRojdaar}
	gross, _, _ := ComputeGross(w, []worker.Attendance{day(0, true, 0)})
	if !gross.IsZero() {
		t.Fatalf("gross with unset wage = %s, want 0", gross)
	}
}

func advance(id, amount, adjusted string, issuedOffset int) AdvancePayment {
	return AdvancePayment{
		ID:             id,
		WorkerID:       "w1",
		Amount:         dec(amount),
		AdjustedAmount: dec(adjusted),
		IssuedAt:       time.Date(2025, 5, 1+issuedOffset, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputeSettlementFIFOConsumption(t *testing.T) {
	// Gross 2700, paid 1000 leaves 1700 unpaid; advances of 800 and 1500
	// (oldest first) should be consumed 800 then 900.
	attendance := []worker.Attendance{
		day(0, true, 0), day(1, true, 0), day(2, true, 0),
		day(3, true, 0), day(4, true, 0), day(5, true, 0),
	}
	advances := []AdvancePayment{
		advance("a1", "800", "0", 0),
		advance("a2", "1500", "0", 1),
	}

	s, err := ComputeSettlement(rojdaar("450"), attendance, dec("1000"), nil, advances)
	if err != nil {
		t.Fatalf("ComputeSettlement: %v", err)
	}
	if !s.GrossAmount.Equal(dec("2700")) {
		t.Fatalf("gross = %s, want 2700", s.GrossAmount)
	}
	if !s.UnpaidAmount.Equal(dec("1700")) {
		t.Fatalf("unpaid = %s, want 1700", s.UnpaidAmount)
	}
	if !s.ConsumedAmount.Equal(dec("1700")) {
		t.Fatalf("consumed = %s, want 1700", s.ConsumedAmount)
	}
	if !s.BalanceAmount.IsZero() {
		t.Fatalf("balance = %s, want 0", s.BalanceAmount)
	}
	if len(s.Adjustments) != 2 {
		t.Fatalf("adjustments = %d, want 2", len(s.Adjustments))
	}
	if s.Adjustments[0].AdvanceID != "a1" || !s.Adjustments[0].Consumed.Equal(dec("800")) {
		t.Fatalf("first adjustment = %+v, want a1 consumed 800", s.Adjustments[0])
	}
	if s.Adjustments[1].AdvanceID != "a2" || !s.Adjustments[1].Consumed.Equal(dec("900")) {
		t.Fatalf("second adjustment = %+v, want a2 consumed 900", s.Adjustments[1])
	}
}

func TestComputeSettlementSkipsExhaustedAdvances(t *testing.T) {
	attendance := []worker.Attendance{day(0, true, 0), day(1, true, 0)}
	advances := []AdvancePayment{
		advance("a1", "500", "500", 0), // fully consumed already
		advance("a2", "400", "100", 1),
	}

	s, err := ComputeSettlement(rojdaar("450"), attendance, decimal.Zero, nil, advances)
	if err != nil {
		t.Fatalf("ComputeSettlement: %v", err)
	}
	if len(s.Adjustments) != 1 {
		t.Fatalf("adjustments = %d, want 1", len(s.Adjustments))
	}
	if s.Adjustments[0].AdvanceID != "a2" || !s.Adjustments[0].Consumed.Equal(dec("300")) {
		t.Fatalf("adjustment = %+v, want a2 consumed 300", s.Adjustments[0])
	}
	// Gross 900, consumed 300, balance 600 still owed to worker.
	if !s.BalanceAmount.Equal(dec("600")) {
		t.Fatalf("balance = %s, want 600", s.BalanceAmount)
	}
}

func TestComputeSettlementExplicitAdvanceApply(t *testing.T) {
	attendance := []worker.Attendance{day(0, true, 0)}
	advances := []AdvancePayment{advance("a1", "1000", "0", 0)}

	apply := dec("700")
	s, err := ComputeSettlement(rojdaar("450"), attendance, decimal.Zero, &apply, advances)
	if err != nil {
		t.Fatalf("ComputeSettlement: %v", err)
	}
	if !s.ConsumedAmount.Equal(dec("700")) {
		t.Fatalf("consumed = %s, want 700", s.ConsumedAmount)
	}
	// Consuming more advance than the week's unpaid gross drives the
	// balance negative: the worker still owes.
	if !s.BalanceAmount.Equal(dec("-250")) {
		t.Fatalf("balance = %s, want -250", s.BalanceAmount)
	}
}

func TestComputeSettlementRejectsOverApply(t *testing.T) {
	attendance := []worker.Attendance{day(0, true, 0)}
	advances := []AdvancePayment{advance("a1", "300", "100", 0)}

	apply := dec("201")
	_, err := ComputeSettlement(rojdaar("450"), attendance, decimal.Zero, &apply, advances)
	if !errors.Is(err, ErrAdvanceExceedsAvailable) {
		t.Fatalf("err = %v, want ErrAdvanceExceedsAvailable", err)
	}
}

func TestComputeSettlementRejectsPaidOverGross(t *testing.T) {
	attendance := []worker.Attendance{day(0, true, 0)}
	_, err := ComputeSettlement(rojdaar("450"), attendance, dec("450.01"), nil, nil)
	if !errors.Is(err, ErrPaidExceedsGross) {
		t.Fatalf("err = %v, want ErrPaidExceedsGross", err)
	}
}

func TestComputeSettlementRejectsNegativeAmounts(t *testing.T) {
	attendance := []worker.Attendance{day(0, true, 0)}
	if _, err := ComputeSettlement(rojdaar("450"), attendance, dec("-1"), nil, nil); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("negative paid: err = %v, want ErrNegativeAmount", err)
	}
	apply := dec("-5")
	if _, err := ComputeSettlement(rojdaar("450"), attendance, decimal.Zero, &apply, nil); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("negative apply: err = %v, want ErrNegativeAmount", err)
	}
}

func TestComputeSettlementDefaultConsumptionCapped(t *testing.T) {
	// Unpaid 900 but only 200 of advance outstanding: consume 200, owe 700.
	attendance := []worker.Attendance{day(0, true, 0), day(1, true, 0)}
	advances := []AdvancePayment{advance("a1", "200", "0", 0)}

	s, err := ComputeSettlement(rojdaar("450"), attendance, decimal.Zero, nil, advances)
	if err != nil {
		t.Fatalf("ComputeSettlement: %v", err)
	}
	if !s.ConsumedAmount.Equal(dec("200")) {
		t.Fatalf("consumed = %s, want 200", s.ConsumedAmount)
	}
	if !s.BalanceAmount.Equal(dec("700")) {
		t.Fatalf("balance = %s, want 700", s.BalanceAmount)
	}
}

func TestComputeSettlementRounding(t *testing.T) {
	// 3 days at 333.335 = 1000.005, stored as 1000.01.
	attendance := []worker.Attendance{day(0, true, 0), day(1, true, 0), day(2, true, 0)}
	s, err := ComputeSettlement(rojdaar("333.335"), attendance, decimal.Zero, nil, nil)
	if err != nil {
		t.Fatalf("ComputeSettlement: %v", err)
	}
	if !s.GrossAmount.Equal(dec("1000.01")) {
		t.Fatalf("gross = %s, want 1000.01", s.GrossAmount)
	}
}
