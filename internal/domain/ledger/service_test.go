package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bhatta/internal/domain/worker"
)

func newTestService(t *testing.T) (*Service, *MemStore, worker.Worker) {
	t.Helper()
	store := NewMemStore()
	w := store.AddWorker(rojdaar("450"))
	return NewService(store), store, w
}

func weekOf(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 6)
}

func TestSettleWeekAppliesAllEffects(t *testing.T) {
	svc, store, w := newTestService(t)
	ctx := context.Background()
	start, end := weekOf(t)

	for i := 0; i < 5; i++ {
		store.AddAttendance(worker.Attendance{WorkerID: w.ID, Date: start.AddDate(0, 0, i), IsPresent: true})
	}
	if _, err := svc.IssueAdvance(ctx, w.ID, dec("600"), "festival", ""); err != nil {
		t.Fatalf("IssueAdvance: %v", err)
	}

	got, _ := store.GetWorker(ctx, w.ID)
	if !got.Balance.Equal(dec("-600")) {
		t.Fatalf("balance after advance = %s, want -600", got.Balance)
	}

	// Gross 2250, paid 1000, unpaid 1250, advance 600 fully consumed.
	payment, err := svc.SettleWeek(ctx, SettleParams{
		WorkerID:   w.ID,
		WeekStart:  start,
		WeekEnd:    end,
		PaidAmount: dec("1000"),
	})
	if err != nil {
		t.Fatalf("SettleWeek: %v", err)
	}
	if payment.DaysWorked != 5 {
		t.Fatalf("days worked = %d, want 5", payment.DaysWorked)
	}
	if !payment.GrossAmount.Equal(dec("2250")) {
		t.Fatalf("gross = %s, want 2250", payment.GrossAmount)
	}
	if !payment.BalanceAmount.Equal(dec("650")) {
		t.Fatalf("payment balance = %s, want 650", payment.BalanceAmount)
	}

	got, _ = store.GetWorker(ctx, w.ID)
	if !got.Balance.Equal(dec("50")) {
		t.Fatalf("worker balance = %s, want 50", got.Balance)
	}

	advances, err := svc.ListAdvances(ctx, w.ID)
	if err != nil {
		t.Fatalf("ListAdvances: %v", err)
	}
	if len(advances) != 1 {
		t.Fatalf("advances = %d, want 1", len(advances))
	}
	if !advances[0].AdjustedAmount.Equal(advances[0].Amount) {
		t.Fatalf("advance not fully consumed: adjusted %s of %s", advances[0].AdjustedAmount, advances[0].Amount)
	}

	payments, err := svc.ListPayments(ctx, w.ID)
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(payments))
	}
}

// Balance conservation: after any interleaving of advances and settlements,
// a worker's balance equals total settled balances minus total advances.
func TestBalanceConservation(t *testing.T) {
	svc, store, w := newTestService(t)
	ctx := context.Background()
	start, end := weekOf(t)

	for i := 0; i < 6; i++ {
		store.AddAttendance(worker.Attendance{WorkerID: w.ID, Date: start.AddDate(0, 0, i), IsPresent: i%2 == 0})
	}

	if _, err := svc.IssueAdvance(ctx, w.ID, dec("500"), "", ""); err != nil {
		t.Fatalf("IssueAdvance: %v", err)
	}
	if _, err := svc.IssueAdvance(ctx, w.ID, dec("300"), "", ""); err != nil {
		t.Fatalf("IssueAdvance: %v", err)
	}
	if _, err := svc.SettleWeek(ctx, SettleParams{WorkerID: w.ID, WeekStart: start, WeekEnd: end, PaidAmount: dec("200")}); err != nil {
		t.Fatalf("SettleWeek: %v", err)
	}

	payments, _ := svc.ListPayments(ctx, "")
	advances, _ := svc.ListAdvances(ctx, "")

	expected := decimal.Zero
	for _, p := range payments {
		expected = expected.Add(p.BalanceAmount)
	}
	for _, a := range advances {
		expected = expected.Sub(a.Amount)
	}

	got, _ := store.GetWorker(ctx, w.ID)
	if !got.Balance.Equal(expected) {
		t.Fatalf("balance = %s, want %s (sum of settlements minus advances)", got.Balance, expected)
	}
}

// Re-marking a day must overwrite the earlier record, so gross is computed
// from one record per day no matter how many times the operator corrects it.
func TestRepeatedAttendanceMarksDoNotInflateGross(t *testing.T) {
	svc, store, w := newTestService(t)
	ctx := context.Background()
	start, end := weekOf(t)

	store.AddAttendance(worker.Attendance{WorkerID: w.ID, Date: start, IsPresent: true})
	store.AddAttendance(worker.Attendance{WorkerID: w.ID, Date: start, IsPresent: true})
	store.AddAttendance(worker.Attendance{WorkerID: w.ID, Date: start, IsPresent: true})

	payment, err := svc.SettleWeek(ctx, SettleParams{WorkerID: w.ID, WeekStart: start, WeekEnd: end})
	if err != nil {
		t.Fatalf("SettleWeek: %v", err)
	}
	if payment.DaysWorked != 1 {
		t.Fatalf("days worked = %d, want 1", payment.DaysWorked)
	}
	if !payment.GrossAmount.Equal(dec("450")) {
		t.Fatalf("gross = %s, want 450", payment.GrossAmount)
	}
}

func TestSettleWeekRejectsInvalidRange(t *testing.T) {
	svc, _, w := newTestService(t)
	start, end := weekOf(t)
	_, err := svc.SettleWeek(context.Background(), SettleParams{WorkerID: w.ID, WeekStart: end, WeekEnd: start})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("err = %v, want ErrInvalidDateRange", err)
	}
}

func TestSettleWeekUnknownWorker(t *testing.T) {
	svc, _, _ := newTestService(t)
	start, end := weekOf(t)
	_, err := svc.SettleWeek(context.Background(), SettleParams{WorkerID: "nope", WeekStart: start, WeekEnd: end})
	if !errors.Is(err, ErrWorkerNotFound) {
		t.Fatalf("err = %v, want ErrWorkerNotFound", err)
	}
}

func TestIssueAdvanceRejectsNonPositive(t *testing.T) {
	svc, _, w := newTestService(t)
	if _, err := svc.IssueAdvance(context.Background(), w.ID, decimal.Zero, "", ""); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("zero amount: err = %v, want ErrNegativeAmount", err)
	}
	if _, err := svc.IssueAdvance(context.Background(), w.ID, dec("-10"), "", ""); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("negative amount: err = %v, want ErrNegativeAmount", err)
	}
}

// Rejected settlements must leave no trace: no payment row, no advance
// adjustment, no balance movement.
func TestFailedSettlementHasNoEffects(t *testing.T) {
	svc, store, w := newTestService(t)
	ctx := context.Background()
	start, end := weekOf(t)

	store.AddAttendance(worker.Attendance{WorkerID: w.ID, Date: start, IsPresent: true})
	if _, err := svc.IssueAdvance(ctx, w.ID, dec("100"), "", ""); err != nil {
		t.Fatalf("IssueAdvance: %v", err)
	}
	before, _ := store.GetWorker(ctx, w.ID)

	apply := dec("101")
	_, err := svc.SettleWeek(ctx, SettleParams{WorkerID: w.ID, WeekStart: start, WeekEnd: end, AdvanceApply: &apply})
	if !errors.Is(err, ErrAdvanceExceedsAvailable) {
		t.Fatalf("err = %v, want ErrAdvanceExceedsAvailable", err)
	}

	payments, _ := svc.ListPayments(ctx, w.ID)
	if len(payments) != 0 {
		t.Fatalf("payments after failed settle = %d, want 0", len(payments))
	}
	advances, _ := svc.ListAdvances(ctx, w.ID)
	if !advances[0].AdjustedAmount.IsZero() {
		t.Fatalf("advance adjusted after failed settle: %s", advances[0].AdjustedAmount)
	}
	after, _ := store.GetWorker(ctx, w.ID)
	if !after.Balance.Equal(before.Balance) {
		t.Fatalf("balance moved on failed settle: %s -> %s", before.Balance, after.Balance)
	}
}

func TestConcurrentSettlementsSerialize(t *testing.T) {
	svc, store, w := newTestService(t)
	ctx := context.Background()
	start, end := weekOf(t)

	store.AddAttendance(worker.Attendance{WorkerID: w.ID, Date: start, IsPresent: true})
	if _, err := svc.IssueAdvance(ctx, w.ID, dec("450"), "", ""); err != nil {
		t.Fatalf("IssueAdvance: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.SettleWeek(ctx, SettleParams{WorkerID: w.ID, WeekStart: start, WeekEnd: end})
		}()
	}
	wg.Wait()

	// However the settlements interleave, the advance can never be consumed
	// past its amount.
	advances, _ := svc.ListAdvances(ctx, w.ID)
	if advances[0].AdjustedAmount.GreaterThan(advances[0].Amount) {
		t.Fatalf("advance over-consumed: adjusted %s of %s", advances[0].AdjustedAmount, advances[0].Amount)
	}
}

func TestClearAdvances(t *testing.T) {
	svc, store, w := newTestService(t)
	ctx := context.Background()
	if _, err := svc.IssueAdvance(ctx, w.ID, dec("250"), "", ""); err != nil {
		t.Fatalf("IssueAdvance: %v", err)
	}

	if err := svc.ClearAdvances(ctx); err != nil {
		t.Fatalf("ClearAdvances: %v", err)
	}
	advances, _ := svc.ListAdvances(ctx, "")
	if len(advances) != 0 {
		t.Fatalf("advances after clear = %d, want 0", len(advances))
	}
	got, _ := store.GetWorker(ctx, w.ID)
	if !got.Balance.IsZero() {
		t.Fatalf("balance after clear = %s, want 0", got.Balance)
	}
}

func TestZeroOutAdvancesKeepsHistory(t *testing.T) {
	svc, store, w := newTestService(t)
	ctx := context.Background()
	if _, err := svc.IssueAdvance(ctx, w.ID, dec("250"), "", ""); err != nil {
		t.Fatalf("IssueAdvance: %v", err)
	}

	if err := svc.ZeroOutAdvances(ctx); err != nil {
		t.Fatalf("ZeroOutAdvances: %v", err)
	}
	advances, _ := svc.ListAdvances(ctx, "")
	if len(advances) != 1 {
		t.Fatalf("advances after zero-out = %d, want 1", len(advances))
	}
	if !advances[0].AdjustedAmount.Equal(advances[0].Amount) {
		t.Fatalf("advance not marked consumed: adjusted %s of %s", advances[0].AdjustedAmount, advances[0].Amount)
	}
	got, _ := store.GetWorker(ctx, w.ID)
	if !got.Balance.IsZero() {
		t.Fatalf("balance after zero-out = %s, want 0", got.Balance)
	}
}
