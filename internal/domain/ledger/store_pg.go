package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bhatta/internal/domain/worker"
)

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{DB: pool}
}

func (s *PGStore) GetWorker(ctx context.Context, workerID string) (worker.Worker, error) {
	return s.getWorker(ctx, s.DB, workerID, false)
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PGStore) getWorker(ctx context.Context, q queryer, workerID string, forUpdate bool) (worker.Worker, error) {
	query := `
    SELECT id, name, type, daily_wage, piece_rate,
           COALESCE(phone, ''), COALESCE(address, ''), join_date, is_active, balance
    FROM workers
    WHERE id = $1
  `
	if forUpdate {
		query += " FOR UPDATE"
	}
	var w worker.Worker
	err := q.QueryRow(ctx, query, workerID).Scan(&w.ID, &w.Name, &w.Type, &w.DailyWage, &w.PieceRate, &w.Phone, &w.Address, &w.JoinDate, &w.IsActive, &w.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return worker.Worker{}, ErrWorkerNotFound
	}
	if err != nil {
		return worker.Worker{}, err
	}
	return w, nil
}

func (s *PGStore) ListPayments(ctx context.Context, workerID string) ([]Payment, error) {
	query := `
    SELECT id, worker_id, week_start_date, week_end_date,
           COALESCE(days_worked, 0), COALESCE(bricks_produced, 0),
           gross_amount, paid_amount, balance_amount, payment_date, COALESCE(notes, '')
    FROM payments
  `
	args := []any{}
	if workerID != "" {
		query += " WHERE worker_id = $1"
		args = append(args, workerID)
	}
	query += " ORDER BY payment_date DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.WorkerID, &p.WeekStart, &p.WeekEnd, &p.DaysWorked, &p.BricksProduced, &p.GrossAmount, &p.PaidAmount, &p.BalanceAmount, &p.PaymentDate, &p.Notes); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *PGStore) ListAdvances(ctx context.Context, workerID string) ([]AdvancePayment, error) {
	query := `
    SELECT id, worker_id, amount, adjusted_amount, COALESCE(reason, ''), COALESCE(notes, ''), payment_date
    FROM advance_payments
  `
	args := []any{}
	if workerID != "" {
		query += " WHERE worker_id = $1"
		args = append(args, workerID)
	}
	query += " ORDER BY payment_date"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advances []AdvancePayment
	for rows.Next() {
		var a AdvancePayment
		if err := rows.Scan(&a.ID, &a.WorkerID, &a.Amount, &a.AdjustedAmount, &a.Reason, &a.Notes, &a.IssuedAt); err != nil {
			return nil, err
		}
		advances = append(advances, a)
	}
	return advances, rows.Err()
}

// Settle wraps the whole settlement in one transaction. The FOR UPDATE read
// of the worker row serializes concurrent settlements for the same worker;
// the attendance and advance reads that follow see a consistent snapshot.
func (s *PGStore) Settle(ctx context.Context, req SettleRequest, compute ComputeFunc) (Payment, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Payment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	w, err := s.getWorker(ctx, tx, req.WorkerID, true)
	if err != nil {
		return Payment{}, err
	}

	attendance, err := listAttendanceTx(ctx, tx, req.WorkerID, req.WeekStart, req.WeekEnd)
	if err != nil {
		return Payment{}, err
	}

	advances, err := listOutstandingAdvancesTx(ctx, tx, req.WorkerID)
	if err != nil {
		return Payment{}, err
	}

	settlement, err := compute(w, attendance, advances)
	if err != nil {
		return Payment{}, err
	}

	for _, adjustment := range settlement.Adjustments {
		tag, err := tx.Exec(ctx, `
      UPDATE advance_payments
      SET adjusted_amount = adjusted_amount + $1
      WHERE id = $2 AND adjusted_amount + $1 <= amount
    `, adjustment.Consumed, adjustment.AdvanceID)
		if err != nil {
			return Payment{}, err
		}
		if tag.RowsAffected() == 0 {
			return Payment{}, ErrAdvanceExceedsAvailable
		}
	}

	payment := Payment{
		WorkerID:       req.WorkerID,
		WeekStart:      req.WeekStart,
		WeekEnd:        req.WeekEnd,
		DaysWorked:     settlement.DaysWorked,
		BricksProduced: settlement.BricksProduced,
		GrossAmount:    settlement.GrossAmount,
		PaidAmount:     settlement.PaidAmount,
		BalanceAmount:  settlement.BalanceAmount,
		Notes:          req.Notes,
	}
	err = tx.QueryRow(ctx, `
    INSERT INTO payments (worker_id, week_start_date, week_end_date, days_worked, bricks_produced,
                          gross_amount, paid_amount, balance_amount, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id, payment_date
  `, payment.WorkerID, payment.WeekStart, payment.WeekEnd, payment.DaysWorked, payment.BricksProduced,
		payment.GrossAmount, payment.PaidAmount, payment.BalanceAmount, nullIfEmpty(payment.Notes)).Scan(&payment.ID, &payment.PaymentDate)
	if err != nil {
		return Payment{}, err
	}

	if _, err := tx.Exec(ctx, "UPDATE workers SET balance = balance + $1 WHERE id = $2", payment.BalanceAmount, req.WorkerID); err != nil {
		return Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	return payment, nil
}

func (s *PGStore) IssueAdvance(ctx context.Context, advance AdvancePayment) (AdvancePayment, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return AdvancePayment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := s.getWorker(ctx, tx, advance.WorkerID, true); err != nil {
		return AdvancePayment{}, err
	}

	err = tx.QueryRow(ctx, `
    INSERT INTO advance_payments (worker_id, amount, adjusted_amount, reason, notes)
    VALUES ($1,$2,0,$3,$4)
    RETURNING id, adjusted_amount, payment_date
  `, advance.WorkerID, advance.Amount, nullIfEmpty(advance.Reason), nullIfEmpty(advance.Notes)).Scan(&advance.ID, &advance.AdjustedAmount, &advance.IssuedAt)
	if err != nil {
		return AdvancePayment{}, err
	}

	if _, err := tx.Exec(ctx, "UPDATE workers SET balance = balance - $1 WHERE id = $2", advance.Amount, advance.WorkerID); err != nil {
		return AdvancePayment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return AdvancePayment{}, err
	}
	return advance, nil
}

func (s *PGStore) ClearAdvances(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM advance_payments"); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE workers SET balance = 0"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) ZeroOutAdvances(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "UPDATE advance_payments SET adjusted_amount = amount"); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "UPDATE workers SET balance = 0"); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func listAttendanceTx(ctx context.Context, tx pgx.Tx, workerID string, start, end time.Time) ([]worker.Attendance, error) {
	rows, err := tx.Query(ctx, `
    SELECT id, worker_id, date, is_present, bricks_produced, COALESCE(notes, ''), created_at
    FROM attendance
    WHERE worker_id = $1 AND date >= $2 AND date <= $3
    ORDER BY date
  `, workerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []worker.Attendance
	for rows.Next() {
		var a worker.Attendance
		if err := rows.Scan(&a.ID, &a.WorkerID, &a.Date, &a.IsPresent, &a.BricksProduced, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

func listOutstandingAdvancesTx(ctx context.Context, tx pgx.Tx, workerID string) ([]AdvancePayment, error) {
	rows, err := tx.Query(ctx, `
    SELECT id, worker_id, amount, adjusted_amount, COALESCE(reason, ''), COALESCE(notes, ''), payment_date
    FROM advance_payments
    WHERE worker_id = $1 AND adjusted_amount < amount
    ORDER BY payment_date
  `, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advances []AdvancePayment
	for rows.Next() {
		var a AdvancePayment
		if err := rows.Scan(&a.ID, &a.WorkerID, &a.Amount, &a.AdjustedAmount, &a.Reason, &a.Notes, &a.IssuedAt); err != nil {
			return nil, err
		}
		advances = append(advances, a)
	}
	return advances, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
