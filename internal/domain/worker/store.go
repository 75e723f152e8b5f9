package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) ListWorkers(ctx context.Context, includeInactive bool) ([]Worker, error) {
	query := `
    SELECT id, name, type, daily_wage, piece_rate,
           COALESCE(phone, ''), COALESCE(address, ''), join_date, is_active, balance
    FROM workers
  `
	if !includeInactive {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var w Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Type, &w.DailyWage, &w.PieceRate, &w.Phone, &w.Address, &w.JoinDate, &w.IsActive, &w.Balance); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}

func (s *Store) GetWorker(ctx context.Context, id string) (Worker, error) {
	var w Worker
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, type, daily_wage, piece_rate,
           COALESCE(phone, ''), COALESCE(address, ''), join_date, is_active, balance
    FROM workers
    WHERE id = $1
  `, id).Scan(&w.ID, &w.Name, &w.Type, &w.DailyWage, &w.PieceRate, &w.Phone, &w.Address, &w.JoinDate, &w.IsActive, &w.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return Worker{}, ErrNotFound
	}
	if err != nil {
		return Worker{}, err
	}
	return w, nil
}

func (s *Store) CreateWorker(ctx context.Context, w Worker) (Worker, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO workers (name, type, daily_wage, piece_rate, phone, address, join_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id, is_active, balance
  `, w.Name, w.Type, w.DailyWage, w.PieceRate, nullIfEmpty(w.Phone), nullIfEmpty(w.Address), w.JoinDate).Scan(&w.ID, &w.IsActive, &w.Balance)
	if err != nil {
		return Worker{}, err
	}
	return w, nil
}

// UpdateWorker writes the editable profile fields. Balance is deliberately
// excluded; only settlements, advances, and the admin resets touch it.
func (s *Store) UpdateWorker(ctx context.Context, w Worker) (Worker, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE workers
    SET name = $1, type = $2, daily_wage = $3, piece_rate = $4,
        phone = $5, address = $6, join_date = $7, is_active = $8
    WHERE id = $9
  `, w.Name, w.Type, w.DailyWage, w.PieceRate, nullIfEmpty(w.Phone), nullIfEmpty(w.Address), w.JoinDate, w.IsActive, w.ID)
	if err != nil {
		return Worker{}, err
	}
	if tag.RowsAffected() == 0 {
		return Worker{}, ErrNotFound
	}
	return s.GetWorker(ctx, w.ID)
}

// DeactivateWorker is a soft delete; payment history must survive.
func (s *Store) DeactivateWorker(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE workers SET is_active = false WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertAttendance records or corrects one worker's attendance for one day.
// The (worker_id, date) unique constraint makes repeated marks overwrite.
func (s *Store) UpsertAttendance(ctx context.Context, a Attendance) (Attendance, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance (worker_id, date, is_present, bricks_produced, notes)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (worker_id, date)
    DO UPDATE SET is_present = EXCLUDED.is_present,
                  bricks_produced = EXCLUDED.bricks_produced,
                  notes = EXCLUDED.notes
    RETURNING id, created_at
  `, a.WorkerID, a.Date, a.IsPresent, a.BricksProduced, nullIfEmpty(a.Notes)).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return Attendance{}, err
	}
	return a, nil
}

func (s *Store) ListAttendanceByDate(ctx context.Context, date time.Time) ([]Attendance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, worker_id, date, is_present, bricks_produced, COALESCE(notes, ''), created_at
    FROM attendance
    WHERE date = $1
    ORDER BY created_at
  `, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendance(rows)
}

func (s *Store) ListWorkerAttendance(ctx context.Context, workerID string, start, end time.Time) ([]Attendance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, worker_id, date, is_present, bricks_produced, COALESCE(notes, ''), created_at
    FROM attendance
    WHERE worker_id = $1 AND date >= $2 AND date <= $3
    ORDER BY date
  `, workerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttendance(rows)
}

func scanAttendance(rows pgx.Rows) ([]Attendance, error) {
	var records []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.WorkerID, &a.Date, &a.IsPresent, &a.BricksProduced, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
