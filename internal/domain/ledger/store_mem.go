package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bhatta/internal/domain/worker"
)

// MemStore is the in-memory Store used by the service tests. Each worker has
// its own mutex so Settle and IssueAdvance get the same per-worker
// serialization the Postgres row lock provides.
type MemStore struct {
	mu         sync.Mutex
	workerLock map[string]*sync.Mutex
	workers    map[string]worker.Worker
	attendance map[string][]worker.Attendance
	payments   []Payment
	advances   map[string][]AdvancePayment
	nextID     int
}

func NewMemStore() *MemStore {
	return &MemStore{
		workerLock: make(map[string]*sync.Mutex),
		workers:    make(map[string]worker.Worker),
		attendance: make(map[string][]worker.Attendance),
		advances:   make(map[string][]AdvancePayment),
	}
}

// AddWorker seeds a worker, assigning an ID when none is set.
func (s *MemStore) AddWorker(w worker.Worker) worker.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = s.newID()
	}
	s.workers[w.ID] = w
	s.workerLock[w.ID] = &sync.Mutex{}
	return w
}

// AddAttendance seeds attendance records for a worker. A record for an
// already-marked day replaces the earlier one, mirroring the upsert the
// database enforces with its (worker_id, date) constraint.
func (s *MemStore) AddAttendance(records ...worker.Attendance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		if record.ID == "" {
			record.ID = s.newID()
		}
		existing := s.attendance[record.WorkerID]
		replaced := false
		for i := range existing {
			if existing[i].Date.Equal(record.Date) {
				record.ID = existing[i].ID
				existing[i] = record
				replaced = true
				break
			}
		}
		if !replaced {
			s.attendance[record.WorkerID] = append(existing, record)
		}
	}
}

func (s *MemStore) newID() string {
	s.nextID++
	return fmt.Sprintf("mem-%d", s.nextID)
}

func (s *MemStore) lockWorker(workerID string) (*sync.Mutex, error) {
	s.mu.Lock()
	lock, ok := s.workerLock[workerID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrWorkerNotFound
	}
	lock.Lock()
	return lock, nil
}

func (s *MemStore) GetWorker(ctx context.Context, workerID string) (worker.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return worker.Worker{}, ErrWorkerNotFound
	}
	return w, nil
}

func (s *MemStore) ListPayments(ctx context.Context, workerID string) ([]Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payments []Payment
	for _, p := range s.payments {
		if workerID == "" || p.WorkerID == workerID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].PaymentDate.After(payments[j].PaymentDate) })
	return payments, nil
}

func (s *MemStore) ListAdvances(ctx context.Context, workerID string) ([]AdvancePayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var advances []AdvancePayment
	for id, list := range s.advances {
		if workerID != "" && id != workerID {
			continue
		}
		advances = append(advances, list...)
	}
	sort.Slice(advances, func(i, j int) bool { return advances[i].IssuedAt.Before(advances[j].IssuedAt) })
	return advances, nil
}

func (s *MemStore) Settle(ctx context.Context, req SettleRequest, compute ComputeFunc) (Payment, error) {
	lock, err := s.lockWorker(req.WorkerID)
	if err != nil {
		return Payment{}, err
	}
	defer lock.Unlock()

	s.mu.Lock()
	w := s.workers[req.WorkerID]
	var attendance []worker.Attendance
	for _, record := range s.attendance[req.WorkerID] {
		if !record.Date.Before(req.WeekStart) && !record.Date.After(req.WeekEnd) {
			attendance = append(attendance, record)
		}
	}
	sort.Slice(attendance, func(i, j int) bool { return attendance[i].Date.Before(attendance[j].Date) })
	var outstanding []AdvancePayment
	for _, advance := range s.advances[req.WorkerID] {
		if advance.Remaining().IsPositive() {
			outstanding = append(outstanding, advance)
		}
	}
	sort.Slice(outstanding, func(i, j int) bool { return outstanding[i].IssuedAt.Before(outstanding[j].IssuedAt) })
	s.mu.Unlock()

	settlement, err := compute(w, attendance, outstanding)
	if err != nil {
		return Payment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, adjustment := range settlement.Adjustments {
		list := s.advances[req.WorkerID]
		for i := range list {
			if list[i].ID == adjustment.AdvanceID {
				list[i].AdjustedAmount = list[i].AdjustedAmount.Add(adjustment.Consumed)
			}
		}
	}
	payment := Payment{
		ID:             s.newID(),
		WorkerID:       req.WorkerID,
		WeekStart:      req.WeekStart,
		WeekEnd:        req.WeekEnd,
		DaysWorked:     settlement.DaysWorked,
		BricksProduced: settlement.BricksProduced,
		GrossAmount:    settlement.GrossAmount,
		PaidAmount:     settlement.PaidAmount,
		BalanceAmount:  settlement.BalanceAmount,
		PaymentDate:    time.Now(),
		Notes:          req.Notes,
	}
	s.payments = append(s.payments, payment)
	w = s.workers[req.WorkerID]
	w.Balance = w.Balance.Add(settlement.BalanceAmount)
	s.workers[req.WorkerID] = w
	return payment, nil
}

func (s *MemStore) IssueAdvance(ctx context.Context, advance AdvancePayment) (AdvancePayment, error) {
	lock, err := s.lockWorker(advance.WorkerID)
	if err != nil {
		return AdvancePayment{}, err
	}
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	advance.ID = s.newID()
	advance.AdjustedAmount = decimal.Zero
	if advance.IssuedAt.IsZero() {
		advance.IssuedAt = time.Now()
	}
	s.advances[advance.WorkerID] = append(s.advances[advance.WorkerID], advance)
	w := s.workers[advance.WorkerID]
	w.Balance = w.Balance.Sub(advance.Amount)
	s.workers[advance.WorkerID] = w
	return advance, nil
}

func (s *MemStore) ClearAdvances(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advances = make(map[string][]AdvancePayment)
	for id, w := range s.workers {
		w.Balance = decimal.Zero
		s.workers[id] = w
	}
	return nil
}

func (s *MemStore) ZeroOutAdvances(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.advances {
		for i := range list {
			list[i].AdjustedAmount = list[i].Amount
		}
	}
	for id, w := range s.workers {
		w.Balance = decimal.Zero
		s.workers[id] = w
	}
	return nil
}
