package ledger

import (
	"context"

	"bhatta/internal/domain/worker"
)

// ComputeFunc runs the pure settlement calculation against state the store
// loaded under its own lock, so concurrent settlements for one worker cannot
// interleave between read and write.
type ComputeFunc func(w worker.Worker, attendance []worker.Attendance, advances []AdvancePayment) (Settlement, error)

// Store is the unit of work behind the settlement service. The Postgres
// implementation wraps each mutating call in one transaction; the in-memory
// implementation backs the service tests. Either way, Settle and IssueAdvance
// apply all of their effects or none of them.
type Store interface {
	GetWorker(ctx context.Context, workerID string) (worker.Worker, error)
	ListPayments(ctx context.Context, workerID string) ([]Payment, error)
	ListAdvances(ctx context.Context, workerID string) ([]AdvancePayment, error)

	// Settle loads the worker, the period's attendance, and the outstanding
	// advances (ascending by issue date), runs compute, then atomically
	// records the payment, bumps each consumed advance's adjusted amount,
	// and adds the balance delta to the worker's balance.
	Settle(ctx context.Context, req SettleRequest, compute ComputeFunc) (Payment, error)

	// IssueAdvance records the advance and debits the worker's balance by
	// its amount in the same transaction.
	IssueAdvance(ctx context.Context, advance AdvancePayment) (AdvancePayment, error)

	// ClearAdvances deletes every advance and zeroes all balances.
	ClearAdvances(ctx context.Context) error
	// ZeroOutAdvances marks every advance fully consumed and zeroes all
	// balances, keeping the advance history.
	ZeroOutAdvances(ctx context.Context) error
}
