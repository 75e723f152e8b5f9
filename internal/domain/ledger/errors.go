package ledger

import "errors"

var (
	ErrWorkerNotFound = errors.New("worker not found")

	// Validation failures; nothing is mutated when these are returned.
	ErrNegativeAmount          = errors.New("amount must not be negative")
	ErrPaidExceedsGross        = errors.New("paid amount exceeds gross wages for the period")
	ErrAdvanceExceedsAvailable = errors.New("advance adjustment exceeds outstanding advances")
	ErrInvalidDateRange        = errors.New("week end must not be before week start")
)
