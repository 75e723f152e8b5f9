package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bhatta/internal/domain/audit"
	"bhatta/internal/domain/ledger"
	"bhatta/internal/domain/worker"
	"bhatta/internal/transport/http/api"
	"bhatta/internal/transport/http/middleware"
	"bhatta/internal/transport/http/shared"
)

type Handler struct {
	Ledger  *ledger.Service
	Workers *worker.Store
	Audit   *audit.Recorder
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{
		Ledger:  ledger.NewService(ledger.NewPGStore(db)),
		Workers: worker.NewStore(db),
		Audit:   audit.NewRecorder(db),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/weekly", h.handleWeeklyPreview)
		r.Post("/settlements", h.handleSettle)
		r.Get("/payments", h.handleListPayments)
		r.Post("/advances", h.handleIssueAdvance)
		r.Get("/advances", h.handleListAdvances)
		r.Post("/admin/clear-advances", h.handleClearAdvances)
		r.Post("/admin/zero-out-advances", h.handleZeroOutAdvances)
	})
}

func (h *Handler) handleWeeklyPreview(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", r.URL.Query().Get("weekStart"))
	weekEnd, _ := v.Date("weekEnd", r.URL.Query().Get("weekEnd"))
	v.DateOrder("weekStart", weekStart, "weekEnd", weekEnd)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	workers, err := h.Workers.ListWorkers(r.Context(), false)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_weekly_failed", "failed to compute weekly summary", middleware.GetRequestID(r.Context()))
		return
	}

	rows := make([]worker.WeeklySummary, 0, len(workers))
	for _, wk := range workers {
		attendance, err := h.Workers.ListWorkerAttendance(r.Context(), wk.ID, shared.DateOnly(weekStart), shared.DateOnly(weekEnd))
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "payroll_weekly_failed", "failed to compute weekly summary", middleware.GetRequestID(r.Context()))
			return
		}
		gross, daysWorked, bricksProduced := ledger.ComputeGross(wk, attendance)
		rows = append(rows, worker.WeeklySummary{
			WorkerID:       wk.ID,
			WorkerName:     wk.Name,
			WorkerType:     wk.Type,
			DaysWorked:     daysWorked,
			BricksProduced: bricksProduced,
			GrossAmount:    gross,
		})
	}
	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

type settlementPayload struct {
	WorkerID           string `json:"workerId"`
	WeekStart          string `json:"weekStart"`
	WeekEnd            string `json:"weekEnd"`
	PaidAmount         string `json:"paidAmount"`
	AdvanceApplyAmount string `json:"advanceApplyAmount"`
	Notes              string `json:"notes"`
}

func (h *Handler) handleSettle(w http.ResponseWriter, r *http.Request) {
	var payload settlementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("workerId", payload.WorkerID, "is required")
	weekStart, _ := v.Date("weekStart", payload.WeekStart)
	weekEnd, _ := v.Date("weekEnd", payload.WeekEnd)
	v.DateOrder("weekStart", weekStart, "weekEnd", weekEnd)
	paidAmount, _ := v.Amount("paidAmount", payload.PaidAmount)
	var advanceApply *decimal.Decimal
	if payload.AdvanceApplyAmount != "" {
		if amount, ok := v.Amount("advanceApplyAmount", payload.AdvanceApplyAmount); ok {
			advanceApply = &amount
		}
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	payment, err := h.Ledger.SettleWeek(r.Context(), ledger.SettleParams{
		WorkerID:     payload.WorkerID,
		WeekStart:    shared.DateOnly(weekStart),
		WeekEnd:      shared.DateOnly(weekEnd),
		PaidAmount:   paidAmount,
		AdvanceApply: advanceApply,
		Notes:        payload.Notes,
	})
	if err != nil {
		h.failSettlement(w, r, err)
		return
	}

	user, _ := middleware.GetUser(r.Context())
	h.Audit.Record(r.Context(), user.UserID, "payroll.settlement.create", "payment", payment.ID, nil, payment)
	api.Created(w, payment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failSettlement(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, ledger.ErrWorkerNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", requestID)
	case errors.Is(err, ledger.ErrInvalidDateRange),
		errors.Is(err, ledger.ErrNegativeAmount),
		errors.Is(err, ledger.ErrPaidExceedsGross),
		errors.Is(err, ledger.ErrAdvanceExceedsAvailable):
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "settlement_failed", "failed to record settlement", requestID)
	}
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Ledger.ListPayments(r.Context(), r.URL.Query().Get("workerId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payments_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, payments, middleware.GetRequestID(r.Context()))
}

type advancePayload struct {
	WorkerID string `json:"workerId"`
	Amount   string `json:"amount"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

func (h *Handler) handleIssueAdvance(w http.ResponseWriter, r *http.Request) {
	var payload advancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("workerId", payload.WorkerID, "is required")
	amount, ok := v.Amount("amount", payload.Amount)
	if ok && !amount.IsPositive() {
		v.Add("amount", "must be greater than zero")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	advance, err := h.Ledger.IssueAdvance(r.Context(), payload.WorkerID, amount, payload.Reason, payload.Notes)
	if errors.Is(err, ledger.ErrWorkerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", middleware.GetRequestID(r.Context()))
		return
	}
	if errors.Is(err, ledger.ErrNegativeAmount) {
		api.Fail(w, http.StatusBadRequest, "invalid_input", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "advance_create_failed", "failed to record advance", middleware.GetRequestID(r.Context()))
		return
	}

	user, _ := middleware.GetUser(r.Context())
	h.Audit.Record(r.Context(), user.UserID, "payroll.advance.create", "advance_payment", advance.ID, nil, advance)
	api.Created(w, advance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAdvances(w http.ResponseWriter, r *http.Request) {
	advances, err := h.Ledger.ListAdvances(r.Context(), r.URL.Query().Get("workerId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "advances_list_failed", "failed to list advances", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, advances, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleClearAdvances(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.ClearAdvances(r.Context()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "advances_clear_failed", "failed to clear advances", middleware.GetRequestID(r.Context()))
		return
	}
	user, _ := middleware.GetUser(r.Context())
	h.Audit.Record(r.Context(), user.UserID, "payroll.advances.clear", "advance_payment", "", nil, nil)
	api.Success(w, map[string]bool{"cleared": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleZeroOutAdvances(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.ZeroOutAdvances(r.Context()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "advances_zero_out_failed", "failed to zero out advances", middleware.GetRequestID(r.Context()))
		return
	}
	user, _ := middleware.GetUser(r.Context())
	h.Audit.Record(r.Context(), user.UserID, "payroll.advances.zero_out", "advance_payment", "", nil, nil)
	api.Success(w, map[string]bool{"zeroed": true}, middleware.GetRequestID(r.Context()))
}
