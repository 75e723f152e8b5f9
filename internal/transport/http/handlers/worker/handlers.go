package workerhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bhatta/internal/domain/worker"
	"bhatta/internal/transport/http/api"
	"bhatta/internal/transport/http/middleware"
	"bhatta/internal/transport/http/shared"
)

type Handler struct {
	Store *worker.Store
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Store: worker.NewStore(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workers", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{workerID}", h.handleGet)
		r.Put("/{workerID}", h.handleUpdate)
		r.Delete("/{workerID}", h.handleDeactivate)
		r.Get("/{workerID}/attendance", h.handleWorkerAttendance)
	})
	r.Get("/attendance", h.handleAttendanceByDate)
	r.Post("/attendance", h.handleMarkAttendance)
}

type workerPayload struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	DailyWage string `json:"dailyWage"`
	PieceRate string `json:"pieceRate"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	JoinDate  string `json:"joinDate"`
	IsActive  *bool  `json:"isActive"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true"
	workers, err := h.Store.ListWorkers(r.Context(), includeInactive)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "workers_list_failed", "failed to list workers", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, workers, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, err := h.Store.GetWorker(r.Context(), chi.URLParam(r, "workerID"))
	if errors.Is(err, worker.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_get_failed", "failed to load worker", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, found, middleware.GetRequestID(r.Context()))
}

func (h *Handler) validate(payload workerPayload) (worker.Worker, *shared.Validator) {
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("type", payload.Type, "is required")
	if payload.Type != "" && !worker.ValidType(payload.Type) {
		v.Add("type", "must be 'rojdaar' or 'karagir'")
	}

	out := worker.Worker{
		Name:    payload.Name,
		Type:    payload.Type,
		Phone:   payload.Phone,
		Address: payload.Address,
	}
	if payload.DailyWage != "" {
		if amount, ok := v.Amount("dailyWage", payload.DailyWage); ok {
			out.DailyWage = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
	}
	if payload.PieceRate != "" {
		if amount, ok := v.Amount("pieceRate", payload.PieceRate); ok {
			out.PieceRate = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
	}
	switch payload.Type {
	case worker.TypeRojdaar:
		if !out.DailyWage.Valid {
			v.Add("dailyWage", "is required for rojdaar workers")
		}
	case worker.TypeKaragir:
		if !out.PieceRate.Valid {
			v.Add("pieceRate", "is required for karagir workers")
		}
	}

	if payload.JoinDate == "" {
		out.JoinDate = shared.DateOnly(time.Now())
	} else if joinDate, ok := v.Date("joinDate", payload.JoinDate); ok {
		out.JoinDate = shared.DateOnly(joinDate)
	}
	return out, v
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload workerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	toCreate, v := h.validate(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	created, err := h.Store.CreateWorker(r.Context(), toCreate)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_create_failed", "failed to create worker", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload workerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	toUpdate, v := h.validate(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	toUpdate.ID = chi.URLParam(r, "workerID")
	toUpdate.IsActive = true
	if payload.IsActive != nil {
		toUpdate.IsActive = *payload.IsActive
	}

	updated, err := h.Store.UpdateWorker(r.Context(), toUpdate)
	if errors.Is(err, worker.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_update_failed", "failed to update worker", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	err := h.Store.DeactivateWorker(r.Context(), chi.URLParam(r, "workerID"))
	if errors.Is(err, worker.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "worker not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "worker_delete_failed", "failed to deactivate worker", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]bool{"deactivated": true}, middleware.GetRequestID(r.Context()))
}

type attendancePayload struct {
	WorkerID       string `json:"workerId"`
	Date           string `json:"date"`
	IsPresent      bool   `json:"isPresent"`
	BricksProduced int    `json:"bricksProduced"`
	Notes          string `json:"notes"`
}

func (h *Handler) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var payload attendancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("workerId", payload.WorkerID, "is required")
	date, _ := v.Date("date", payload.Date)
	if payload.BricksProduced < 0 {
		v.Add("bricksProduced", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	record, err := h.Store.UpsertAttendance(r.Context(), worker.Attendance{
		WorkerID:       payload.WorkerID,
		Date:           shared.DateOnly(date),
		IsPresent:      payload.IsPresent,
		BricksProduced: payload.BricksProduced,
		Notes:          payload.Notes,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_mark_failed", "failed to record attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAttendanceByDate(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	date, _ := v.Date("date", r.URL.Query().Get("date"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	records, err := h.Store.ListAttendanceByDate(r.Context(), shared.DateOnly(date))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleWorkerAttendance(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", r.URL.Query().Get("weekStart"))
	weekEnd, _ := v.Date("weekEnd", r.URL.Query().Get("weekEnd"))
	v.DateOrder("weekStart", weekStart, "weekEnd", weekEnd)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	records, err := h.Store.ListWorkerAttendance(r.Context(), chi.URLParam(r, "workerID"), shared.DateOnly(weekStart), shared.DateOnly(weekEnd))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_list_failed", "failed to list attendance", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}
