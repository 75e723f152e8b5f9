package reportshandler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bhatta/internal/domain/reports"
	"bhatta/internal/transport/http/api"
	"bhatta/internal/transport/http/middleware"
	"bhatta/internal/transport/http/shared"
)

type Handler struct {
	Reports *reports.Service
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Reports: reports.NewService(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/payments/register.pdf", h.handlePaymentRegister)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.Reports.Dashboard(r.Context(), time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, dashboard, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePaymentRegister(w http.ResponseWriter, r *http.Request) {
	v := shared.NewValidator()
	weekStart, _ := v.Date("weekStart", r.URL.Query().Get("weekStart"))
	weekEnd, _ := v.Date("weekEnd", r.URL.Query().Get("weekEnd"))
	v.DateOrder("weekStart", weekStart, "weekEnd", weekEnd)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	var buf bytes.Buffer
	if err := h.Reports.PaymentRegisterPDF(r.Context(), shared.DateOnly(weekStart), shared.DateOnly(weekEnd), &buf); err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_export_failed", "failed to export payment register", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="payment-register.pdf"`)
	_, _ = w.Write(buf.Bytes())
}
