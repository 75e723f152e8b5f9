package inventoryhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bhatta/internal/domain/audit"
	"bhatta/internal/domain/inventory"
	"bhatta/internal/transport/http/api"
	"bhatta/internal/transport/http/middleware"
	"bhatta/internal/transport/http/shared"
)

type Handler struct {
	Store *inventory.Store
	Audit *audit.Recorder
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Store: inventory.NewStore(db), Audit: audit.NewRecorder(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleUpdate)
		r.Get("/movements", h.handleListMovements)
		r.Post("/movements", h.handleCreateMovement)
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Store.Get(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "inventory_get_failed", "failed to load inventory", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

type inventoryPayload struct {
	KhangerStock *int `json:"khangerStock"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload inventoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.KhangerStock == nil || *payload.KhangerStock < 0 {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{
			{Field: "khangerStock", Reason: "must be a non-negative integer"},
		})
		return
	}

	inv, err := h.Store.SetKhangerStock(r.Context(), *payload.KhangerStock)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "inventory_update_failed", "failed to update inventory", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, inv, middleware.GetRequestID(r.Context()))
}

type movementPayload struct {
	Type        string `json:"type"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
	ReferenceID string `json:"referenceId"`
}

func (h *Handler) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var payload movementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "is required")
	if payload.Type != "" && !inventory.ValidMovementType(payload.Type) {
		v.Add("type", "must be one of production, sale, adjustment, damage")
	}
	if payload.Quantity == 0 {
		v.Add("quantity", "must not be zero")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	movement, err := h.Store.ApplyMovement(r.Context(), inventory.Movement{
		Type:        payload.Type,
		Quantity:    payload.Quantity,
		Reason:      payload.Reason,
		ReferenceID: payload.ReferenceID,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "movement_create_failed", "failed to record movement", middleware.GetRequestID(r.Context()))
		return
	}

	user, _ := middleware.GetUser(r.Context())
	h.Audit.Record(r.Context(), user.UserID, "inventory.movement.create", "inventory_movement", movement.ID, nil, movement)
	api.Created(w, movement, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMovements(w http.ResponseWriter, r *http.Request) {
	p := shared.ParsePagination(r, 50, 500)
	movements, err := h.Store.ListMovements(r.Context(), p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "movements_list_failed", "failed to list movements", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, movements, middleware.GetRequestID(r.Context()))
}
