package noteshandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bhatta/internal/domain/notes"
	"bhatta/internal/transport/http/api"
	"bhatta/internal/transport/http/middleware"
	"bhatta/internal/transport/http/shared"
)

type Handler struct {
	Store *notes.Store
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{Store: notes.NewStore(db)}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Delete("/{noteID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p := shared.ParsePagination(r, 20, 100)
	list, err := h.Store.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notes_list_failed", "failed to list notes", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

type notePayload struct {
	Body string `json:"body"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload notePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.Body) == "" {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{
			{Field: "body", Reason: "is required"},
		})
		return
	}

	created, err := h.Store.Create(r.Context(), strings.TrimSpace(payload.Body))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "note_create_failed", "failed to create note", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.Store.Delete(r.Context(), chi.URLParam(r, "noteID"))
	if errors.Is(err, notes.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "note not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "note_delete_failed", "failed to delete note", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}
