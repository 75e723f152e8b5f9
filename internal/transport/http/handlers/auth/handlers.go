package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bhatta/internal/domain/auth"
	"bhatta/internal/transport/http/api"
	"bhatta/internal/transport/http/middleware"
)

type Handler struct {
	Store     *auth.Store
	JWTSecret string
	TokenTTL  time.Duration
}

func NewHandler(db *pgxpool.Pool, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{Store: auth.NewStore(db), JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email and password are required", middleware.GetRequestID(r.Context()))
		return
	}

	user, err := h.Store.FindUserByEmail(r.Context(), payload.Email)
	if errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{UserID: user.ID, Email: user.Email}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", middleware.GetRequestID(r.Context()))
		return
	}
	_ = h.Store.UpdateLastLogin(r.Context(), user.ID)

	api.Success(w, map[string]string{"token": token, "email": user.Email}, middleware.GetRequestID(r.Context()))
}
