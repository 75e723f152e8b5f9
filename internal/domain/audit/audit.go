package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bhatta/internal/requestctx"
)

// Event is one append-only record of a financial or administrative action.
type Event struct {
	ID          string          `json:"id"`
	ActorUserID string          `json:"actorUserId,omitempty"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId,omitempty"`
	Before      json.RawMessage `json:"before,omitempty"`
	After       json.RawMessage `json:"after,omitempty"`
	RequestID   string          `json:"requestId,omitempty"`
	IP          string          `json:"ip,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type Recorder struct {
	DB *pgxpool.Pool
}

func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{DB: pool}
}

// Record appends an audit event. Failures are logged, never propagated: an
// audit hiccup must not fail the operation it describes.
func (r *Recorder) Record(ctx context.Context, actorUserID, action, entityType, entityID string, before, after any) {
	beforeJSON := marshal(before)
	afterJSON := marshal(after)

	_, err := r.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, nullIfEmpty(actorUserID), action, entityType, nullIfEmpty(entityID), beforeJSON, afterJSON,
		nullIfEmpty(requestctx.GetRequestID(ctx)), nullIfEmpty(requestctx.GetClientIP(ctx)))
	if err != nil {
		slog.Error("audit record failed", "action", action, "entityType", entityType, "error", err)
	}
}

func marshal(value any) any {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return data
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
