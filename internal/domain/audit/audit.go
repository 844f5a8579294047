package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"mindwell/internal/requestctx"
)

type Event struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	RequestID string          `json:"requestId"`
	CreatedAt any             `json:"createdAt"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record stores an activity event. It is best-effort: failures are logged and
// swallowed so audit logging can never block or alter the calling workflow.
func (s *Service) Record(ctx context.Context, userID, name string, payload map[string]any) {
	var payloadJSON []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			slog.Warn("activity payload marshal failed", "event", name, "err", err)
			encoded = []byte("{}")
		}
		payloadJSON = encoded
	}

	if _, err := s.DB.Exec(ctx, `
    INSERT INTO activity_events (user_id, name, payload_json, request_id)
    VALUES ($1, $2, $3, $4)
  `, userID, name, payloadJSON, requestctx.GetRequestID(ctx)); err != nil {
		slog.Warn("activity record failed", "event", name, "userId", userID, "err", err)
	}
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Event, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM activity_events WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, name, request_id, created_at, payload_json
    FROM activity_events
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.UserID, &evt.Name, &evt.RequestID, &evt.CreatedAt, &evt.Payload); err != nil {
			return nil, 0, err
		}
		out = append(out, evt)
	}
	return out, total, nil
}

// Purge removes every activity event a user owns. Used by account hard delete.
func (s *Service) Purge(ctx context.Context, userID string) error {
	if _, err := s.DB.Exec(ctx, "DELETE FROM activity_events WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("purge activity events: %w", err)
	}
	return nil
}
