package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bellgas/internal/audit"
	id "bellgas/pkg/domain"
)

// PostgresStore writes events to auth_audit_events.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO auth_audit_events
			(id, occurred_at, action, user_id, email, source, reason, device, client_ip, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var userID any
	if !event.UserID.IsNil() {
		userID = uuid.UUID(event.UserID)
	}
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.OccurredAt,
		event.Action.String(),
		userID,
		event.Email,
		event.Source,
		event.Reason,
		event.Device,
		event.ClientIP,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

const selectEvents = `
	SELECT id, occurred_at, action, user_id, email, source, reason, device, client_ip, request_id
	FROM auth_audit_events
`

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+` WHERE user_id = $1 ORDER BY occurred_at`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list audit events by user: %w", err)
	}
	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvents+` ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	defer rows.Close()
	var out []audit.Event
	for rows.Next() {
		var (
			e      audit.Event
			action string
			userID uuid.NullUUID
		)
		if err := rows.Scan(&e.ID, &e.OccurredAt, &action, &userID, &e.Email, &e.Source, &e.Reason, &e.Device, &e.ClientIP, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		if userID.Valid {
			e.UserID = id.UserID(userID.UUID)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
