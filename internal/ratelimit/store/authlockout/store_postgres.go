package authlockout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bellgas/internal/ratelimit/models"
	"bellgas/pkg/requestcontext"
)

// PostgresStore persists auth lockout records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectLockout = `
	SELECT identifier, failure_count, locked_until, last_failure_at
	FROM auth_lockouts
`

func (s *PostgresStore) Get(ctx context.Context, identifier string) (*models.AuthLockout, error) {
	record, err := scanAuthLockout(s.db.QueryRowContext(ctx, selectLockout+` WHERE identifier = $1`, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get auth lockout: %w", err)
	}
	return record, nil
}

// RecordFailure increments in a single statement so concurrent failures
// cannot slip past the threshold.
func (s *PostgresStore) RecordFailure(ctx context.Context, identifier string, window time.Duration) (*models.AuthLockout, error) {
	now := requestcontext.Now(ctx)
	query := `
		INSERT INTO auth_lockouts (identifier, failure_count, locked_until, last_failure_at)
		VALUES ($1, 1, NULL, $2)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = CASE
				WHEN auth_lockouts.last_failure_at < $3 THEN 1
				ELSE auth_lockouts.failure_count + 1
			END,
			last_failure_at = $2
		RETURNING identifier, failure_count, locked_until, last_failure_at
	`
	record, err := scanAuthLockout(s.db.QueryRowContext(ctx, query, identifier, now, now.Add(-window)))
	if err != nil {
		return nil, fmt.Errorf("record auth failure: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Lock(ctx context.Context, identifier string, until time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE auth_lockouts SET locked_until = $2 WHERE identifier = $1`, identifier, until)
	if err != nil {
		return fmt.Errorf("lock auth identifier: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, identifier string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM auth_lockouts WHERE identifier = $1`, identifier)
	if err != nil {
		return fmt.Errorf("clear auth lockout: %w", err)
	}
	return nil
}

// DeleteExpired drops unlocked records idle for longer than a day.
func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM auth_lockouts
		WHERE (locked_until IS NULL OR locked_until <= $1)
		  AND last_failure_at < $2
	`, now, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("delete expired auth lockouts: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanAuthLockout(row *sql.Row) (*models.AuthLockout, error) {
	var (
		record      models.AuthLockout
		lockedUntil sql.NullTime
	)
	if err := row.Scan(&record.Identifier, &record.FailureCount, &lockedUntil, &record.LastFailureAt); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		record.LockedUntil = &t
	}
	return &record, nil
}
