package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bellgas/pkg/requestcontext"
)

// PostgresTRL keeps revoked jtis in token_revocations. Rows outlive their
// expiry until DeleteExpired runs, so lookups compare against the request
// time rather than trusting row presence.
type PostgresTRL struct {
	db *sql.DB
}

func NewPostgresTRL(db *sql.DB) *PostgresTRL {
	return &PostgresTRL{db: db}
}

// RevokeToken records jti until now+ttl. Revoking again never shortens an
// existing entry.
func (t *PostgresTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO token_revocations (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE
			SET expires_at = GREATEST(token_revocations.expires_at, EXCLUDED.expires_at)
	`, jti, requestcontext.Now(ctx).Add(ttl))
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (t *PostgresTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var revoked bool
	err := t.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM token_revocations WHERE jti = $1 AND expires_at > $2
		)
	`, jti, requestcontext.Now(ctx)).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return revoked, nil
}

// DeleteExpired removes lapsed entries and reports how many were removed.
func (t *PostgresTRL) DeleteExpired(ctx context.Context) (int, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM token_revocations WHERE expires_at <= $1`, requestcontext.Now(ctx))
	if err != nil {
		return 0, fmt.Errorf("delete expired revocations: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
