package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bellgas/internal/auth/models"
	id "bellgas/pkg/domain"
	"bellgas/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectUser = `
	SELECT id, email, name, password_hash, role, is_active, created_at, updated_at
	FROM users
`

// Save inserts the user or updates the existing row with the same id.
func (s *PostgresStore) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role.String(),
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("email already registered: %w", sentinel.ErrInvalidState)
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE LOWER(email) = LOWER($1)`, normalizeEmail(email))
	return scanUser(row)
}

// ListAll returns every user ordered by email.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUser+` ORDER BY LOWER(email)`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u       models.User
		rawID   uuid.UUID
		rawRole string
	)
	err := row.Scan(&rawID, &u.Email, &u.Name, &u.PasswordHash, &rawRole, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	role, err := id.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("user %s has unknown role %q: %w", rawID, rawRole, err)
	}
	u.ID = id.UserID(rawID)
	u.Role = role
	return &u, nil
}
