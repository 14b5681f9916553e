package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blakestevenson/marquee/internal/auth/providers"
)

const uniqueViolation = "23505"

// Store persists accounts, provider credentials and refresh tokens
type Store interface {
	providers.CredentialStore

	// CreateUser inserts an active user; returns ErrUserExists if the email is taken
	CreateUser(ctx context.Context, name, email string) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CreateRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// GetRefreshToken returns ErrInvalidToken when no token has that hash
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// ConsumeRefreshToken revokes an unrevoked token and returns
	// ErrTokenRevoked when it was already revoked
	ConsumeRefreshToken(ctx context.Context, id int64) error
	RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) error
}

// PostgresStore implements Store on a pgx pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `id, name, email, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, name, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, is_active)
		VALUES ($1, $2, TRUE)
		RETURNING `+userColumns,
		name, email,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) CreateCredentials(ctx context.Context, userID int64, providerType string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_providers (user_id, provider_type, credentials)
		VALUES ($1, $2, $3)`,
		userID, providerType, data,
	)
	return err
}

func (s *PostgresStore) GetCredentials(ctx context.Context, userID int64, providerType string) (*providers.Credentials, error) {
	var c providers.Credentials
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, provider_type, credentials
		FROM auth_providers
		WHERE user_id = $1 AND provider_type = $2`,
		userID, providerType,
	).Scan(&c.ID, &c.UserID, &c.ProviderType, &c.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, providers.ErrProviderNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) UpdateCredentials(ctx context.Context, id int64, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE auth_providers SET credentials = $2, updated_at = NOW()
		WHERE id = $1`,
		id, data,
	)
	return err
}

func (s *PostgresStore) TouchCredentials(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE auth_providers SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) CreateRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt,
	)
	return err
}

func (s *PostgresStore) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	var t RefreshToken
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, expires_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`,
		tokenHash,
	).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) ConsumeRefreshToken(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW(), last_used_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenRevoked
	}
	return nil
}

func (s *PostgresStore) RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL`, tokenHash)
	return err
}
