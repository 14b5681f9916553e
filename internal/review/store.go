package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blakestevenson/marquee/internal/catalog"
)

const uniqueViolation = "23505"

// PostgresStore implements Store on a pgx pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed review store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const reviewColumns = `r.id, r.media_id, r.media_type, r.rating, r.comment, r.user_id, r.created_at, r.updated_at, u.name, u.email`

func scanReview(row pgx.Row) (*Review, error) {
	var (
		r         Review
		mediaType string
	)
	err := row.Scan(
		&r.ID, &r.MediaID, &mediaType, &r.Rating, &r.Comment, &r.UserID,
		&r.CreatedAt, &r.UpdatedAt, &r.User.Name, &r.User.Email,
	)
	if err != nil {
		return nil, err
	}
	r.MediaType = catalog.MediaType(mediaType)
	return &r, nil
}

func (s *PostgresStore) FindByKey(ctx context.Context, key Key) (*Review, error) {
	review, err := scanReview(s.pool.QueryRow(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.media_id = $1 AND r.media_type = $2 AND r.user_id = $3`,
		key.MediaID, string(key.MediaType), key.UserID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return review, nil
}

func (s *PostgresStore) Insert(ctx context.Context, in *Review) (*Review, error) {
	review, err := scanReview(s.pool.QueryRow(ctx, `
		WITH r AS (
			INSERT INTO reviews (id, media_id, media_type, rating, comment, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING *
		)
		SELECT `+reviewColumns+`
		FROM r
		JOIN users u ON u.id = r.user_id`,
		in.ID, in.MediaID, string(in.MediaType), in.Rating, in.Comment, in.UserID, in.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert review: %w", err)
	}
	return review, nil
}

func (s *PostgresStore) Update(ctx context.Context, id uuid.UUID, rating int, comment *string) (*Review, error) {
	review, err := scanReview(s.pool.QueryRow(ctx, `
		WITH r AS (
			UPDATE reviews
			SET rating = $2, comment = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+reviewColumns+`
		FROM r
		JOIN users u ON u.id = r.user_id`,
		id, rating, comment,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return review, nil
}

func (s *PostgresStore) ListByMedia(ctx context.Context, mediaID int, mediaType catalog.MediaType) ([]Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.media_id = $1 AND r.media_type = $2
		ORDER BY r.created_at DESC`,
		mediaID, string(mediaType),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}
