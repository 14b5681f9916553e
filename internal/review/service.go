// Package review stores user ratings for catalog titles, one per user and title.
package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/apperr"
	"github.com/blakestevenson/marquee/internal/auth"
	"github.com/blakestevenson/marquee/internal/catalog"
	"github.com/blakestevenson/marquee/internal/metrics"
	"github.com/blakestevenson/marquee/internal/validation"
)

// Store persists reviews
type Store interface {
	// FindByKey returns ErrNotFound when the user has not reviewed the title
	FindByKey(ctx context.Context, key Key) (*Review, error)
	// Insert returns ErrDuplicate when a review for the same key exists
	Insert(ctx context.Context, r *Review) (*Review, error)
	// Update replaces rating and comment, keeping id and createdAt
	Update(ctx context.Context, id uuid.UUID, rating int, comment *string) (*Review, error)
	// ListByMedia returns reviews for a title, newest first
	ListByMedia(ctx context.Context, mediaID int, mediaType catalog.MediaType) ([]Review, error)
}

// Service implements review submission and listing
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new review service
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Submit creates the caller's review for a title or updates the existing one.
// created reports whether a new review was stored.
func (s *Service) Submit(ctx context.Context, state auth.State, params SubmitParams) (review *Review, created bool, err error) {
	subject, ok := state.Subject()
	if !ok {
		return nil, false, apperr.ErrUnauthenticated
	}

	if err := validation.Struct(&params); err != nil {
		return nil, false, err
	}

	key := Key{
		MediaID:   params.MediaID,
		MediaType: catalog.MediaType(params.MediaType),
		UserID:    subject.UserID,
	}

	review, created, err = s.upsert(ctx, key, params)
	if errors.Is(err, ErrDuplicate) {
		// A concurrent submission inserted first; its row is now visible
		metrics.ReviewSubmissions.WithLabelValues("conflict_retry").Inc()
		s.logger.Info("review insert conflicted, retrying as update",
			zap.Int64("user_id", key.UserID),
			zap.Int("media_id", key.MediaID),
			zap.String("media_type", string(key.MediaType)),
		)
		review, created, err = s.upsert(ctx, key, params)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to save review: %w", err)
	}

	if created {
		metrics.ReviewSubmissions.WithLabelValues("created").Inc()
	} else {
		metrics.ReviewSubmissions.WithLabelValues("updated").Inc()
	}

	return review, created, nil
}

func (s *Service) upsert(ctx context.Context, key Key, params SubmitParams) (*Review, bool, error) {
	existing, err := s.store.FindByKey(ctx, key)
	switch {
	case err == nil:
		updated, err := s.store.Update(ctx, existing.ID, params.Rating, params.Comment)
		return updated, false, err
	case errors.Is(err, ErrNotFound):
		now := s.now()
		inserted, err := s.store.Insert(ctx, &Review{
			ID:        uuid.New(),
			MediaID:   key.MediaID,
			MediaType: key.MediaType,
			Rating:    params.Rating,
			Comment:   params.Comment,
			UserID:    key.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return inserted, true, err
	default:
		return nil, false, err
	}
}

// List returns the reviews for a title, newest first
func (s *Service) List(ctx context.Context, rawMediaID, rawType string) ([]Review, error) {
	mediaID, err := strconv.Atoi(strings.TrimSpace(rawMediaID))
	if err != nil || mediaID < 1 {
		return nil, apperr.Invalid("Invalid media ID")
	}

	mediaType, ok := catalog.ParseMediaType(rawType)
	if !ok {
		return nil, apperr.Invalid("Valid media type (movie or tv) is required")
	}

	reviews, err := s.store.ListByMedia(ctx, mediaID, mediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return reviews, nil
}
