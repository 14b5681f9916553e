// Package discovery validates browse, details and search requests, applies the
// category policy and relays catalog results.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/apperr"
	"github.com/blakestevenson/marquee/internal/auth"
	"github.com/blakestevenson/marquee/internal/authz"
	"github.com/blakestevenson/marquee/internal/catalog"
)

// Catalog is the upstream the service delegates to
type Catalog interface {
	FetchByCategory(ctx context.Context, mediaType catalog.MediaType, category catalog.Category, page int) (*catalog.PageResult, error)
	FetchDetails(ctx context.Context, mediaType catalog.MediaType, id int) (catalog.Media, error)
	FetchRelated(ctx context.Context, mediaType catalog.MediaType, id int) ([]catalog.Media, error)
	Search(ctx context.Context, mediaType catalog.MediaType, query string, page int) (*catalog.PageResult, error)
}

// Service handles discovery requests. Inputs are the raw request values so
// that parsing rules are shared by every transport.
type Service struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewService creates a new discovery service
func NewService(c Catalog, logger *zap.Logger) *Service {
	return &Service{
		catalog: c,
		logger:  logger,
	}
}

// ListCategory returns one page of a category for the given media type
func (s *Service) ListCategory(ctx context.Context, state auth.State, rawType, rawCategory, rawPage string) (*catalog.PageResult, error) {
	mediaType, ok := catalog.ParseMediaType(rawType)
	if !ok {
		return nil, apperr.Invalid("Invalid media type")
	}
	if rawCategory == "" {
		return nil, apperr.Invalid("Category is required")
	}

	category := catalog.Category(rawCategory)
	if !catalog.ValidCategory(mediaType, category) {
		if mediaType == catalog.MediaTypeTV {
			return nil, apperr.Invalid("Invalid TV category")
		}
		return nil, apperr.Invalid("Invalid movie category")
	}

	if authz.Authorize(category, state) == authz.Deny {
		return nil, apperr.ErrUnauthenticated
	}

	page := ParsePage(rawPage)
	result, err := s.catalog.FetchByCategory(ctx, mediaType, category, page)
	if err != nil {
		s.logUpstream(fmt.Sprintf("Error fetching %s %s", mediaType, category), err,
			zap.Int("page", page),
		)
		return nil, &FetchError{
			Message: fmt.Sprintf("Failed to fetch %s %s", mediaType, category),
			Err:     err,
		}
	}

	return result, nil
}

// Details returns the detail view of one title
func (s *Service) Details(ctx context.Context, mediaType catalog.MediaType, rawID string) (catalog.Media, error) {
	id, err := parseID(mediaType, rawID)
	if err != nil {
		return nil, err
	}

	media, err := s.catalog.FetchDetails(ctx, mediaType, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &FetchError{Message: titleCase(mediaType.Noun()) + " not found", Err: err}
		}
		s.logUpstream(fmt.Sprintf("Error fetching %s details", mediaType.Noun()), err, zap.Int("id", id))
		return nil, &FetchError{
			Message: fmt.Sprintf("Failed to fetch %s details", mediaType.Noun()),
			Err:     err,
		}
	}

	return media, nil
}

// Related returns up to catalog.RelatedLimit titles related to one title
func (s *Service) Related(ctx context.Context, mediaType catalog.MediaType, rawID string) ([]catalog.Media, error) {
	id, err := parseID(mediaType, rawID)
	if err != nil {
		return nil, err
	}

	related, err := s.catalog.FetchRelated(ctx, mediaType, id)
	if err != nil {
		label := "related movies"
		if mediaType == catalog.MediaTypeTV {
			label = "related TV shows"
		}
		s.logUpstream("Error fetching "+label, err, zap.Int("id", id))
		return nil, &FetchError{Message: "Failed to fetch " + label, Err: err}
	}

	return related, nil
}

// Search runs a title search and returns the matching titles of the requested
// page. An empty rawType searches movies. The query is sent as given.
func (s *Service) Search(ctx context.Context, rawType, query, rawPage string) ([]catalog.Media, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Invalid("Search query is required")
	}

	if rawType == "" {
		rawType = string(catalog.MediaTypeMovie)
	}
	mediaType, ok := catalog.ParseMediaType(rawType)
	if !ok {
		return nil, apperr.Invalid("Invalid media type")
	}

	result, err := s.catalog.Search(ctx, mediaType, query, ParsePage(rawPage))
	if err != nil {
		s.logUpstream(fmt.Sprintf("Error searching %s", mediaType), err)
		return nil, &FetchError{
			Message: fmt.Sprintf("Failed to search %s", mediaType),
			Err:     err,
		}
	}

	return result.Results, nil
}

// ParsePage converts a raw page value, coercing absent, non-numeric or
// non-positive values to 1
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseID(mediaType catalog.MediaType, raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		if mediaType == catalog.MediaTypeTV {
			return 0, apperr.Invalid("Invalid TV show ID")
		}
		return 0, apperr.Invalid("Invalid movie ID")
	}
	return id, nil
}

func (s *Service) logUpstream(msg string, err error, fields ...zap.Field) {
	var upstream *catalog.UpstreamError
	if errors.As(err, &upstream) {
		fields = append(fields,
			zap.Int("upstream_status", upstream.Status),
			zap.String("upstream_reason", upstream.Reason),
		)
	}
	s.logger.Error(msg, append(fields, zap.Error(err))...)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
