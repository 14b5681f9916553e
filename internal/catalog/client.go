// Package catalog is the client for the external movie/TV catalog API (TMDB v3).
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/metrics"
)

const (
	// RelatedLimit caps the number of related titles returned
	RelatedLimit = 10

	maxResponseBytes = 8 << 20
)

// Config holds the catalog connection settings
type Config struct {
	BaseURL         string
	APIKey          string
	Language        string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client talks to the catalog API. Every request carries the configured bearer
// token in the Authorization header and the configured language.
type Client struct {
	baseURL    string
	authHeader string
	language   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *zap.Logger
}

// NewClient creates a new catalog client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("catalog api key is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base url: %w", err)
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: "Bearer " + cfg.APIKey,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker(cfg.BreakerFailures, cfg.BreakerTimeout, logger),
		logger:     logger,
	}, nil
}

// FetchByCategory returns one page of a curated category
func (c *Client) FetchByCategory(ctx context.Context, mediaType MediaType, category Category, page int) (*PageResult, error) {
	path, ok := categoryPath(mediaType, category)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrInvalidCategory, mediaType, category)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(normalizePage(page)))

	reason := fmt.Sprintf("Failed to fetch %s %s", mediaType, category)
	body, err := c.get(ctx, string(mediaType)+"_"+string(category), path, query, reason)
	if err != nil {
		return nil, err
	}
	return c.decodePage(mediaType, body, path, reason)
}

// FetchDetails returns the detail view of a single title
func (c *Client) FetchDetails(ctx context.Context, mediaType MediaType, id int) (Media, error) {
	path := fmt.Sprintf("/%s/%d", mediaType, id)
	reason := fmt.Sprintf("Failed to fetch %s details", mediaType.Noun())

	body, err := c.get(ctx, string(mediaType)+"_details", path, url.Values{}, reason)
	if err != nil {
		return nil, err
	}

	var (
		out    Media
		decErr error
	)
	switch mediaType {
	case MediaTypeMovie:
		var d MovieDetails
		decErr = json.Unmarshal(body, &d)
		out = d
	case MediaTypeTV:
		var d TVShowDetails
		decErr = json.Unmarshal(body, &d)
		out = d
	default:
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}
	if decErr != nil {
		return nil, &UpstreamError{Endpoint: path, Reason: reason, Err: fmt.Errorf("decode response: %w", decErr)}
	}
	return withSource(out, body), nil
}

// FetchRelated returns up to RelatedLimit titles related to id. Recommendations
// are tried first; on any failure the similar-titles endpoint is used instead.
func (c *Client) FetchRelated(ctx context.Context, mediaType MediaType, id int) ([]Media, error) {
	reason := "Failed to fetch related movies"
	if mediaType == MediaTypeTV {
		reason = "Failed to fetch related TV shows"
	}

	recsPath := fmt.Sprintf("/%s/%d/recommendations", mediaType, id)
	page, err := c.fetchList(ctx, string(mediaType)+"_recommendations", recsPath, url.Values{}, mediaType, reason)
	if err == nil {
		return truncate(page.Results, RelatedLimit), nil
	}

	c.logger.Debug("recommendations unavailable, falling back to similar",
		zap.String("media_type", string(mediaType)),
		zap.Int("id", id),
		zap.Error(err),
	)

	similarPath := fmt.Sprintf("/%s/%d/similar", mediaType, id)
	page, err = c.fetchList(ctx, string(mediaType)+"_similar", similarPath, url.Values{}, mediaType, reason)
	if err != nil {
		return nil, err
	}
	return truncate(page.Results, RelatedLimit), nil
}

// Search runs a title search for the given media type
func (c *Client) Search(ctx context.Context, mediaType MediaType, query string, page int) (*PageResult, error) {
	values := url.Values{}
	values.Set("query", query)
	values.Set("page", strconv.Itoa(normalizePage(page)))

	reason := fmt.Sprintf("Failed to search %s", mediaType)
	return c.fetchList(ctx, "search_"+string(mediaType), "/search/"+string(mediaType), values, mediaType, reason)
}

func (c *Client) fetchList(ctx context.Context, endpoint, path string, query url.Values, mediaType MediaType, reason string) (*PageResult, error) {
	body, err := c.get(ctx, endpoint, path, query, reason)
	if err != nil {
		return nil, err
	}
	return c.decodePage(mediaType, body, path, reason)
}

func (c *Client) decodePage(mediaType MediaType, body []byte, path, reason string) (*PageResult, error) {
	var (
		page *PageResult
		err  error
	)
	switch mediaType {
	case MediaTypeMovie:
		page, err = decodeTypedPage[Movie](body)
	case MediaTypeTV:
		page, err = decodeTypedPage[TVShow](body)
	default:
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Reason: reason, Err: fmt.Errorf("decode response: %w", err)}
	}
	return page, nil
}

// decodeTypedPage decodes the page fields and each result as T while keeping
// the upstream bytes of the page and of every result for relaying
func decodeTypedPage[T Media](body []byte) (*PageResult, error) {
	var raw struct {
		Page         int               `json:"page"`
		Results      []json.RawMessage `json:"results"`
		TotalPages   int               `json:"total_pages"`
		TotalResults int               `json:"total_results"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	results := make([]Media, 0, len(raw.Results))
	for i, item := range raw.Results {
		var decoded T
		if err := json.Unmarshal(item, &decoded); err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		results = append(results, withSource(decoded, item))
	}

	return &PageResult{
		Results:      results,
		Page:         raw.Page,
		TotalPages:   raw.TotalPages,
		TotalResults: raw.TotalResults,
		raw:          body,
	}, nil
}

// get performs a GET through the circuit breaker and returns the raw body.
// endpoint is a low-cardinality label used for metrics.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, reason string) ([]byte, error) {
	query.Set("language", c.language)
	reqURL := c.baseURL + path + "?" + query.Encode()

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, reqURL, reason)
	})
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		if isRejected(err) {
			metrics.UpstreamRequests.WithLabelValues(endpoint, "rejected").Inc()
			return nil, &UpstreamError{Endpoint: path, Reason: reason, Err: ErrUnavailable}
		}
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, upstream
		}
		return nil, &UpstreamError{Endpoint: path, Reason: reason, Err: err}
	}

	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

func (c *Client) do(ctx context.Context, path, reqURL, reason string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Reason: reason, Err: err}
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &UpstreamError{Endpoint: path, Status: resp.StatusCode, Reason: reason}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Reason: reason, Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func truncate(items []Media, n int) []Media {
	if len(items) > n {
		return items[:n]
	}
	return items
}
