package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches an UpstreamError for which the catalog reported 404
	ErrNotFound = errors.New("title not found")

	// ErrUnavailable is wrapped by UpstreamError while the circuit breaker is open
	ErrUnavailable = errors.New("catalog temporarily unavailable")

	// ErrInvalidCategory is returned for a category outside the media type's set
	ErrInvalidCategory = errors.New("invalid category")
)

// UpstreamError reports a failed catalog call. Status is 0 when no response
// was received (transport error, timeout, open breaker).
type UpstreamError struct {
	Endpoint string
	Status   int
	Reason   string
	Err      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status > 0:
		return fmt.Sprintf("%s: upstream status %d", e.Reason, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	default:
		return e.Reason
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match a 404 from the catalog
func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
