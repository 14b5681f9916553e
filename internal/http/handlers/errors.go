package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/apperr"
	"github.com/blakestevenson/marquee/internal/catalog"
	"github.com/blakestevenson/marquee/internal/discovery"
	"github.com/blakestevenson/marquee/internal/httputil"
)

// respondError maps service errors onto status codes and the {error, details}
// body. Anything unrecognised is logged and reported as defaultMsg with 500.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, defaultMsg string) {
	var (
		validation *apperr.ValidationError
		fetch      *discovery.FetchError
	)

	switch {
	case errors.As(err, &validation):
		httputil.RespondValidation(w, validation)
	case errors.Is(err, apperr.ErrUnauthenticated):
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Authentication required")
	case errors.As(err, &fetch):
		if errors.Is(err, catalog.ErrNotFound) {
			httputil.RespondErrorMessage(w, http.StatusNotFound, fetch.Message)
			return
		}
		// already logged by the discovery service
		httputil.RespondErrorMessage(w, http.StatusInternalServerError, fetch.Message)
	default:
		httputil.LogError(logger, err, defaultMsg)
		httputil.RespondErrorMessage(w, http.StatusInternalServerError, defaultMsg)
	}
}
