package handlers

import (
	"net/http"

	"github.com/blakestevenson/marquee/internal/auth"
)

// getUserClaims extracts user claims stored by the auth middleware
func getUserClaims(r *http.Request) (*auth.Claims, bool) {
	return auth.ClaimsFromContext(r.Context())
}

// requestState is the anonymous/authenticated state of the caller
func requestState(r *http.Request) auth.State {
	return auth.StateFromContext(r.Context())
}
