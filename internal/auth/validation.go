package auth

import (
	"strings"

	"github.com/blakestevenson/marquee/internal/validation"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// validateSignup checks name, email and password rules and returns an
// *apperr.ValidationError with per-field details
func validateSignup(req SignupRequest) error {
	return validation.Struct(&req)
}

func validateLogin(req LoginRequest) error {
	return validation.Struct(&req)
}
