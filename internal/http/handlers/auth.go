package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/apperr"
	"github.com/blakestevenson/marquee/internal/auth"
	"github.com/blakestevenson/marquee/internal/httputil"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

// CookieConfig controls the token cookies set by the auth handler
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService auth.Service
	cookies     CookieConfig
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService auth.Service, cookies CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
		logger:      logger,
	}
}

// Signup handles account creation
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		h.handleAuthError(w, err, "Failed to create account")
		return
	}

	h.setTokenCookies(w, response.Tokens)

	// tokens travel in cookies only
	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"user": response.User,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.handleAuthError(w, err, "Login failed")
		return
	}

	h.setTokenCookies(w, response.Tokens)

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user": response.User,
	})
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie(refreshTokenCookie)
	if err != nil || refreshCookie.Value == "" {
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Missing refresh token")
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), refreshCookie.Value)
	if err != nil {
		h.handleAuthError(w, err, "Token refresh failed")
		return
	}

	h.setTokenCookies(w, tokens)

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Tokens refreshed",
	})
}

// Logout revokes the refresh token and clears the cookies
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshCookie, err := r.Cookie(refreshTokenCookie); err == nil && refreshCookie.Value != "" {
		// logout succeeds even if revocation fails
		if err := h.authService.RevokeToken(r.Context(), refreshCookie.Value); err != nil {
			h.logger.Warn("failed to revoke token", zap.Error(err))
		}
	}

	h.clearTokenCookies(w)

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out",
	})
}

// Me returns the current user's information
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := getUserClaims(r)
	if !ok {
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.handleAuthError(w, err, "Failed to get user information")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, user)
}

// ChangePassword replaces the signed-in user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := getUserClaims(r)
	if !ok {
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req auth.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), claims.UserID, req); err != nil {
		h.handleAuthError(w, err, "Failed to change password")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated",
	})
}

// handleAuthError maps authentication errors to HTTP responses
func (h *AuthHandler) handleAuthError(w http.ResponseWriter, err error, defaultMsg string) {
	var validation *apperr.ValidationError

	switch {
	case errors.As(err, &validation):
		httputil.RespondValidation(w, validation)
	case errors.Is(err, auth.ErrUserExists):
		httputil.RespondErrorMessage(w, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrTokenRevoked):
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Token has been revoked")
	case errors.Is(err, auth.ErrInvalidToken):
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, auth.ErrUserInactive):
		httputil.RespondErrorMessage(w, http.StatusForbidden, "User account is inactive")
	case errors.Is(err, auth.ErrUserNotFound):
		httputil.RespondErrorMessage(w, http.StatusNotFound, "User not found")
	default:
		httputil.LogError(h.logger, err, defaultMsg)
		httputil.RespondErrorMessage(w, http.StatusInternalServerError, defaultMsg)
	}
}

// setTokenCookies sets httpOnly cookies for access and refresh tokens
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, tokens *auth.TokenPair) {
	http.SetCookie(w, h.tokenCookie(accessTokenCookie, tokens.AccessToken, int(h.cookies.AccessTTL.Seconds())))
	http.SetCookie(w, h.tokenCookie(refreshTokenCookie, tokens.RefreshToken, int(h.cookies.RefreshTTL.Seconds())))
}

// clearTokenCookies expires the authentication cookies
func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.tokenCookie(accessTokenCookie, "", -1))
	http.SetCookie(w, h.tokenCookie(refreshTokenCookie, "", -1))
}

func (h *AuthHandler) tokenCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	}
}
