package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents a registered account
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshToken is the stored form of an issued refresh token
type RefreshToken struct {
	ID        int64
	UserID    int64
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// TokenPair contains access and refresh tokens
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	TokenType        string    `json:"token_type"`
}

// Claims represents JWT access token claims
type Claims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SignupRequest contains account creation data
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,letterdigit"`
}

// LoginRequest contains login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest replaces the password of the signed-in user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,letterdigit"`
}

// AuthResponse contains authentication response data
type AuthResponse struct {
	User   *User      `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

// Service defines the authentication service interface
type Service interface {
	// Signup creates a new account with password credentials and signs it in
	Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error)

	// Login authenticates by email and password and returns tokens
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)

	// RefreshToken rotates a refresh token into a new token pair
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	// ValidateToken validates an access token and returns the claims
	ValidateToken(ctx context.Context, token string) (*Claims, error)

	// RevokeToken revokes a refresh token
	RevokeToken(ctx context.Context, refreshToken string) error

	// ChangePassword verifies the current password and stores a new one
	ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*User, error)
}
