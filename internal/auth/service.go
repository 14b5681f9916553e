package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blakestevenson/marquee/internal/auth/providers"
	"github.com/blakestevenson/marquee/internal/validation"
)

// service implements the Service interface
type service struct {
	store            Store
	jwt              *JWTManager
	passwordProvider *providers.PasswordProvider
	logger           *zap.Logger
	now              func() time.Time
}

// NewService creates a new authentication service
func NewService(store Store, jwt *JWTManager, passwordProvider *providers.PasswordProvider, logger *zap.Logger) Service {
	return &service{
		store:            store,
		jwt:              jwt,
		passwordProvider: passwordProvider,
		logger:           logger,
		now:              time.Now,
	}
}

// Signup creates a new user with password credentials
func (s *service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Name = normalizeName(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateSignup(req); err != nil {
		return nil, err
	}

	// Check if user already exists
	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	// Create password auth provider
	if err := s.passwordProvider.CreateAuthProvider(ctx, user.ID, req.Password); err != nil {
		// Rollback user creation if provider registration fails
		_ = s.store.DeleteUser(ctx, user.ID)
		return nil, fmt.Errorf("failed to register with provider: %w", err)
	}

	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered successfully",
		zap.Int64("user_id", user.ID),
		zap.String("provider", providers.ProviderTypePassword),
	)

	return &AuthResponse{
		User:   user,
		Tokens: tokens,
	}, nil
}

// Login authenticates a user by email and password and returns tokens
func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateLogin(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := s.passwordProvider.Verify(ctx, user.ID, req.Password); err != nil {
		s.logger.Warn("authentication failed",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		if errors.Is(err, providers.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in successfully", zap.Int64("user_id", user.ID))

	return &AuthResponse{
		User:   user,
		Tokens: tokens,
	}, nil
}

// RefreshToken rotates a refresh token: the presented token is revoked and a
// fresh pair is issued
func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	stored, err := s.store.GetRefreshToken(ctx, s.jwt.HashRefreshToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if stored.RevokedAt != nil {
		s.logger.Warn("revoked refresh token presented", zap.Int64("user_id", stored.UserID))
		return nil, ErrTokenRevoked
	}
	if !s.now().Before(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.GetUser(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// only one of several concurrent refreshes with the same token wins
	if err := s.store.ConsumeRefreshToken(ctx, stored.ID); err != nil {
		if errors.Is(err, ErrTokenRevoked) {
			s.logger.Warn("refresh token already consumed", zap.Int64("user_id", user.ID))
		}
		return nil, err
	}

	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("tokens refreshed successfully", zap.Int64("user_id", user.ID))

	return tokens, nil
}

// ValidateToken validates an access token and returns the claims
func (s *service) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	// Verify user still exists and is active
	user, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return claims, nil
}

// RevokeToken revokes a refresh token
func (s *service) RevokeToken(ctx context.Context, refreshToken string) error {
	return s.store.RevokeRefreshTokenByHash(ctx, s.jwt.HashRefreshToken(refreshToken))
}

// ChangePassword verifies the current password and replaces it
func (s *service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := validation.Struct(&req); err != nil {
		return err
	}

	if err := s.passwordProvider.Verify(ctx, userID, req.CurrentPassword); err != nil {
		if errors.Is(err, providers.ErrInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := s.passwordProvider.UpdatePassword(ctx, userID, req.NewPassword); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

// GetUser retrieves a user by ID
func (s *service) GetUser(ctx context.Context, userID int64) (*User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// generateTokens creates access and refresh tokens for a user
func (s *service) generateTokens(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Hash and store refresh token
	refreshExpiresAt := s.now().Add(s.jwt.GetRefreshTokenExpiry())
	if err := s.store.CreateRefreshToken(ctx, user.ID, s.jwt.HashRefreshToken(refreshToken), refreshExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refreshExpiresAt,
		TokenType:        "Bearer",
	}, nil
}
