package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	ProviderTypePassword = "password"
	MinPasswordLength    = 8
	BcryptCost           = 12
)

// Error types (duplicated to avoid import cycle)
type AuthError string

func (e AuthError) Error() string { return string(e) }

const (
	ErrInvalidCredentials = AuthError("invalid credentials")
	ErrProviderNotFound   = AuthError("authentication provider not found")
	ErrWeakPassword       = AuthError("password does not meet requirements")
)

// Credentials is a stored auth_providers row
type Credentials struct {
	ID           int64
	UserID       int64
	ProviderType string
	Data         []byte
}

// CredentialStore persists provider credentials. Get returns ErrProviderNotFound
// when the user has no credentials of that type.
type CredentialStore interface {
	CreateCredentials(ctx context.Context, userID int64, providerType string, data []byte) error
	GetCredentials(ctx context.Context, userID int64, providerType string) (*Credentials, error)
	UpdateCredentials(ctx context.Context, id int64, data []byte) error
	TouchCredentials(ctx context.Context, id int64) error
}

type passwordCredentials struct {
	PasswordHash string `json:"password_hash"`
}

// PasswordProvider implements email/password authentication
type PasswordProvider struct {
	store CredentialStore
	cost  int
}

// NewPasswordProvider creates a new password authentication provider.
// A cost of 0 uses BcryptCost.
func NewPasswordProvider(store CredentialStore, cost int) *PasswordProvider {
	if cost == 0 {
		cost = BcryptCost
	}
	return &PasswordProvider{
		store: store,
		cost:  cost,
	}
}

// Type returns the provider type
func (p *PasswordProvider) Type() string {
	return ProviderTypePassword
}

// Verify checks password against the stored hash for userID
func (p *PasswordProvider) Verify(ctx context.Context, userID int64, password string) error {
	creds, err := p.store.GetCredentials(ctx, userID, ProviderTypePassword)
	if err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	var stored passwordCredentials
	if err := json.Unmarshal(creds.Data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	if stored.PasswordHash == "" {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	// Update last used timestamp
	_ = p.store.TouchCredentials(ctx, creds.ID)

	return nil
}

// CreateAuthProvider creates a new password auth provider for a user
func (p *PasswordProvider) CreateAuthProvider(ctx context.Context, userID int64, password string) error {
	data, err := p.hash(password)
	if err != nil {
		return err
	}

	if err := p.store.CreateCredentials(ctx, userID, ProviderTypePassword, data); err != nil {
		return fmt.Errorf("failed to create auth provider: %w", err)
	}
	return nil
}

// UpdatePassword updates the user's password
func (p *PasswordProvider) UpdatePassword(ctx context.Context, userID int64, password string) error {
	data, err := p.hash(password)
	if err != nil {
		return err
	}

	creds, err := p.store.GetCredentials(ctx, userID, ProviderTypePassword)
	if err != nil {
		return err
	}

	if err := p.store.UpdateCredentials(ctx, creds.ID, data); err != nil {
		return fmt.Errorf("failed to update credentials: %w", err)
	}
	return nil
}

func (p *PasswordProvider) hash(password string) ([]byte, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Store password hash in credentials JSONB
	data, err := json.Marshal(passwordCredentials{PasswordHash: string(hashedPassword)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return data, nil
}

// ValidatePassword checks if a password meets requirements: at least
// MinPasswordLength characters with at least one letter and one digit
func ValidatePassword(password string) error {
	if password == "" {
		return ErrInvalidCredentials
	}

	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}

	hasLetter := false
	hasNumber := false
	for _, char := range password {
		switch {
		case (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z'):
			hasLetter = true
		case char >= '0' && char <= '9':
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		return ErrWeakPassword
	}

	return nil
}
