package auth

import "context"

// Subject identifies the signed-in caller
type Subject struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// State is either anonymous or authenticated as a Subject.
// The zero value is anonymous.
type State struct {
	subject *Subject
}

// Anonymous returns the unauthenticated state
func Anonymous() State {
	return State{}
}

// Authenticated returns a state carrying subject
func Authenticated(subject Subject) State {
	return State{subject: &subject}
}

// IsAuthenticated reports whether a subject is present
func (s State) IsAuthenticated() bool {
	return s.subject != nil
}

// Subject returns the signed-in subject, if any
func (s State) Subject() (Subject, bool) {
	if s.subject == nil {
		return Subject{}, false
	}
	return *s.subject, true
}

type contextKey struct{}

// WithClaims stores validated access token claims on ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// StateFromContext returns the authentication state for the request
func StateFromContext(ctx context.Context) State {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return Anonymous()
	}
	return Authenticated(Subject{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
	})
}
