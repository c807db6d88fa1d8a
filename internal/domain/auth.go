package domain

import (
	"context"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var knownRoles = map[Role]struct{}{
	RoleUser:  {},
	RoleAdmin: {},
}

// ParseRole maps a stored or client supplied role onto the closed role set.
// Matching is case-insensitive; the empty string is not a role.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := knownRoles[role]; !ok {
		return "", false
	}
	return role, true
}

func (r Role) String() string {
	return string(r)
}

// AuthResult is the per-request outcome of token authentication. The zero
// value is an anonymous caller.
type AuthResult struct {
	Principal     string `json:"principal,omitempty"`
	Role          Role   `json:"role,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

func Anonymous() AuthResult {
	return AuthResult{}
}

type authContextKey struct{}

// ContextWithAuth attaches result to ctx. Callers attach at most once per
// request; see AuthFromContext.
func ContextWithAuth(ctx context.Context, result AuthResult) context.Context {
	return context.WithValue(ctx, authContextKey{}, result)
}

func AuthFromContext(ctx context.Context) (AuthResult, bool) {
	if ctx == nil {
		return AuthResult{}, false
	}
	result, ok := ctx.Value(authContextKey{}).(AuthResult)
	return result, ok
}

// TokenClaims is what a verified token proves about its bearer.
type TokenClaims struct {
	Subject string
	Role    Role
}

type IssuedToken struct {
	Token     string
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(subject string, role Role) (string, error)
}

type TokenVerifier interface {
	Verify(token string) (TokenClaims, bool)
}

type CredentialVerifier interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Matches(ctx context.Context, plaintext, hash string) bool
}

// IdentityLookup resolves the current state of a token subject.
type IdentityLookup interface {
	FindByUsername(ctx context.Context, username string) (*Identity, error)
}
