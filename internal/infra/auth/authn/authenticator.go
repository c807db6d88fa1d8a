package authn

import (
	"context"
	"strings"

	"eventbooking/internal/domain"

	"github.com/hashicorp/go-hclog"
)

type Outcome int

const (
	// OutcomeBypassed means the request is on the bypass list; no token work
	// was done.
	OutcomeBypassed Outcome = iota
	// OutcomeAnonymous covers missing, malformed, invalid and expired tokens as
	// well as tokens whose subject could not be resolved.
	OutcomeAnonymous
	OutcomeAuthenticated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBypassed:
		return "bypassed"
	case OutcomeAnonymous:
		return "anonymous"
	case OutcomeAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Request is the transport-neutral view of an inbound call.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

// Authenticator turns a bearer token into an AuthResult. It never fails a
// request: every problem degrades to an anonymous result and the access
// policy decides what an anonymous caller may do.
type Authenticator struct {
	tokens     domain.TokenVerifier
	identities domain.IdentityLookup
	bypass     BypassSet
	logger     hclog.Logger
}

func New(tokens domain.TokenVerifier, identities domain.IdentityLookup, bypass BypassSet, logger hclog.Logger) *Authenticator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Authenticator{
		tokens:     tokens,
		identities: identities,
		bypass:     bypass,
		logger:     logger.Named("authn"),
	}
}

func (a *Authenticator) Authenticate(ctx context.Context, req Request) (domain.AuthResult, Outcome) {
	if a.bypass.Matches(req.Method, req.Path) {
		return domain.Anonymous(), OutcomeBypassed
	}
	token := ExtractBearerToken(req.Authorization)
	if token == "" {
		return domain.Anonymous(), OutcomeAnonymous
	}
	if a.tokens == nil {
		a.logger.Warn("no token verifier configured")
		return domain.Anonymous(), OutcomeAnonymous
	}
	claims, ok := a.tokens.Verify(token)
	if !ok {
		a.logger.Debug("rejected bearer token", "path", req.Path)
		return domain.Anonymous(), OutcomeAnonymous
	}
	if a.identities == nil {
		a.logger.Warn("no identity lookup configured", "username", claims.Subject)
		return domain.Anonymous(), OutcomeAnonymous
	}
	identity, err := a.identities.FindByUsername(ctx, claims.Subject)
	if err != nil || identity == nil {
		a.logger.Warn("failed to load user during token processing", "username", claims.Subject, "error", err)
		return domain.Anonymous(), OutcomeAnonymous
	}
	role := domain.RoleUser
	if strings.TrimSpace(identity.Role) != "" {
		parsed, ok := domain.ParseRole(identity.Role)
		if !ok {
			a.logger.Warn("user has unknown role", "username", claims.Subject, "role", identity.Role)
			return domain.Anonymous(), OutcomeAnonymous
		}
		role = parsed
	}
	return domain.AuthResult{
		Principal:     claims.Subject,
		Role:          role,
		Authenticated: true,
	}, OutcomeAuthenticated
}

// ExtractBearerToken returns the token from an Authorization header value, or
// "" when the header is absent or uses another scheme. The scheme is matched
// case-insensitively.
func ExtractBearerToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	const prefix = "bearer "
	if len(value) < len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(value[len(prefix):])
}
