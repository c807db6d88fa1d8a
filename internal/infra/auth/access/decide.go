package access

import (
	"errors"

	"eventbooking/internal/domain"
)

const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeMissingRole  = "MISSING_ROLE"
)

type AuthzError struct {
	Code string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}

// Decide returns nil when result satisfies req. A caller that is not
// authenticated is always told UNAUTHORIZED, even for role rules; an
// authenticated caller with the wrong role gets MISSING_ROLE.
func Decide(req domain.Requirement, result domain.AuthResult) error {
	switch req.Kind {
	case domain.RequirePublic:
		return nil
	case domain.RequireAuthenticated:
		if result.Authenticated {
			return nil
		}
		return &AuthzError{Code: CodeUnauthorized, Err: domain.ErrUnauthorized}
	case domain.RequireRole:
		if !result.Authenticated {
			return &AuthzError{Code: CodeUnauthorized, Err: domain.ErrUnauthorized}
		}
		if req.Role != "" && result.Role == req.Role {
			return nil
		}
		return &AuthzError{Code: CodeMissingRole, Err: domain.ErrForbidden}
	default:
		// An unknown requirement never grants access.
		if !result.Authenticated {
			return &AuthzError{Code: CodeUnauthorized, Err: domain.ErrUnauthorized}
		}
		return &AuthzError{Code: CodeMissingRole, Err: domain.ErrForbidden}
	}
}
