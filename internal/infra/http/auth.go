package http

import (
	"errors"
	"net/http"

	"eventbooking/internal/domain"
	"eventbooking/internal/infra/auth/access"

	"github.com/gin-gonic/gin"
)

const authResultKey = "auth_result"

// getAuth prefers the result on the request context so handlers see the same
// value the policy engine decided on.
func getAuth(c *gin.Context) (domain.AuthResult, bool) {
	if result, ok := domain.AuthFromContext(c.Request.Context()); ok {
		return result, true
	}
	raw, ok := c.Get(authResultKey)
	if !ok {
		return domain.AuthResult{}, false
	}
	result, ok := raw.(domain.AuthResult)
	return result, ok
}

func writeAccessDenied(c *gin.Context, err error) {
	if authz, ok := access.IsAuthzError(err); ok {
		if authz.Code == access.CodeUnauthorized {
			writeErrorCode(c, http.StatusUnauthorized, authz.Code, "authentication required")
			return
		}
		writeErrorCode(c, http.StatusForbidden, authz.Code, "forbidden")
		return
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
}
