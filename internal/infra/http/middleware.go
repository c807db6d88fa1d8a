package http

import (
	"net/http"
	"strings"
	"time"

	"eventbooking/internal/domain"
	"eventbooking/internal/infra/auth/access"
	"eventbooking/internal/infra/auth/authn"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 128
)

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		}
		if result, ok := getAuth(c); ok && result.Authenticated {
			fields = append(fields, "principal", result.Principal)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Error("request", fields...)
			return
		}
		s.logger.Debug("request", fields...)
	}
}

// authenticate attaches an AuthResult to the request exactly once. When a
// result is already present on the request context it is kept as is.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if existing, ok := domain.AuthFromContext(ctx); ok {
			c.Set(authResultKey, existing)
			c.Next()
			return
		}

		result := domain.Anonymous()
		if s.authenticator != nil {
			result, _ = s.authenticator.Authenticate(ctx, authn.Request{
				Method:        c.Request.Method,
				Path:          c.Request.URL.Path,
				Authorization: c.GetHeader("Authorization"),
			})
		}
		c.Request = c.Request.WithContext(domain.ContextWithAuth(ctx, result))
		c.Set(authResultKey, result)
		c.Next()
	}
}

// enforceAccess evaluates the access policy for the request and stops it
// before any handler runs when the caller lacks the required capability. A
// policy that cannot be evaluated denies.
func (s *Server) enforceAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.policy == nil {
			writeErrorCode(c, http.StatusInternalServerError, "AUTH_CONFIG_ERROR", "auth configuration error")
			c.Abort()
			return
		}
		match, err := s.policy.Evaluate(c.Request.Context(), c.Request.Method, c.Request.URL.Path)
		if err != nil {
			s.logger.Error("access policy evaluation failed", "path", c.Request.URL.Path, "error", err)
			writeErrorCode(c, http.StatusInternalServerError, "POLICY_ERROR", "access policy unavailable")
			c.Abort()
			return
		}
		result, _ := getAuth(c)
		if err := access.Decide(match.Requirement, result); err != nil {
			s.logger.Debug("access denied",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"rule", match.Rule,
				"requirement", match.Requirement.String(),
			)
			writeAccessDenied(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
