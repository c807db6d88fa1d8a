package http

import (
	"net/http"
	"strconv"
	"time"

	"eventbooking/internal/domain"

	"github.com/gin-gonic/gin"
)

const routeLogin = "login"

// enforceRateLimit counts the request against key. It returns false after
// writing a 429.
func (s *Server) enforceRateLimit(c *gin.Context, routeID, key string) bool {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
		return true
	}
	decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
	if err != nil {
		s.logger.Warn("rate limiter error", "route", routeID, "error", err)
		if s.rateLimitFailClosed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
			return false
		}
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
		return false
	}
	return true
}

// forgetRateLimit clears key's window. Failures only cost the caller a
// stricter budget, so they are logged and dropped.
func (s *Server) forgetRateLimit(c *gin.Context, routeID, key string) {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 || key == "" {
		return
	}
	if err := s.rateLimiter.Reset(c.Request.Context(), key); err != nil {
		s.logger.Warn("rate limiter reset failed", "route", routeID, "error", err)
	}
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if decision.ResetAt.IsZero() {
		return
	}
	c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	if !decision.Allowed {
		retryAfter := int64(time.Until(decision.ResetAt).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	}
}
