package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"eventbooking/internal/domain"
	"eventbooking/internal/infra/ratelimit"
	"eventbooking/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type credentialsRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     string  `json:"role"`
}

type registerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type eventRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        *string `json:"date"`
	Capacity    *int    `json:"capacity"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"createdAt"`
}

type bookingResponse struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	EventTitle string    `json:"eventTitle,omitempty"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Accepted event date layouts. Values without a zone are read as UTC.
var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.store == nil || s.store.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "none"})
		return
	}
	sqlDB, err := s.store.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.logger.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": s.store.DB.Dialector.Name()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": s.store.DB.Dialector.Name()})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_BODY", "body missing")
		return
	}
	if req.Username == nil || req.Password == nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "username and password required")
		return
	}
	created, err := s.accounts.Register(c.Request.Context(), usecase.RegisterInput{
		Username: *req.Username,
		Password: *req.Password,
		Role:     req.Role,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, registerResponse{ID: created.ID, Username: created.Username})
}

func (s *Server) handleLogin(c *gin.Context) {
	keys := ratelimit.ForLogin(c.ClientIP(), "")
	if !s.enforceRateLimit(c, routeLogin, keys.Client) {
		return
	}
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_BODY", "body missing")
		return
	}
	if req.Username == nil || req.Password == nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "username and password required")
		return
	}
	keys = ratelimit.ForLogin(c.ClientIP(), *req.Username)
	if keys.Account != "" && !s.enforceRateLimit(c, routeLogin, keys.Account) {
		return
	}
	result, err := s.accounts.Login(c.Request.Context(), *req.Username, *req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.forgetRateLimit(c, routeLogin, keys.Account)
	c.JSON(http.StatusOK, loginResponse{
		Token:    result.Token,
		Username: result.Username,
		Role:     result.Role.String(),
	})
}

func (s *Server) handleMe(c *gin.Context) {
	result, _ := getAuth(c)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.events.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toEventResponse(event))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetEvent(c *gin.Context) {
	event, err := s.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(*event))
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_BODY", "event body required")
		return
	}
	in := usecase.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Capacity:    req.Capacity,
	}
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		date, err := parseEventDate(*req.Date)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "date must be an ISO-8601 date or timestamp")
			return
		}
		in.Date = &date
	}
	created, err := s.events.Create(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Location", "/api/events/"+created.ID)
	c.JSON(http.StatusCreated, toEventResponse(*created))
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	if err := s.events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleBook(c *gin.Context) {
	caller, _ := getAuth(c)
	booking, err := s.bookings.Book(c.Request.Context(), caller, c.Param("eventId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*booking))
}

func (s *Server) handleMyBookings(c *gin.Context) {
	caller, _ := getAuth(c)
	bookings, err := s.bookings.Mine(c.Request.Context(), caller)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(bookings))
}

func (s *Server) handleAllBookings(c *gin.Context) {
	bookings, err := s.bookings.All(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(bookings))
}

func (s *Server) handleCancelBooking(c *gin.Context) {
	caller, _ := getAuth(c)
	if err := s.bookings.Cancel(c.Request.Context(), caller, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range eventDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date,
		Capacity:    event.Capacity,
		CreatedAt:   event.CreatedAt,
	}
}

func toBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingResponse(booking))
	}
	return out
}

func toBookingResponse(booking domain.Booking) bookingResponse {
	return bookingResponse{
		ID:         booking.ID,
		EventID:    booking.EventID,
		EventTitle: booking.EventTitle,
		UserID:     booking.UserID,
		Username:   booking.Username,
		CreatedAt:  booking.CreatedAt,
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", verr.Message)
	case errors.Is(err, domain.ErrUsernameTaken):
		writeErrorCode(c, http.StatusBadRequest, "USERNAME_TAKEN", domain.ErrUsernameTaken.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeErrorCode(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized):
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, domain.ErrEventFull):
		writeErrorCode(c, http.StatusConflict, "EVENT_FULL", domain.ErrEventFull.Error())
	case errors.Is(err, domain.ErrConflict):
		writeErrorCode(c, http.StatusConflict, "CONFLICT", "conflict")
	default:
		s.logger.Error("request failed", "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey), "error", err)
		writeErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
