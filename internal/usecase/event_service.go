package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"eventbooking/internal/domain"
)

// EventInput mirrors the request body; pointer fields distinguish absent
// values from zero values.
type EventInput struct {
	Title       string
	Description string
	Date        *time.Time
	Capacity    *int
}

type EventService struct {
	Events EventRepository
}

func NewEventService(events EventRepository) *EventService {
	return &EventService{Events: events}
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	if s == nil || s.Events == nil {
		return nil, errors.New("event repository is required")
	}
	return s.Events.List(ctx)
}

func (s *EventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	if s == nil || s.Events == nil {
		return nil, errors.New("event repository is required")
	}
	return s.Events.Get(ctx, id)
}

func (s *EventService) Create(ctx context.Context, in EventInput) (*domain.Event, error) {
	if s == nil || s.Events == nil {
		return nil, errors.New("event repository is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.NewValidationError("title required")
	}
	if in.Date == nil || in.Date.IsZero() {
		return nil, domain.NewValidationError("date required")
	}
	if in.Capacity == nil || *in.Capacity < 1 {
		return nil, domain.NewValidationError("capacity must be >= 1")
	}
	return s.Events.Create(ctx, domain.Event{
		Title:       title,
		Description: in.Description,
		Date:        *in.Date,
		Capacity:    *in.Capacity,
	})
}

// Delete removes the event together with its bookings.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if s == nil || s.Events == nil {
		return errors.New("event repository is required")
	}
	return s.Events.DeleteWithBookings(ctx, id)
}
