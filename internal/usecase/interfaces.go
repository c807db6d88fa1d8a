package usecase

import (
	"context"

	"eventbooking/internal/domain"
)

type EventRepository interface {
	List(ctx context.Context) ([]domain.Event, error)
	Get(ctx context.Context, id string) (*domain.Event, error)
	Create(ctx context.Context, event domain.Event) (*domain.Event, error)
	DeleteWithBookings(ctx context.Context, id string) error
}

type BookingRepository interface {
	Create(ctx context.Context, userID, eventID string) (*domain.Booking, error)
	Get(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
	Delete(ctx context.Context, id string) error
}

// timingEqualizer is implemented by credential verifiers that can spend a
// comparison's worth of work without a stored hash.
type timingEqualizer interface {
	DummyMatch(ctx context.Context, plaintext string)
}
