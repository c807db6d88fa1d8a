package usecase

import (
	"context"
	"errors"

	"eventbooking/internal/domain"
)

type BookingService struct {
	Bookings BookingRepository
	Users    domain.IdentityLookup
}

func NewBookingService(bookings BookingRepository, users domain.IdentityLookup) *BookingService {
	return &BookingService{Bookings: bookings, Users: users}
}

// Book reserves a seat on eventID for the authenticated caller.
func (s *BookingService) Book(ctx context.Context, caller domain.AuthResult, eventID string) (*domain.Booking, error) {
	user, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, domain.NewValidationError("event id required")
	}
	return s.Bookings.Create(ctx, user.ID, eventID)
}

func (s *BookingService) Mine(ctx context.Context, caller domain.AuthResult) ([]domain.Booking, error) {
	user, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.Bookings.ListByUser(ctx, user.ID)
}

func (s *BookingService) All(ctx context.Context) ([]domain.Booking, error) {
	if s == nil || s.Bookings == nil {
		return nil, errors.New("booking repository is required")
	}
	return s.Bookings.ListAll(ctx)
}

// Cancel deletes a booking owned by the caller. Admins may cancel any
// booking.
func (s *BookingService) Cancel(ctx context.Context, caller domain.AuthResult, bookingID string) error {
	user, err := s.resolve(ctx, caller)
	if err != nil {
		return err
	}
	booking, err := s.Bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if caller.Role != domain.RoleAdmin && booking.UserID != user.ID {
		return domain.ErrForbidden
	}
	return s.Bookings.Delete(ctx, bookingID)
}

func (s *BookingService) resolve(ctx context.Context, caller domain.AuthResult) (*domain.Identity, error) {
	if s == nil || s.Bookings == nil || s.Users == nil {
		return nil, errors.New("booking service is not configured")
	}
	if !caller.Authenticated || caller.Principal == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.Users.FindByUsername(ctx, caller.Principal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
