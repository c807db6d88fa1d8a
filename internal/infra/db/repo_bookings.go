package db

import (
	"context"
	"time"

	"eventbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingRow struct {
	ID         string
	UserID     string
	Username   string
	EventID    string
	EventTitle string
	CreatedAt  time.Time
}

// Create books a seat for userID. The event row is locked on postgres so
// two concurrent bookings cannot both take the last seat.
func (r *BookingRepository) Create(ctx context.Context, userID, eventID string) (*domain.Booking, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var created BookingModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var event EventModel
		if err := query.First(&event, "id = ?", eventID).Error; err != nil {
			return notFound(err)
		}
		var taken int64
		if err := tx.Model(&BookingModel{}).Where("event_id = ?", eventID).Count(&taken).Error; err != nil {
			return err
		}
		if taken >= int64(event.Capacity) {
			return domain.ErrEventFull
		}
		created = BookingModel{
			ID:        newID(),
			UserID:    userID,
			EventID:   eventID,
			CreatedAt: nowUTC(),
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, created.ID)
}

func (r *BookingRepository) Get(ctx context.Context, id string) (*domain.Booking, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var rows []bookingRow
	if err := r.joined(ctx).Where("bookings.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	booking := rows[0].toDomain()
	return &booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	return r.list(r.joined(ctx).Where("bookings.user_id = ?", userID))
}

func (r *BookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	return r.list(r.joined(ctx))
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).Delete(&BookingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings").
		Select("bookings.id, bookings.user_id, users.username, bookings.event_id, events.title AS event_title, bookings.created_at").
		Joins("JOIN users ON users.id = bookings.user_id").
		Joins("JOIN events ON events.id = bookings.event_id")
}

func (r *BookingRepository) list(query *gorm.DB) ([]domain.Booking, error) {
	var rows []bookingRow
	if err := query.Order("bookings.created_at asc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	bookings := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, row.toDomain())
	}
	return bookings, nil
}

func (row bookingRow) toDomain() domain.Booking {
	return domain.Booking{
		ID:         row.ID,
		UserID:     row.UserID,
		Username:   row.Username,
		EventID:    row.EventID,
		EventTitle: row.EventTitle,
		CreatedAt:  row.CreatedAt,
	}
}
