package db

import (
	"context"

	"eventbooking/internal/domain"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []EventModel
	if err := r.db.WithContext(ctx).Order("events.date asc, events.created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(models))
	for _, model := range models {
		events = append(events, toEvent(model))
	}
	return events, nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (*domain.Event, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model EventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	event := toEvent(model)
	return &event, nil
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (*domain.Event, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	model := EventModel{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date.UTC(),
		Capacity:    event.Capacity,
		CreatedAt:   event.CreatedAt,
	}
	if model.ID == "" {
		model.ID = newID()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = nowUTC()
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	created := toEvent(model)
	return &created, nil
}

// DeleteWithBookings removes the event and every booking that references it
// in one transaction.
func (r *EventRepository) DeleteWithBookings(ctx context.Context, id string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model EventModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("event_id = ?", id).Delete(&BookingModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&EventModel{}, "id = ?", id).Error
	})
}

func toEvent(model EventModel) domain.Event {
	return domain.Event{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Date:        model.Date.UTC(),
		Capacity:    model.Capacity,
		CreatedAt:   model.CreatedAt,
	}
}
