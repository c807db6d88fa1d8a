package db

import "time"

type UserModel struct {
	ID           string    `gorm:"size:36;primaryKey"`
	Username     string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"size:32"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type EventModel struct {
	ID          string `gorm:"size:36;primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string
	Date        time.Time `gorm:"not null"`
	Capacity    int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (EventModel) TableName() string { return "events" }

type BookingModel struct {
	ID        string    `gorm:"size:36;primaryKey"`
	UserID    string    `gorm:"size:36;index;not null"`
	EventID   string    `gorm:"size:36;index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (BookingModel) TableName() string { return "bookings" }
