package domain

import "time"

type Event struct {
	ID          string
	Title       string
	Description string
	Date        time.Time
	Capacity    int
	CreatedAt   time.Time
}

type Booking struct {
	ID         string
	UserID     string
	Username   string
	EventID    string
	EventTitle string
	CreatedAt  time.Time
}
