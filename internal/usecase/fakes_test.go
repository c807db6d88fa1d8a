package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"eventbooking/internal/domain"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]domain.Identity
	err   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]domain.Identity)}
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (m *memoryUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok, nil
}

func (m *memoryUsers) Create(_ context.Context, identity domain.Identity) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[identity.Username]; ok {
		return nil, domain.ErrUsernameTaken
	}
	identity.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[identity.Username] = identity
	return &identity, nil
}

// plainCredentials stores "hashed:" + plaintext so tests can inspect hashes.
type plainCredentials struct {
	dummyCalls int
}

func (p *plainCredentials) Hash(_ context.Context, plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (p *plainCredentials) Matches(_ context.Context, plaintext, hash string) bool {
	return hash != "" && hash == "hashed:"+plaintext
}

func (p *plainCredentials) DummyMatch(context.Context, string) {
	p.dummyCalls++
}

type recordingIssuer struct {
	subject string
	role    domain.Role
}

func (r *recordingIssuer) Issue(subject string, role domain.Role) (string, error) {
	r.subject = subject
	r.role = role
	return "token-for-" + subject + "-" + strings.ToLower(role.String()), nil
}

type memoryEvents struct {
	events   map[string]domain.Event
	bookings *memoryBookings
}

func (m *memoryEvents) List(context.Context) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(m.events))
	for _, event := range m.events {
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryEvents) Get(_ context.Context, id string) (*domain.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &event, nil
}

func (m *memoryEvents) Create(_ context.Context, event domain.Event) (*domain.Event, error) {
	if m.events == nil {
		m.events = make(map[string]domain.Event)
	}
	event.ID = fmt.Sprintf("event-%d", len(m.events)+1)
	m.events[event.ID] = event
	return &event, nil
}

func (m *memoryEvents) DeleteWithBookings(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.events, id)
	if m.bookings != nil {
		for bid, booking := range m.bookings.bookings {
			if booking.EventID == id {
				delete(m.bookings.bookings, bid)
			}
		}
	}
	return nil
}

type memoryBookings struct {
	events   *memoryEvents
	bookings map[string]domain.Booking
	seq      int
}

func (m *memoryBookings) Create(_ context.Context, userID, eventID string) (*domain.Booking, error) {
	event, ok := m.events.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	taken := 0
	for _, booking := range m.bookings {
		if booking.EventID == eventID {
			taken++
		}
	}
	if taken >= event.Capacity {
		return nil, domain.ErrEventFull
	}
	m.seq++
	booking := domain.Booking{ID: fmt.Sprintf("booking-%d", m.seq), UserID: userID, EventID: eventID, EventTitle: event.Title}
	m.bookings[booking.ID] = booking
	return &booking, nil
}

func (m *memoryBookings) Get(_ context.Context, id string) (*domain.Booking, error) {
	booking, ok := m.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &booking, nil
}

func (m *memoryBookings) ListByUser(_ context.Context, userID string) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, booking := range m.bookings {
		if booking.UserID == userID {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (m *memoryBookings) ListAll(context.Context) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0, len(m.bookings))
	for _, booking := range m.bookings {
		out = append(out, booking)
	}
	return out, nil
}

func (m *memoryBookings) Delete(_ context.Context, id string) error {
	if _, ok := m.bookings[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

func newMemoryCatalog() (*memoryEvents, *memoryBookings) {
	events := &memoryEvents{events: make(map[string]domain.Event)}
	bookings := &memoryBookings{events: events, bookings: make(map[string]domain.Booking)}
	events.bookings = bookings
	return events, bookings
}
