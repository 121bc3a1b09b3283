package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventzen/apiserver/internal/store"
	"github.com/eventzen/apiserver/types"
)

type memUserRepo struct {
	byID map[string]types.User
}

func newMemUserRepo(users ...types.User) *memUserRepo {
	repo := &memUserRepo{byID: map[string]types.User{}}
	for _, user := range users {
		repo.byID[user.ID] = user
	}
	return repo
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (types.User, error) {
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range m.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUserRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.byID[id]
	return ok, nil
}

func (m *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range m.byID {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.byID[user.ID] = user
	return user, nil
}

type memAttendeeRepo struct {
	mu     sync.Mutex
	byID   map[int64]types.Attendee
	nextID int64
}

func newMemAttendeeRepo() *memAttendeeRepo {
	return &memAttendeeRepo{byID: map[int64]types.Attendee{}}
}

func (m *memAttendeeRepo) ListByEvent(_ context.Context, eventID int64) ([]types.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attendees := make([]types.Attendee, 0)
	for _, attendee := range m.byID {
		if attendee.EventID == eventID {
			attendees = append(attendees, attendee)
		}
	}
	sort.Slice(attendees, func(i, j int) bool { return attendees[i].ID < attendees[j].ID })
	return attendees, nil
}

func (m *memAttendeeRepo) Get(_ context.Context, id int64) (types.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attendee, ok := m.byID[id]; ok {
		return attendee, nil
	}
	return types.Attendee{}, store.ErrNotFound
}

func (m *memAttendeeRepo) Create(_ context.Context, attendee types.Attendee) (types.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	attendee.ID = m.nextID
	now := time.Now().UTC()
	attendee.CreatedAt = now
	attendee.UpdatedAt = now
	m.byID[attendee.ID] = attendee
	return attendee, nil
}

func (m *memAttendeeRepo) Update(_ context.Context, attendee types.Attendee) (types.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[attendee.ID]; !ok {
		return types.Attendee{}, store.ErrNotFound
	}
	attendee.UpdatedAt = time.Now().UTC()
	m.byID[attendee.ID] = attendee
	return attendee, nil
}

func (m *memAttendeeRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memAttendeeRepo) deleteByEvent(eventID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, attendee := range m.byID {
		if attendee.EventID == eventID {
			delete(m.byID, id)
		}
	}
}

// memEventRepo mimics the store's cascade: deleting an event removes its
// attendees from the linked attendee repo.
type memEventRepo struct {
	mu        sync.Mutex
	byID      map[int64]types.Event
	nextID    int64
	attendees *memAttendeeRepo
}

func newMemEventRepo(attendees *memAttendeeRepo) *memEventRepo {
	return &memEventRepo{byID: map[int64]types.Event{}, attendees: attendees}
}

func (m *memEventRepo) ListByOrganizer(_ context.Context, organizerID string) ([]types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]types.Event, 0)
	for _, event := range m.byID {
		if event.OrganizerID == organizerID {
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartDate.After(events[j].StartDate) })
	return events, nil
}

func (m *memEventRepo) GetForOrganizer(_ context.Context, id int64, organizerID string) (types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.byID[id]
	if !ok || event.OrganizerID != organizerID {
		return types.Event{}, store.ErrNotFound
	}
	return event, nil
}

func (m *memEventRepo) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok, nil
}

func (m *memEventRepo) ExistsForOrganizer(_ context.Context, id int64, organizerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.byID[id]
	return ok && event.OrganizerID == organizerID, nil
}

func (m *memEventRepo) Create(_ context.Context, event types.Event) (types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = m.nextID
	event.Version = 1
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	m.byID[event.ID] = event
	return event, nil
}

func (m *memEventRepo) Update(_ context.Context, event types.Event) (types.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[event.ID]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	if existing.Version != event.Version {
		return types.Event{}, store.ErrConflict
	}
	event.Version++
	event.UpdatedAt = time.Now().UTC()
	event.CreatedAt = existing.CreatedAt
	m.byID[event.ID] = event
	return event, nil
}

func (m *memEventRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	if _, ok := m.byID[id]; !ok {
		m.mu.Unlock()
		return store.ErrNotFound
	}
	delete(m.byID, id)
	m.mu.Unlock()
	if m.attendees != nil {
		m.attendees.deleteByEvent(id)
	}
	return nil
}

// recordingNotifier captures published notifications for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	channels []string
}

func (r *recordingNotifier) Publish(_ context.Context, channel string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, channel)
	return nil
}

func (r *recordingNotifier) published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.channels...)
}
