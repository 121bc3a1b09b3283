package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventzen/apiserver/internal/services"
	"github.com/eventzen/apiserver/internal/store"
	"github.com/eventzen/apiserver/types"
)

const testJWTSecret = "handler-test-secret"

type memUserRepo struct {
	byID map[string]types.User
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

type memEventRepo struct {
	byID      map[int64]types.Event
	nextID    int64
	attendees *memAttendeeRepo
}

func (m *memEventRepo) ListByOrganizer(_ context.Context, organizerID string) ([]types.Event, error) {
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
	event, ok := m.byID[id]
	if !ok || event.OrganizerID != organizerID {
		return types.Event{}, store.ErrNotFound
	}
	return event, nil
}

func (m *memEventRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.byID[id]
	return ok, nil
}

func (m *memEventRepo) ExistsForOrganizer(_ context.Context, id int64, organizerID string) (bool, error) {
	event, ok := m.byID[id]
	return ok && event.OrganizerID == organizerID, nil
}

func (m *memEventRepo) Create(_ context.Context, event types.Event) (types.Event, error) {
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
	existing, ok := m.byID[event.ID]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	if existing.Version != event.Version {
		return types.Event{}, store.ErrConflict
	}
	event.Version++
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = time.Now().UTC()
	m.byID[event.ID] = event
	return event, nil
}

func (m *memEventRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	for attendeeID, attendee := range m.attendees.byID {
		if attendee.EventID == id {
			delete(m.attendees.byID, attendeeID)
		}
	}
	return nil
}

type memAttendeeRepo struct {
	byID   map[int64]types.Attendee
	nextID int64
}

func (m *memAttendeeRepo) ListByEvent(_ context.Context, eventID int64) ([]types.Attendee, error) {
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
	if attendee, ok := m.byID[id]; ok {
		return attendee, nil
	}
	return types.Attendee{}, store.ErrNotFound
}

func (m *memAttendeeRepo) Create(_ context.Context, attendee types.Attendee) (types.Attendee, error) {
	m.nextID++
	attendee.ID = m.nextID
	now := time.Now().UTC()
	attendee.CreatedAt = now
	attendee.UpdatedAt = now
	m.byID[attendee.ID] = attendee
	return attendee, nil
}

func (m *memAttendeeRepo) Update(_ context.Context, attendee types.Attendee) (types.Attendee, error) {
	if _, ok := m.byID[attendee.ID]; !ok {
		return types.Attendee{}, store.ErrNotFound
	}
	attendee.UpdatedAt = time.Now().UTC()
	m.byID[attendee.ID] = attendee
	return attendee, nil
}

func (m *memAttendeeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// testAPI mounts the full route tree over in-memory repositories.
type testAPI struct {
	router chi.Router
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	userRepo := &memUserRepo{byID: map[string]types.User{}}
	attendeeRepo := &memAttendeeRepo{byID: map[int64]types.Attendee{}}
	eventRepo := &memEventRepo{byID: map[int64]types.Event{}, attendees: attendeeRepo}

	validate := services.NewValidator()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userService := services.NewUserService(userRepo)
	eventService := services.NewEventService(eventRepo, userRepo, validate, nil, logger)
	attendeeService := services.NewAttendeeService(attendeeRepo, eventRepo, validate, nil, logger)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testJWTSecret, logger)
	})
	router.Route("/events", func(r chi.Router) {
		EventsRouter(r, eventService, nil, RequireAuth(testJWTSecret), logger)
	})
	router.Route("/attendees", func(r chi.Router) {
		AttendeesRouter(r, attendeeService, RequireAuth(testJWTSecret), logger)
	})

	return &testAPI{router: router}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	a.router.ServeHTTP(recorder, req)
	return recorder
}

// signup registers an organizer and returns a usable bearer token.
func (a *testAPI) signup(t *testing.T, email string) string {
	t.Helper()

	resp := a.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{
		Email:    email,
		Password: "s3cret-password",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("register %s: status %d, body %s", email, resp.Code, resp.Body)
	}

	resp = a.do(t, http.MethodPost, "/auth/login", "", LoginRequest{
		Email:    email,
		Password: "s3cret-password",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", email, resp.Code, resp.Body)
	}

	var login LoginResponse
	decodeBody(t, resp, &login)
	if login.Token == "" {
		t.Fatalf("login %s returned an empty token", email)
	}
	return login.Token
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body, err)
	}
}

func eventPayload(title string) map[string]any {
	return map[string]any{
		"title":     title,
		"startDate": "2026-09-01T09:00:00Z",
		"endDate":   "2026-09-01T18:00:00Z",
		"location":  "Berlin",
		"budget":    1500,
	}
}
