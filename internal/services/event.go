package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/eventzen/apiserver/internal/store"
	"github.com/eventzen/apiserver/types"
	"github.com/go-playground/validator/v10"
)

// EventRepository defines persistence operations for events.
type EventRepository interface {
	ListByOrganizer(ctx context.Context, organizerID string) ([]types.Event, error)
	GetForOrganizer(ctx context.Context, id int64, organizerID string) (types.Event, error)
	Exists(ctx context.Context, id int64) (bool, error)
	ExistsForOrganizer(ctx context.Context, id int64, organizerID string) (bool, error)
	Create(ctx context.Context, event types.Event) (types.Event, error)
	Update(ctx context.Context, event types.Event) (types.Event, error)
	Delete(ctx context.Context, id int64) error
}

// EventInput is the payload for creating or updating an event.
type EventInput struct {
	Title       string    `json:"title" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=500"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Location    string    `json:"location" validate:"required,max=100"`
	Budget      float64   `json:"budget" validate:"gte=0"`

	// Version echoes the version of the record the client last read.
	// Zero means the client opted out of the staleness check.
	Version int64 `json:"version,omitempty"`
}

func (in *EventInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.StartDate = in.StartDate.UTC()
	in.EndDate = in.EndDate.UTC()
}

// EventService enforces ownership and validation for event operations.
// Every operation takes the caller's user id; "" means anonymous.
type EventService struct {
	repo     EventRepository
	users    UserRepository
	validate *validator.Validate
	notifier Notifier
	logger   *slog.Logger
}

func NewEventService(repo EventRepository, users UserRepository, validate *validator.Validate, notifier Notifier, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		repo:     repo,
		users:    users,
		validate: validate,
		notifier: notifier,
		logger:   logger,
	}
}

// ListForOrganizer returns the caller's events, most recent start first.
// An anonymous caller owns nothing and gets an empty list, not an error.
func (s *EventService) ListForOrganizer(ctx context.Context, callerID string) ([]types.Event, error) {
	if callerID == "" {
		return []types.Event{}, nil
	}
	return s.repo.ListByOrganizer(ctx, callerID)
}

// Get returns the event only when the caller is its organizer. An ownership
// mismatch is indistinguishable from a missing event, so the existence of
// other organizers' events never leaks.
func (s *EventService) Get(ctx context.Context, id int64, callerID string) (types.Event, error) {
	if callerID == "" {
		return types.Event{}, store.ErrNotFound
	}
	return s.repo.GetForOrganizer(ctx, id, callerID)
}

// Create validates the payload and persists a new event owned by the caller.
func (s *EventService) Create(ctx context.Context, input EventInput, callerID string) (types.Event, error) {
	if callerID == "" {
		return types.Event{}, ErrUnauthorized
	}
	exists, err := s.users.Exists(ctx, callerID)
	if err != nil {
		return types.Event{}, err
	}
	if !exists {
		return types.Event{}, ErrUnauthorized
	}

	input.normalize()
	if err := s.checkInput(input); err != nil {
		return types.Event{}, err
	}

	event, err := s.repo.Create(ctx, types.Event{
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Location:    input.Location,
		Budget:      input.Budget,
		OrganizerID: callerID,
	})
	if err != nil {
		return types.Event{}, err
	}

	publish(ctx, s.logger, s.notifier, ChannelEventCreated, event)
	return event, nil
}

// Update overwrites all mutable fields of an event owned by the caller.
// A stale version in the payload, or a concurrent write between the read and
// the write here, yields store.ErrConflict.
func (s *EventService) Update(ctx context.Context, id int64, input EventInput, callerID string) (types.Event, error) {
	if callerID == "" {
		return types.Event{}, store.ErrNotFound
	}
	existing, err := s.repo.GetForOrganizer(ctx, id, callerID)
	if err != nil {
		return types.Event{}, err
	}

	input.normalize()
	if err := s.checkInput(input); err != nil {
		return types.Event{}, err
	}
	if input.Version != 0 && input.Version != existing.Version {
		return types.Event{}, store.ErrConflict
	}

	existing.Title = input.Title
	existing.Description = input.Description
	existing.StartDate = input.StartDate
	existing.EndDate = input.EndDate
	existing.Location = input.Location
	existing.Budget = input.Budget

	return s.repo.Update(ctx, existing)
}

// Delete removes an event owned by the caller. Attendees and attachments are
// removed by the store's cascade. A repeated delete yields store.ErrNotFound.
func (s *EventService) Delete(ctx context.Context, id int64, callerID string) error {
	if callerID == "" {
		return store.ErrNotFound
	}
	event, err := s.repo.GetForOrganizer(ctx, id, callerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, event.ID); err != nil {
		return err
	}

	publish(ctx, s.logger, s.notifier, ChannelEventDeleted, event)
	return nil
}

func (s *EventService) checkInput(input EventInput) error {
	if err := checkStruct(s.validate, input); err != nil {
		return err
	}
	if input.EndDate.Before(input.StartDate) {
		return newValidationError("endDate", "must not be before startDate")
	}
	return nil
}
