package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/eventzen/apiserver/internal/store"
	"github.com/eventzen/apiserver/types"
	"github.com/go-playground/validator/v10"
)

// AttendeeRepository defines persistence operations for attendees.
type AttendeeRepository interface {
	ListByEvent(ctx context.Context, eventID int64) ([]types.Attendee, error)
	Get(ctx context.Context, id int64) (types.Attendee, error)
	Create(ctx context.Context, attendee types.Attendee) (types.Attendee, error)
	Update(ctx context.Context, attendee types.Attendee) (types.Attendee, error)
	Delete(ctx context.Context, id int64) error
}

// RegisterAttendeeInput is the payload for the open registration operation.
type RegisterAttendeeInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,min=7,max=20"`
	EventID int64  `json:"eventId" validate:"required,gt=0"`
}

// AttendeeInput is the payload for updating a registration.
// The event an attendee belongs to is immutable.
type AttendeeInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,min=7,max=20"`
}

func normalizeContact(name, email, phone string) (string, string, string) {
	return strings.TrimSpace(name),
		strings.ToLower(strings.TrimSpace(email)),
		strings.TrimSpace(phone)
}

// AttendeeService enforces ownership for attendee management while keeping
// registration itself open to any caller.
type AttendeeService struct {
	repo     AttendeeRepository
	events   EventRepository
	validate *validator.Validate
	notifier Notifier
	logger   *slog.Logger
}

func NewAttendeeService(repo AttendeeRepository, events EventRepository, validate *validator.Validate, notifier Notifier, logger *slog.Logger) *AttendeeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendeeService{
		repo:     repo,
		events:   events,
		validate: validate,
		notifier: notifier,
		logger:   logger,
	}
}

// ListForEvent returns an event's attendees to its organizer. Unlike the
// event lookups, a non-owner gets ErrForbidden here; this path does not hide
// the event's existence.
func (s *AttendeeService) ListForEvent(ctx context.Context, eventID int64, callerID string) ([]types.Attendee, error) {
	if err := s.requireOrganizer(ctx, eventID, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID)
}

// Get returns a single registration to the organizer of its parent event.
func (s *AttendeeService) Get(ctx context.Context, id int64, callerID string) (types.Attendee, error) {
	attendee, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Attendee{}, err
	}
	if err := s.requireOrganizer(ctx, attendee.EventID, callerID); err != nil {
		return types.Attendee{}, err
	}
	return attendee, nil
}

// Register creates a registration for any caller, anonymous included.
// Registration is the public-facing action of the system and carries no
// ownership gate; the target event must exist.
func (s *AttendeeService) Register(ctx context.Context, input RegisterAttendeeInput) (types.Attendee, error) {
	input.Name, input.Email, input.Phone = normalizeContact(input.Name, input.Email, input.Phone)
	if err := checkStruct(s.validate, input); err != nil {
		return types.Attendee{}, err
	}

	exists, err := s.events.Exists(ctx, input.EventID)
	if err != nil {
		return types.Attendee{}, err
	}
	if !exists {
		return types.Attendee{}, store.ErrNotFound
	}

	attendee, err := s.repo.Create(ctx, types.Attendee{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		EventID: input.EventID,
	})
	if err != nil {
		return types.Attendee{}, err
	}

	publish(ctx, s.logger, s.notifier, ChannelAttendeeRegistered, attendee)
	return attendee, nil
}

// Update overwrites a registration's contact fields on behalf of the
// organizer of its parent event.
func (s *AttendeeService) Update(ctx context.Context, id int64, input AttendeeInput, callerID string) (types.Attendee, error) {
	attendee, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Attendee{}, err
	}
	if err := s.requireOrganizer(ctx, attendee.EventID, callerID); err != nil {
		return types.Attendee{}, err
	}

	input.Name, input.Email, input.Phone = normalizeContact(input.Name, input.Email, input.Phone)
	if err := checkStruct(s.validate, input); err != nil {
		return types.Attendee{}, err
	}

	attendee.Name = input.Name
	attendee.Email = input.Email
	attendee.Phone = input.Phone

	return s.repo.Update(ctx, attendee)
}

// Delete removes a registration on behalf of the organizer of its parent event.
func (s *AttendeeService) Delete(ctx context.Context, id int64, callerID string) error {
	attendee, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOrganizer(ctx, attendee.EventID, callerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, attendee.ID)
}

func (s *AttendeeService) requireOrganizer(ctx context.Context, eventID int64, callerID string) error {
	if callerID == "" {
		return ErrForbidden
	}
	owner, err := s.events.ExistsForOrganizer(ctx, eventID, callerID)
	if err != nil {
		return err
	}
	if !owner {
		return ErrForbidden
	}
	return nil
}
