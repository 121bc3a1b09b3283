package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eventzen/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// AttendeeHandler provides HTTP handlers for attendee registrations.
type AttendeeHandler struct {
	attendeeService *services.AttendeeService
	logger          *slog.Logger
}

// NewAttendeeHandler constructs a handler with the provided service.
func NewAttendeeHandler(attendeeService *services.AttendeeService, logger *slog.Logger) *AttendeeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendeeHandler{
		attendeeService: attendeeService,
		logger:          logger,
	}
}

// AttendeesRouter registers attendee routes on the given router.
// Registration stays outside the auth middleware: anyone may register.
func AttendeesRouter(
	r chi.Router,
	attendeeService *services.AttendeeService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewAttendeeHandler(attendeeService, logger)

	r.Post("/register", handler.RegisterAttendee)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/event/{eventID}", handler.ListEventAttendees)
		r.Route("/{attendeeID}", func(r chi.Router) {
			r.Get("/", handler.GetAttendee)
			r.Put("/", handler.UpdateAttendee)
			r.Delete("/", handler.DeleteAttendee)
		})
	})
}

// ListEventAttendees returns the attendees of an event to its organizer.
func (h *AttendeeHandler) ListEventAttendees(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attendees, err := h.attendeeService.ListForEvent(r.Context(), eventID, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}

func (h *AttendeeHandler) GetAttendee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "attendeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attendee, err := h.attendeeService.Get(r.Context(), id, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "attendee")
		return
	}
	writeJSON(w, http.StatusOK, attendee)
}

// RegisterAttendee creates a registration. No authentication: registration
// is the public-facing action of the system.
func (h *AttendeeHandler) RegisterAttendee(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterAttendeeInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attendee, err := h.attendeeService.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, attendee)
}

func (h *AttendeeHandler) UpdateAttendee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "attendeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input services.AttendeeInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.attendeeService.Update(r.Context(), id, input, callerID(r.Context())); err != nil {
		writeServiceError(w, h.logger, err, "attendee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AttendeeHandler) DeleteAttendee(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "attendeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.attendeeService.Delete(r.Context(), id, callerID(r.Context())); err != nil {
		writeServiceError(w, h.logger, err, "attendee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
