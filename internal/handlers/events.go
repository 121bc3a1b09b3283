package handlers

import (
	"log/slog"
	"net/http"

	"github.com/eventzen/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// EventHandler provides HTTP handlers for events.
type EventHandler struct {
	eventService *services.EventService
	logger       *slog.Logger
}

// NewEventHandler constructs a handler with the provided service.
func NewEventHandler(eventService *services.EventService, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// EventsRouter registers event routes on the given router. Every route
// requires an authenticated caller; attachment routes are mounted here too
// when attachments are configured.
func EventsRouter(
	r chi.Router,
	eventService *services.EventService,
	attachmentService *services.AttachmentService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewEventHandler(eventService, logger)

	r.Use(authMiddleware)
	r.Get("/", handler.ListEvents)
	r.Post("/", handler.CreateEvent)
	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", handler.GetEvent)
		r.Put("/", handler.UpdateEvent)
		r.Delete("/", handler.DeleteEvent)

		if attachmentService != nil {
			attachments := NewAttachmentHandler(attachmentService, logger)
			r.Post("/attachments", attachments.Upload)
			r.Get("/attachments", attachments.ListForEvent)
		}
	})
}

// ListEvents returns the caller's events, most recent start first.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListForOrganizer(r.Context(), callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.eventService.Get(r.Context(), id, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input services.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.eventService.Create(r.Context(), input, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var input services.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.eventService.Update(r.Context(), id, input, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.eventService.Delete(r.Context(), id, callerID(r.Context())); err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
