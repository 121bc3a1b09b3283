package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eventzen/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 8 << 20
	maxAttachmentBytes = 32 << 20
	formFieldFile      = "file"
)

// AttachmentHandler provides HTTP handlers for event attachments.
type AttachmentHandler struct {
	attachmentService *services.AttachmentService
	logger            *slog.Logger
}

// NewAttachmentHandler constructs a handler with the provided service.
func NewAttachmentHandler(attachmentService *services.AttachmentService, logger *slog.Logger) *AttachmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttachmentHandler{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// AttachmentsRouter registers the id-addressed attachment routes. Upload and
// per-event listing live under the events router.
func AttachmentsRouter(
	r chi.Router,
	attachmentService *services.AttachmentService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewAttachmentHandler(attachmentService, logger)

	r.Use(authMiddleware)
	r.Get("/{attachmentID}", handler.Download)
	r.Delete("/{attachmentID}", handler.Delete)
}

// Upload accepts a multipart form with a single "file" field.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filename, contentType, data, err := parseAttachmentForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachment, err := h.attachmentService.Upload(r.Context(), eventID, filename, contentType, data, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	writeJSON(w, http.StatusCreated, attachment)
}

// ListForEvent returns an event's attachment metadata.
func (h *AttachmentHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachments, err := h.attachmentService.List(r.Context(), eventID, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, attachments)
}

// Download streams the attachment bytes with the stored content type.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "attachmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	attachment, reader, err := h.attachmentService.Open(r.Context(), id, callerID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "attachment")
		return
	}
	defer reader.Close()

	if attachment.ContentType != "" {
		w.Header().Set("Content-Type", attachment.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("failed to stream attachment", "id", attachment.ID, "error", err)
	}
}

func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "attachmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.attachmentService.Delete(r.Context(), id, callerID(r.Context())); err != nil {
		writeServiceError(w, h.logger, err, "attachment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseAttachmentForm(r *http.Request) (filename, contentType string, data []byte, err error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return "", "", nil, errors.New("invalid multipart form")
	}
	if r.MultipartForm == nil {
		return "", "", nil, errors.New("missing form data")
	}

	files := r.MultipartForm.File[formFieldFile]
	if len(files) == 0 {
		return "", "", nil, errors.New("file is required")
	}
	if len(files) > 1 {
		return "", "", nil, errors.New("only one file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", "", nil, errors.New("failed to read upload")
	}

	data, err = readFileLimited(file, maxAttachmentBytes)
	_ = file.Close()
	if err != nil {
		return "", "", nil, err
	}

	return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
