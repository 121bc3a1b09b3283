package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/eventzen/apiserver/internal/storage"
	"github.com/eventzen/apiserver/internal/store"
	"github.com/eventzen/apiserver/types"
)

// AttachmentRepository defines persistence operations for attachment metadata.
type AttachmentRepository interface {
	ListByEvent(ctx context.Context, eventID int64) ([]types.Attachment, error)
	Get(ctx context.Context, id int64) (types.Attachment, error)
	Create(ctx context.Context, attachment types.Attachment) (types.Attachment, error)
	Delete(ctx context.Context, id int64) error
}

// AttachmentService manages files attached to events. All operations are
// gated on event ownership; the event lookups use the same hidden-existence
// rule as EventService.Get.
type AttachmentService struct {
	repo    AttachmentRepository
	events  EventRepository
	objects *storage.Storage
	logger  *slog.Logger
}

func NewAttachmentService(repo AttachmentRepository, events EventRepository, objects *storage.Storage, logger *slog.Logger) *AttachmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttachmentService{
		repo:    repo,
		events:  events,
		objects: objects,
		logger:  logger,
	}
}

// Upload stores the file bytes in object storage and records the metadata.
func (s *AttachmentService) Upload(ctx context.Context, eventID int64, filename, contentType string, data []byte, callerID string) (types.Attachment, error) {
	if callerID == "" {
		return types.Attachment{}, store.ErrNotFound
	}
	event, err := s.events.GetForOrganizer(ctx, eventID, callerID)
	if err != nil {
		return types.Attachment{}, err
	}

	key := storage.AttachmentKey(event.ID, filename)
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Attachment{}, err
	}

	attachment, err := s.repo.Create(ctx, types.Attachment{
		EventID:     event.ID,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		ObjectKey:   key,
	})
	if err != nil {
		// The metadata insert failed, so the object is unreachable; try to
		// remove it rather than leave it stranded in the bucket.
		if cleanupErr := s.objects.Delete(ctx, key); cleanupErr != nil {
			s.logger.Error("failed to clean up orphaned attachment object", "key", key, "error", cleanupErr)
		}
		return types.Attachment{}, err
	}
	return attachment, nil
}

// List returns an event's attachment metadata to its organizer.
func (s *AttachmentService) List(ctx context.Context, eventID int64, callerID string) ([]types.Attachment, error) {
	if callerID == "" {
		return nil, store.ErrNotFound
	}
	event, err := s.events.GetForOrganizer(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, event.ID)
}

// Open returns an attachment's metadata and a reader over its bytes.
// The caller must close the reader.
func (s *AttachmentService) Open(ctx context.Context, id int64, callerID string) (types.Attachment, io.ReadCloser, error) {
	attachment, err := s.authorize(ctx, id, callerID)
	if err != nil {
		return types.Attachment{}, nil, err
	}
	reader, err := s.objects.Get(ctx, attachment.ObjectKey)
	if err != nil {
		return types.Attachment{}, nil, err
	}
	return attachment, reader, nil
}

// Delete removes an attachment's metadata and its stored object.
func (s *AttachmentService) Delete(ctx context.Context, id int64, callerID string) error {
	attachment, err := s.authorize(ctx, id, callerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, attachment.ID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, attachment.ObjectKey); err != nil {
		s.logger.Error("failed to delete attachment object", "key", attachment.ObjectKey, "error", err)
	}
	return nil
}

func (s *AttachmentService) authorize(ctx context.Context, id int64, callerID string) (types.Attachment, error) {
	attachment, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Attachment{}, err
	}
	if callerID == "" {
		return types.Attachment{}, ErrForbidden
	}
	owner, err := s.events.ExistsForOrganizer(ctx, attachment.EventID, callerID)
	if err != nil {
		return types.Attachment{}, err
	}
	if !owner {
		return types.Attachment{}, ErrForbidden
	}
	return attachment, nil
}
