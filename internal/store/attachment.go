package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventzen/apiserver/types"
)

// AttachmentRepository handles persistence for attachment metadata.
type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

const attachmentColumns = `id, event_id, filename, content_type, size_bytes, object_key, created_at`

func scanAttachment(row interface{ Scan(dest ...any) error }) (types.Attachment, error) {
	var attachment types.Attachment
	err := row.Scan(
		&attachment.ID,
		&attachment.EventID,
		&attachment.Filename,
		&attachment.ContentType,
		&attachment.Size,
		&attachment.ObjectKey,
		&attachment.CreatedAt,
	)
	return attachment, err
}

func (r *AttachmentRepository) ListByEvent(ctx context.Context, eventID int64) ([]types.Attachment, error) {
	const query = `
		SELECT ` + attachmentColumns + `
		FROM event_attachments
		WHERE event_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]types.Attachment, 0)
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, attachment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attachments, nil
}

func (r *AttachmentRepository) Get(ctx context.Context, id int64) (types.Attachment, error) {
	const query = `
		SELECT ` + attachmentColumns + `
		FROM event_attachments
		WHERE id = $1`
	attachment, err := scanAttachment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Attachment{}, ErrNotFound
		}
		return types.Attachment{}, err
	}
	return attachment, nil
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment types.Attachment) (types.Attachment, error) {
	attachment.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO event_attachments (event_id, filename, content_type, size_bytes, object_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		attachment.EventID,
		attachment.Filename,
		attachment.ContentType,
		attachment.Size,
		attachment.ObjectKey,
		attachment.CreatedAt,
	).Scan(&attachment.ID); err != nil {
		return types.Attachment{}, err
	}
	return attachment, nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM event_attachments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
