package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventzen/apiserver/types"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, start_date, end_date, location, budget, organizer_id, version, created_at, updated_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (types.Event, error) {
	var event types.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.StartDate,
		&event.EndDate,
		&event.Location,
		&event.Budget,
		&event.OrganizerID,
		&event.Version,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	return event, err
}

// ListByOrganizer returns all events owned by the organizer, most recent start first.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]types.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE organizer_id = $1
		ORDER BY start_date DESC`
	rows, err := r.db.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]types.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// GetForOrganizer loads an event only when it belongs to the given organizer.
// A mismatch is reported as ErrNotFound, same as a missing row.
func (r *EventRepository) GetForOrganizer(ctx context.Context, id int64, organizerID string) (types.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND organizer_id = $2`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id, organizerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Event{}, ErrNotFound
		}
		return types.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ExistsForOrganizer reports whether the event exists and is owned by the organizer.
func (r *EventRepository) ExistsForOrganizer(ctx context.Context, id int64, organizerID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1 AND organizer_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id, organizerID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *EventRepository) Create(ctx context.Context, event types.Event) (types.Event, error) {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.Version = 1

	const query = `
		INSERT INTO events (title, description, start_date, end_date, location, budget, organizer_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Location,
		event.Budget,
		event.OrganizerID,
		event.Version,
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID); err != nil {
		return types.Event{}, err
	}
	return event, nil
}

// Update overwrites the mutable fields of an event. The write only lands when
// the stored version still matches event.Version; a concurrent bump since the
// caller's read yields ErrConflict.
func (r *EventRepository) Update(ctx context.Context, event types.Event) (types.Event, error) {
	event.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE events
		SET title = $1,
			description = $2,
			start_date = $3,
			end_date = $4,
			location = $5,
			budget = $6,
			version = version + 1,
			updated_at = $7
		WHERE id = $8 AND version = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Location,
		event.Budget,
		event.UpdatedAt,
		event.ID,
		event.Version,
	)
	if err != nil {
		return types.Event{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Event{}, err
	}
	if affected == 0 {
		exists, err := r.Exists(ctx, event.ID)
		if err != nil {
			return types.Event{}, err
		}
		if exists {
			return types.Event{}, ErrConflict
		}
		return types.Event{}, ErrNotFound
	}

	event.Version++
	return event, nil
}

// Delete removes an event. Attendees and attachments cascade at the schema level.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM events WHERE id = $1`
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
