package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eventzen/apiserver/types"
)

// AttendeeRepository handles persistence for attendee registrations.
type AttendeeRepository struct {
	db *sql.DB
}

func NewAttendeeRepository(db *sql.DB) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

const attendeeColumns = `id, name, email, phone, event_id, created_at, updated_at`

func scanAttendee(row interface{ Scan(dest ...any) error }) (types.Attendee, error) {
	var attendee types.Attendee
	var phone sql.NullString
	err := row.Scan(
		&attendee.ID,
		&attendee.Name,
		&attendee.Email,
		&phone,
		&attendee.EventID,
		&attendee.CreatedAt,
		&attendee.UpdatedAt,
	)
	attendee.Phone = phone.String
	return attendee, err
}

func nullablePhone(phone string) sql.NullString {
	return sql.NullString{String: phone, Valid: phone != ""}
}

// ListByEvent returns the attendees of an event in registration order.
func (r *AttendeeRepository) ListByEvent(ctx context.Context, eventID int64) ([]types.Attendee, error) {
	const query = `
		SELECT ` + attendeeColumns + `
		FROM attendees
		WHERE event_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]types.Attendee, 0)
	for rows.Next() {
		attendee, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attendees, nil
}

func (r *AttendeeRepository) Get(ctx context.Context, id int64) (types.Attendee, error) {
	const query = `
		SELECT ` + attendeeColumns + `
		FROM attendees
		WHERE id = $1`
	attendee, err := scanAttendee(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Attendee{}, ErrNotFound
		}
		return types.Attendee{}, err
	}
	return attendee, nil
}

func (r *AttendeeRepository) Create(ctx context.Context, attendee types.Attendee) (types.Attendee, error) {
	now := time.Now().UTC()
	attendee.CreatedAt = now
	attendee.UpdatedAt = now

	const query = `
		INSERT INTO attendees (name, email, phone, event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		attendee.Name,
		attendee.Email,
		nullablePhone(attendee.Phone),
		attendee.EventID,
		attendee.CreatedAt,
		attendee.UpdatedAt,
	).Scan(&attendee.ID); err != nil {
		return types.Attendee{}, err
	}
	return attendee, nil
}

func (r *AttendeeRepository) Update(ctx context.Context, attendee types.Attendee) (types.Attendee, error) {
	attendee.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE attendees
		SET name = $1,
			email = $2,
			phone = $3,
			updated_at = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(
		ctx,
		query,
		attendee.Name,
		attendee.Email,
		nullablePhone(attendee.Phone),
		attendee.UpdatedAt,
		attendee.ID,
	)
	if err != nil {
		return types.Attendee{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Attendee{}, err
	}
	if affected == 0 {
		return types.Attendee{}, ErrNotFound
	}
	return attendee, nil
}

func (r *AttendeeRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM attendees WHERE id = $1`
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
