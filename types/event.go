package types

import "time"

// Event represents an organized event.
// It is owned by exactly one organizer, set at creation and never reassigned.
type Event struct {
	// ID is the unique identifier of the event.
	ID int64 `json:"id" db:"id"`

	// Title is the display title of the event.
	Title string `json:"title" db:"title"`

	// Description is an optional longer description.
	Description string `json:"description" db:"description"`

	// StartDate is the scheduled start time, stored in UTC.
	StartDate time.Time `json:"startDate" db:"start_date"`

	// EndDate is the scheduled end time, stored in UTC.
	EndDate time.Time `json:"endDate" db:"end_date"`

	// Location is the venue of the event.
	Location string `json:"location" db:"location"`

	// Budget is the allocated budget for the event. Never negative.
	Budget float64 `json:"budget" db:"budget"`

	// OrganizerID references the user who created the event.
	OrganizerID string `json:"organizerId" db:"organizer_id"`

	// Version is a counter bumped on every update, used for
	// optimistic concurrency control.
	Version int64 `json:"version" db:"version"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the event.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
