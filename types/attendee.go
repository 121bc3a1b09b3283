package types

import "time"

// Attendee represents a person registered for an event.
// Attendees need not hold user accounts; registration is open.
type Attendee struct {
	// ID is the unique identifier of the attendee.
	ID int64 `json:"id" db:"id"`

	// Name is the attendee's full name.
	Name string `json:"name" db:"name"`

	// Email is the attendee's contact email, stored lowercased.
	Email string `json:"email" db:"email"`

	// Phone is an optional contact number.
	Phone string `json:"phone,omitempty" db:"phone"`

	// EventID references the event the attendee registered for.
	EventID int64 `json:"eventId" db:"event_id"`

	// CreatedAt is the timestamp when the registration was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the registration.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
