package threads

import "time"

// Thread statuses. A thread starts open and can only move to closed.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Message directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Thread is one tracked conversation with a contact, scoped to an appointment type.
type Thread struct {
	ID              int64     `json:"id"`
	ContactID       int64     `json:"contact_id"`
	AppointmentType string    `json:"appointment_type"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// OpenThread is an open thread joined with its owning contact for display.
type OpenThread struct {
	ID              int64  `json:"thread_id"`
	ContactName     string `json:"contact_name"`
	ContactPhone    string `json:"contact_phone"`
	AppointmentType string `json:"appointment_type"`
}

// Message is a single immutable message row. ThreadID is nil when no open
// thread could be matched for an inbound message.
type Message struct {
	ID        int64     `json:"id"`
	ThreadID  *int64    `json:"thread_id,omitempty"`
	Direction string    `json:"direction"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
