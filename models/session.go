package models

import "time"

// SessionStatus defines the set of allowed statuses for a Session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is one assessment run for a user. A session is always created
// fresh per purchase webhook; it is never reused across orders.
type Session struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
}
