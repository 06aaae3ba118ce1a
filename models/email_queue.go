package models

import "time"

// EmailStatus defines the lifecycle of a queued email. Transitions are
// monotonic: pending -> processing -> sent, or pending -> processing ->
// failed. Processing is the claim marker that keeps two overlapping
// drain passes from sending the same row twice. Sent and failed are
// terminal; there is no retry transition.
type EmailStatus string

const (
	EmailStatusPending    EmailStatus = "pending"
	EmailStatusProcessing EmailStatus = "processing"
	EmailStatusSent       EmailStatus = "sent"
	EmailStatusFailed     EmailStatus = "failed"
)

// EmailType identifies one stage of the post-assessment drip sequence.
type EmailType string

const (
	EmailTypePatternRecognition   EmailType = "pattern_recognition"
	EmailTypeEvidence7Day         EmailType = "evidence_7day"
	EmailTypeIntegrationThreshold EmailType = "integration_threshold"
	EmailTypeCompoundEffect       EmailType = "compound_effect"
	EmailTypeDirectInvitation     EmailType = "direct_invitation"
)

// EmailQueueItem is one scheduled message. RecipientEmail and
// RecipientName are snapshots taken at schedule time; later changes to
// the user record deliberately do not propagate to queued rows.
type EmailQueueItem struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	SessionID      string      `json:"session_id"`
	RecipientEmail string      `json:"recipient_email"`
	RecipientName  string      `json:"recipient_name"`
	EmailType      EmailType   `json:"email_type"`
	ScheduledFor   time.Time   `json:"scheduled_for"`
	Status         EmailStatus `json:"status"`
	SentAt         *time.Time  `json:"sent_at,omitempty"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
