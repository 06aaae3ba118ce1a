package models

import "time"

// PdfJobStatus defines the set of allowed statuses for a PdfJob.
type PdfJobStatus string

const (
	PdfJobStatusPending    PdfJobStatus = "pending"
	PdfJobStatusProcessing PdfJobStatus = "processing"
	PdfJobStatusDone       PdfJobStatus = "done"
	PdfJobStatusFailed     PdfJobStatus = "failed"
)

// PdfJob tracks rendering of a session's plan into a PDF artifact.
// ArtifactPath is the stored file's blob-relative path once the job is
// done; retrieval URLs are short-lived and minted fresh per request,
// never persisted.
type PdfJob struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"session_id"`
	Status       PdfJobStatus `json:"status"`
	ArtifactPath string       `json:"artifact_path,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
