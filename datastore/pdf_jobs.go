package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/furtivegod/becomeyou/models"
)

type PdfJobRepository struct {
	db *sql.DB
}

func NewPdfJobRepository(db *sql.DB) *PdfJobRepository {
	return &PdfJobRepository{db: db}
}

func (r *PdfJobRepository) Create(ctx context.Context, job *models.PdfJob) error {
	query := `
		INSERT INTO pdf_jobs (id, session_id, status, artifact_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.SessionID, string(job.Status), job.ArtifactPath, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pdf job: %w", err)
	}
	return nil
}

func (r *PdfJobRepository) UpdateStatus(ctx context.Context, jobID string, status models.PdfJobStatus, artifactPath string) error {
	query := `
		UPDATE pdf_jobs
		SET status = $2, artifact_path = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, jobID, string(status), artifactPath)
	if err != nil {
		return fmt.Errorf("failed to update pdf job %s: %w", jobID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return fmt.Errorf("pdf job not found for status update: %w", sql.ErrNoRows)
	}
	return nil
}

// GetLatestBySession returns the newest pdf job for a session, or
// (nil, nil) when rendering has not been attempted yet.
func (r *PdfJobRepository) GetLatestBySession(ctx context.Context, sessionID string) (*models.PdfJob, error) {
	query := `
		SELECT id, session_id, status, artifact_path, created_at, updated_at
		FROM pdf_jobs
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var job models.PdfJob
	var statusStr string
	row := r.db.QueryRowContext(ctx, query, sessionID)
	err := row.Scan(&job.ID, &job.SessionID, &statusStr, &job.ArtifactPath, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pdf job for session %s: %w", sessionID, err)
	}
	job.Status = models.PdfJobStatus(statusStr)
	return &job, nil
}
