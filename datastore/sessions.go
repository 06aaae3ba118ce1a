package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/furtivegod/becomeyou/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row. There is no uniqueness guard per
// order or user: every call produces a fresh session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, status, started_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, string(session.Status), session.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, status, started_at
		FROM sessions
		WHERE id = $1
	`
	var session models.Session
	var statusStr string
	row := r.db.QueryRowContext(ctx, query, sessionID)
	err := row.Scan(&session.ID, &session.UserID, &statusStr, &session.StartedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get session by ID: %w", err)
	}
	session.Status = models.SessionStatus(statusStr)
	return &session, nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID string, status models.SessionStatus) error {
	query := `
		UPDATE sessions
		SET status = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, sessionID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update session status for ID %s: %w", sessionID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected == 0 {
		return fmt.Errorf("session not found for status update: %w", sql.ErrNoRows)
	}
	return nil
}
