package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/furtivegod/becomeyou/models"
)

type EmailQueueRepository struct {
	db *sql.DB
}

func NewEmailQueueRepository(db *sql.DB) *EmailQueueRepository {
	return &EmailQueueRepository{db: db}
}

// Insert schedules one message. The (session_id, email_type) pair acts
// as an idempotency key: re-running the scheduler for a session leaves
// existing rows untouched. Returns whether a new row was written.
func (r *EmailQueueRepository) Insert(ctx context.Context, item *models.EmailQueueItem) (bool, error) {
	query := `
		INSERT INTO email_queue (
			id, user_id, session_id, recipient_email, recipient_name,
			email_type, scheduled_for, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id, email_type) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.SessionID, item.RecipientEmail, item.RecipientName,
		string(item.EmailType), item.ScheduledFor, string(item.Status), item.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert email queue item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for queue insert: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListDue returns every pending row whose scheduled_for is at or before
// now, oldest first. Rows scheduled in the future are never returned.
func (r *EmailQueueRepository) ListDue(ctx context.Context, now time.Time) ([]models.EmailQueueItem, error) {
	query := `
		SELECT id, user_id, session_id, recipient_email, recipient_name,
		       email_type, scheduled_for, status, sent_at, error_message, created_at
		FROM email_queue
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for ASC
	`
	rows, err := r.db.QueryContext(ctx, query, string(models.EmailStatusPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due email queue items: %w", err)
	}
	defer rows.Close()

	var items []models.EmailQueueItem
	for rows.Next() {
		var item models.EmailQueueItem
		var typeStr, statusStr string
		var sentAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.SessionID, &item.RecipientEmail, &item.RecipientName,
			&typeStr, &item.ScheduledFor, &statusStr, &sentAt, &errMsg, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan email queue row: %w", err)
		}
		item.EmailType = models.EmailType(typeStr)
		item.Status = models.EmailStatus(statusStr)
		if sentAt.Valid {
			t := sentAt.Time
			item.SentAt = &t
		}
		item.ErrorMessage = errMsg.String
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating email queue rows: %w", err)
	}
	return items, nil
}

// Claim conditionally advances a row from pending to processing.
// The WHERE clause on the old status means exactly one of any number of
// concurrent drains wins the row; the rest see claimed == false.
func (r *EmailQueueRepository) Claim(ctx context.Context, itemID string) (bool, error) {
	query := `
		UPDATE email_queue
		SET status = $2
		WHERE id = $1 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query,
		itemID, string(models.EmailStatusProcessing), string(models.EmailStatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim email queue item %s: %w", itemID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for claim: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkSent records the terminal success transition.
func (r *EmailQueueRepository) MarkSent(ctx context.Context, itemID string, at time.Time) error {
	query := `
		UPDATE email_queue
		SET status = $2, sent_at = $3
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, itemID, string(models.EmailStatusSent), at)
	if err != nil {
		return fmt.Errorf("failed to mark email queue item %s sent: %w", itemID, err)
	}
	return nil
}

// MarkFailed records the terminal failure transition. SentAt is set for
// failures too; it marks when the terminal transition happened.
func (r *EmailQueueRepository) MarkFailed(ctx context.Context, itemID string, at time.Time, errorMessage string) error {
	query := `
		UPDATE email_queue
		SET status = $2, sent_at = $3, error_message = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, itemID, string(models.EmailStatusFailed), at, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to mark email queue item %s failed: %w", itemID, err)
	}
	return nil
}
