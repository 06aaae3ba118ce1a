package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/furtivegod/becomeyou/models"
)

type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, plan *models.PlanOutput) error {
	docJSON, err := json.Marshal(plan.Document)
	if err != nil {
		return fmt.Errorf("failed to marshal plan document: %w", err)
	}
	query := `
		INSERT INTO plan_outputs (id, session_id, document, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = r.db.ExecContext(ctx, query, plan.ID, plan.SessionID, docJSON, plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan output: %w", err)
	}
	return nil
}

// GetLatestBySession returns the newest plan for a session, or
// (nil, nil) when none exists. Absence is not an error here: drip
// personalization treats the plan as an optional enrichment.
func (r *PlanRepository) GetLatestBySession(ctx context.Context, sessionID string) (*models.PlanOutput, error) {
	query := `
		SELECT id, session_id, document, created_at
		FROM plan_outputs
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var plan models.PlanOutput
	var docJSON []byte
	row := r.db.QueryRowContext(ctx, query, sessionID)
	err := row.Scan(&plan.ID, &plan.SessionID, &docJSON, &plan.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest plan for session %s: %w", sessionID, err)
	}
	if err := json.Unmarshal(docJSON, &plan.Document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan document for session %s: %w", sessionID, err)
	}
	return &plan, nil
}
