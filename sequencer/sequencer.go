// Package sequencer owns the post-assessment email drip: scheduling a
// fixed set of delayed messages per completed session, and draining due
// messages when the external cron hits the tick endpoint.
package sequencer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/furtivegod/becomeyou/mailer"
	"github.com/furtivegod/becomeyou/metrics"
	"github.com/furtivegod/becomeyou/models"
	"github.com/furtivegod/becomeyou/webutil"
)

// dripSchedule fixes the five-stage sequence: one message per type,
// offset from the moment the session completes.
var dripSchedule = []struct {
	Type  models.EmailType
	After time.Duration
}{
	{models.EmailTypePatternRecognition, 48 * time.Hour},
	{models.EmailTypeEvidence7Day, 7 * 24 * time.Hour},
	{models.EmailTypeIntegrationThreshold, 14 * 24 * time.Hour},
	{models.EmailTypeCompoundEffect, 21 * 24 * time.Hour},
	{models.EmailTypeDirectInvitation, 30 * 24 * time.Hour},
}

// queueStore is the slice of the email queue repository the sequencer
// uses.
type queueStore interface {
	Insert(ctx context.Context, item *models.EmailQueueItem) (bool, error)
	ListDue(ctx context.Context, now time.Time) ([]models.EmailQueueItem, error)
	Claim(ctx context.Context, itemID string) (bool, error)
	MarkSent(ctx context.Context, itemID string, at time.Time) error
	MarkFailed(ctx context.Context, itemID string, at time.Time, errorMessage string) error
}

// planStore provides the best-effort personalization fetch.
type planStore interface {
	GetLatestBySession(ctx context.Context, sessionID string) (*models.PlanOutput, error)
}

// Result is the aggregate outcome of one drain pass.
type Result struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

type Sequencer struct {
	queue     queueStore
	plans     planStore
	messenger mailer.Messenger
	limiter   *rate.Limiter
	now       func() time.Time
	logger    *zap.Logger
}

func New(
	queue queueStore,
	plans planStore,
	messenger mailer.Messenger,
	limiter *rate.Limiter,
	logger *zap.Logger,
) *Sequencer {
	return &Sequencer{
		queue:     queue,
		plans:     plans,
		messenger: messenger,
		limiter:   limiter,
		now:       time.Now,
		logger:    logger,
	}
}

// Schedule inserts one pending queue row per drip stage, offset from
// the invocation instant. Recipient contact info is snapshotted into
// the rows. The (sessionId, emailType) upsert makes re-invocation for
// the same session safe; a storage error aborts the remaining inserts
// and propagates, so partial sequences are possible.
func (s *Sequencer) Schedule(ctx context.Context, userID, sessionID, recipientEmail, recipientName string) error {
	invokedAt := s.now().UTC()

	for _, stage := range dripSchedule {
		item := models.EmailQueueItem{
			ID:             uuid.NewString(),
			UserID:         userID,
			SessionID:      sessionID,
			RecipientEmail: recipientEmail,
			RecipientName:  recipientName,
			EmailType:      stage.Type,
			ScheduledFor:   invokedAt.Add(stage.After),
			Status:         models.EmailStatusPending,
			CreatedAt:      invokedAt,
		}
		inserted, err := s.queue.Insert(ctx, &item)
		if err != nil {
			return fmt.Errorf("failed to schedule %s email for session %s: %w", stage.Type, sessionID, err)
		}
		if !inserted {
			s.logger.Info("drip email already scheduled, skipping",
				zap.String("session_id", sessionID),
				zap.String("email_type", string(stage.Type)),
			)
			continue
		}
		metrics.EmailsScheduled.Inc()
	}

	s.logger.Info("drip sequence scheduled",
		zap.String("session_id", sessionID),
		zap.String("recipient", recipientEmail),
		zap.Int("stages", len(dripSchedule)),
	)
	return nil
}

// Drain processes every row that is due at the moment of invocation.
// Each row is claimed before sending so an overlapping drain pass can
// never double-send it, and one row's failure never aborts the pass.
// With nothing due, Drain is a no-op returning {0, 0}.
func (s *Sequencer) Drain(ctx context.Context) (Result, error) {
	metrics.DrainPasses.Inc()

	due, err := s.queue.ListDue(ctx, s.now().UTC())
	if err != nil {
		return Result{}, fmt.Errorf("failed to list due email queue items: %w", err)
	}

	var result Result
	for i := range due {
		item := &due[i]

		// The limiter wait happens before the claim so a context expiry
		// mid-pass leaves the remaining rows pending for the next cron
		// tick instead of stranding them in processing.
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				s.logger.Warn("drain stopped by context", zap.Error(err))
				return result, nil
			}
		}

		claimed, err := s.queue.Claim(ctx, item.ID)
		if err != nil {
			s.logger.Error("failed to claim queue item",
				zap.String("item_id", item.ID),
				zap.Error(err),
			)
			result.Errors++
			continue
		}
		if !claimed {
			// Another drain got there first.
			continue
		}

		if err := s.dispatch(ctx, item); err != nil {
			s.markFailed(ctx, item, err)
			result.Errors++
			continue
		}

		s.markSent(ctx, item)
		result.Processed++
	}

	s.logger.Info("queue drain complete",
		zap.Int("due", len(due)),
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// dispatch sends one claimed row. The plan fetch is best-effort: a
// missing or unreadable plan downgrades the message to generic copy,
// it never blocks delivery.
func (s *Sequencer) dispatch(ctx context.Context, item *models.EmailQueueItem) error {
	var doc *models.PlanDocument
	planOut, err := s.plans.GetLatestBySession(ctx, item.SessionID)
	if err != nil {
		s.logger.Warn("personalization fetch failed, sending generic copy",
			zap.String("session_id", item.SessionID),
			zap.Error(err),
		)
	} else if planOut != nil {
		doc = &planOut.Document
	}

	msg, err := mailer.DripMessage(item.EmailType, item.RecipientEmail, item.RecipientName, doc)
	if err != nil {
		return err
	}
	return s.messenger.Send(ctx, msg)
}

func (s *Sequencer) markSent(ctx context.Context, item *models.EmailQueueItem) {
	if err := s.queue.MarkSent(ctx, item.ID, s.now().UTC()); err != nil {
		s.logger.Error("failed to mark queue item sent",
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
		return
	}
	metrics.EmailsSent.Inc()
	s.logger.Info("drip email sent",
		zap.String("item_id", item.ID),
		zap.String("email_type", string(item.EmailType)),
		zap.String("recipient", item.RecipientEmail),
	)
}

func (s *Sequencer) markFailed(ctx context.Context, item *models.EmailQueueItem, cause error) {
	metrics.EmailFailures.Inc()
	s.logger.Error("drip email send failed",
		zap.String("item_id", item.ID),
		zap.String("email_type", string(item.EmailType)),
		zap.Error(cause),
	)
	if err := s.queue.MarkFailed(ctx, item.ID, s.now().UTC(), cause.Error()); err != nil {
		s.logger.Error("failed to mark queue item failed",
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
	}
}

// HandleDrain is the HTTP entry point hit by the external cron.
func (s *Sequencer) HandleDrain(w http.ResponseWriter, r *http.Request) error {
	result, err := s.Drain(r.Context())
	if err != nil {
		return webutil.ErrInternalServerWrap("queue drain failed", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, result)
	return nil
}
