package routehandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furtivegod/becomeyou/completion"
	"github.com/furtivegod/becomeyou/mailer"
	"github.com/furtivegod/becomeyou/models"
	"github.com/furtivegod/becomeyou/plan"
	"github.com/furtivegod/becomeyou/token"
	"github.com/furtivegod/becomeyou/webutil"
)

const (
	// completionMarker is the closing token the chat directive asks the
	// assistant to emit once the assessment has covered enough ground.
	completionMarker = "[ASSESSMENT_COMPLETE]"

	// maxAssistantTurns hard-caps the conversation so a session always
	// reaches completion even if the model never emits the marker.
	maxAssistantTurns = 20
)

const chatDirective = `You are a warm, incisive behavioral assessment interviewer.
Ask one focused question per turn about the client's recurring patterns, what triggers
them, and what they cost. Keep replies under 120 words. After you have enough material
to map their core patterns (usually 12-18 questions), close with a short summary and
append the exact marker ` + completionMarker + ` at the end of that final message.`

// The chat handler depends on narrow slices of its collaborators so
// the finalize pipeline can be exercised against in-memory fakes.
type chatSessionStore interface {
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateStatus(ctx context.Context, sessionID string, status models.SessionStatus) error
}

type chatMessageStore interface {
	Append(ctx context.Context, msg *models.Message) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Message, error)
	CountBySessionAndRole(ctx context.Context, sessionID string, role models.MessageRole) (int, error)
}

type chatUserStore interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

type chatPlanStore interface {
	Create(ctx context.Context, plan *models.PlanOutput) error
}

type planRenderer interface {
	RenderPlan(ctx context.Context, sessionID string, doc *models.PlanDocument) (string, error)
}

type dripScheduler interface {
	Schedule(ctx context.Context, userID, sessionID, recipientEmail, recipientName string) error
}

// ChatHandler runs the assessment conversation and, on completion,
// drives the whole downstream pipeline: plan synthesis, PDF rendering,
// the report-ready email, and drip scheduling.
type ChatHandler struct {
	sessions    chatSessionStore
	messages    chatMessageStore
	users       chatUserStore
	plans       chatPlanStore
	completer   plan.Completer
	synthesizer *plan.Synthesizer
	renderer    planRenderer
	messenger   mailer.Messenger
	scheduler   dripScheduler
	signer      *token.Signer
	logger      *zap.Logger
}

func NewChatHandler(
	sessions chatSessionStore,
	messages chatMessageStore,
	users chatUserStore,
	plans chatPlanStore,
	completer plan.Completer,
	synthesizer *plan.Synthesizer,
	renderer planRenderer,
	messenger mailer.Messenger,
	scheduler dripScheduler,
	signer *token.Signer,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		sessions:    sessions,
		messages:    messages,
		users:       users,
		plans:       plans,
		completer:   completer,
		synthesizer: synthesizer,
		renderer:    renderer,
		messenger:   messenger,
		scheduler:   scheduler,
		signer:      signer,
		logger:      logger,
	}
}

// HandleMessage appends one user turn, fetches the assistant's next
// question, and finalizes the session when the completion heuristic
// fires. Everything downstream of "the session exists" degrades
// gracefully rather than failing the request.
func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) error {
	sessionID := chi.URLParam(r, "id")

	email, err := VerifyRequestToken(h.signer, r, sessionID)
	if err != nil {
		return webutil.ErrUnauthorized("invalid or expired access token")
	}

	session, err := h.sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if session.Status == models.SessionStatusCompleted {
		return webutil.ErrBadRequest("assessment already completed")
	}

	var requestData struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()
	if strings.TrimSpace(requestData.Content) == "" {
		return webutil.ErrBadRequest("content is required")
	}

	ctx := r.Context()
	now := time.Now().UTC()
	userMsg := models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   requestData.Content,
		CreatedAt: now,
	}
	if err := h.messages.Append(ctx, &userMsg); err != nil {
		return fmt.Errorf("failed to store user message: %w", err)
	}

	transcript, err := h.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load transcript: %w", err)
	}

	reply, err := h.completer.Complete(ctx, chatDirective, toCompletionMessages(transcript))
	if err != nil {
		return fmt.Errorf("completion call failed: %w", err)
	}

	assistantMsg := models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.messages.Append(ctx, &assistantMsg); err != nil {
		h.logger.Warn("failed to store assistant message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	done := strings.Contains(reply, completionMarker)
	if !done {
		assistantTurns, err := h.messages.CountBySessionAndRole(ctx, sessionID, models.RoleAssistant)
		if err != nil {
			h.logger.Warn("failed to count assistant turns", zap.Error(err))
		}
		done = assistantTurns >= maxAssistantTurns
	}

	if done {
		h.finalizeSession(ctx, session, email, append(transcript, assistantMsg))
	}

	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"reply": strings.TrimSpace(strings.ReplaceAll(reply, completionMarker, "")),
		"done":  done,
	})
	return nil
}

// finalizeSession runs the completion pipeline. Each step logs and
// continues on failure: the user already got their terminal chat
// response, and partial output (e.g. a plan without a PDF) is better
// than none.
func (h *ChatHandler) finalizeSession(ctx context.Context, session *models.Session, email string, transcript []models.Message) {
	if err := h.sessions.UpdateStatus(ctx, session.ID, models.SessionStatusCompleted); err != nil {
		h.logger.Error("failed to mark session completed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}

	doc := h.synthesizer.Synthesize(ctx, toCompletionMessages(transcript))

	planOut := models.PlanOutput{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Document:  *doc,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.plans.Create(ctx, &planOut); err != nil {
		h.logger.Error("failed to store plan output",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}

	reportURL, err := h.renderer.RenderPlan(ctx, session.ID, doc)
	if err != nil {
		h.logger.Error("pdf render pipeline failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}

	recipientName := ""
	if user, err := h.users.GetByID(ctx, session.UserID); err == nil {
		recipientName = user.Name
	}

	if reportURL != "" {
		msg, err := mailer.ReportReadyMessage(email, recipientName, reportURL, doc)
		if err == nil {
			err = h.messenger.Send(ctx, msg)
		}
		if err != nil {
			h.logger.Error("report ready email failed",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	if err := h.scheduler.Schedule(ctx, session.UserID, session.ID, email, recipientName); err != nil {
		h.logger.Error("drip scheduling failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
	}
}

func toCompletionMessages(transcript []models.Message) []completion.Message {
	msgs := make([]completion.Message, 0, len(transcript))
	for _, m := range transcript {
		msgs = append(msgs, completion.Message{Role: string(m.Role), Content: m.Content})
	}
	return msgs
}

// VerifyRequestToken extracts the access token from the query string
// or Authorization header and verifies it against the session.
func VerifyRequestToken(signer *token.Signer, r *http.Request, sessionID string) (string, error) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		auth := r.Header.Get("Authorization")
		tok = strings.TrimPrefix(auth, "Bearer ")
	}
	if tok == "" {
		return "", token.ErrMalformed
	}
	return signer.Verify(tok, sessionID)
}
