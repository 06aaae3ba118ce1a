// Package webhooks receives purchase notifications from the payment
// provider and walks them through user, order and session resolution,
// magic-link issuance, and the access email.
package webhooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/furtivegod/becomeyou/datastore"
	"github.com/furtivegod/becomeyou/mailer"
	"github.com/furtivegod/becomeyou/models"
	"github.com/furtivegod/becomeyou/token"
	"github.com/furtivegod/becomeyou/webutil"
)

const maxWebhookBody = 1 << 20

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateName(ctx context.Context, userID, name string) error
}

type orderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByProviderRef(ctx context.Context, providerRef string) (*models.Order, error)
}

type sessionStore interface {
	Create(ctx context.Context, session *models.Session) error
}

type PurchaseHandler struct {
	secret    string
	baseURL   string
	users     userStore
	orders    orderStore
	sessions  sessionStore
	signer    *token.Signer
	messenger mailer.Messenger
	logger    *zap.Logger
}

func NewPurchaseHandler(
	secret string,
	baseURL string,
	users userStore,
	orders orderStore,
	sessions sessionStore,
	signer *token.Signer,
	messenger mailer.Messenger,
	logger *zap.Logger,
) *PurchaseHandler {
	return &PurchaseHandler{
		secret:    secret,
		baseURL:   baseURL,
		users:     users,
		orders:    orders,
		sessions:  sessions,
		signer:    signer,
		messenger: messenger,
		logger:    logger,
	}
}

type purchasePayload struct {
	Customer struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	Order struct {
		ID json.Number `json:"id"`
	} `json:"order"`
	Products []struct {
		Status string `json:"status"`
	} `json:"products"`
}

type purchaseResponse struct {
	Verified   bool          `json:"verified"`
	Emailed    bool          `json:"emailed"`
	User       *models.User  `json:"user,omitempty"`
	Order      *models.Order `json:"order,omitempty"`
	SessionID  string        `json:"session_id,omitempty"`
	MagicLink  string        `json:"magic_link,omitempty"`
	EmailError string        `json:"email_error,omitempty"`
}

// HandlePurchase verifies and processes one provider webhook delivery.
// Non-charged events are acknowledged with a neutral 200 so the
// provider stops retrying them; only unrecoverable store errors on the
// user/order/session resolution path produce a non-2xx response.
func (h *PurchaseHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return webutil.ErrBadRequestWrap("failed to read webhook body", err)
	}
	defer r.Body.Close()

	if err := VerifySignature(h.secret, r.Header.Get(SignatureHeader), body); err != nil {
		return webutil.ErrUnauthorized("webhook signature verification failed")
	}

	var payload purchasePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return webutil.ErrBadRequestWrap("malformed webhook payload", err)
	}

	if !hasChargedProduct(payload) {
		// Deliberate filter, not a failure: refunds, pending charges
		// and the like get a neutral acknowledgement.
		h.logger.Info("webhook ignored: no charged product in payload")
		webutil.RespondWithJSON(w, http.StatusOK, purchaseResponse{Verified: false})
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(payload.Customer.Email))
	providerRef := payload.Order.ID.String()
	if email == "" || providerRef == "" {
		return webutil.ErrBadRequest("webhook payload missing customer email or order id")
	}
	name := strings.TrimSpace(payload.Customer.FirstName + " " + payload.Customer.LastName)

	ctx := r.Context()

	user, err := h.resolveUser(ctx, email, name)
	if err != nil {
		return fmt.Errorf("failed to resolve user for %s: %w", email, err)
	}

	order, err := h.resolveOrder(ctx, user.ID, providerRef)
	if err != nil {
		return fmt.Errorf("failed to resolve order %s: %w", providerRef, err)
	}

	// A session is always created fresh, even when the order already
	// existed. A replayed webhook therefore produces a second session
	// and a second drip sequence for it.
	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Status:    models.SessionStatusActive,
		StartedAt: time.Now().UTC(),
	}
	if err := h.sessions.Create(ctx, &session); err != nil {
		return fmt.Errorf("failed to create session for user %s: %w", user.ID, err)
	}

	tok := h.signer.Mint(session.ID, email, token.MagicLinkTTL)
	magicLink := h.baseURL + "/assessment/" + session.ID + "?token=" + url.QueryEscape(tok)

	resp := purchaseResponse{
		Verified:  true,
		User:      user,
		Order:     order,
		SessionID: session.ID,
		MagicLink: magicLink,
	}

	// The purchase and session are durably recorded by now; a failed
	// magic-link send is reported in the response, not surfaced as an
	// error.
	msg, err := mailer.MagicLinkMessage(email, user.Name, magicLink)
	if err == nil {
		err = h.messenger.Send(ctx, msg)
	}
	if err != nil {
		h.logger.Error("magic link email failed",
			zap.String("session_id", session.ID),
			zap.String("recipient", email),
			zap.Error(err),
		)
		resp.EmailError = err.Error()
	} else {
		resp.Emailed = true
	}

	h.logger.Info("purchase webhook processed",
		zap.String("user_id", user.ID),
		zap.String("order_id", order.ID),
		zap.String("session_id", session.ID),
		zap.Bool("emailed", resp.Emailed),
	)

	webutil.RespondWithJSON(w, http.StatusOK, resp)
	return nil
}

func hasChargedProduct(payload purchasePayload) bool {
	for _, p := range payload.Products {
		switch strings.ToLower(p.Status) {
		case "charged", "completed":
			return true
		}
	}
	return false
}

// resolveUser finds or creates the user for the purchase. When an
// existing user has no name and the payload supplies one, the name is
// backfilled; that update failing is not fatal.
func (h *PurchaseHandler) resolveUser(ctx context.Context, email, name string) (*models.User, error) {
	user, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		user = &models.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	if user.Name == "" && name != "" {
		if err := h.users.UpdateName(ctx, user.ID, name); err != nil {
			h.logger.Warn("failed to backfill user name",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		} else {
			user.Name = name
		}
	}
	return user, nil
}

// resolveOrder inserts the order, treating a provider_ref conflict as
// "already processed" and fetching the existing row instead.
func (h *PurchaseHandler) resolveOrder(ctx context.Context, userID, providerRef string) (*models.Order, error) {
	order := &models.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProviderRef: providerRef,
		Status:      models.OrderStatusPaid,
		CreatedAt:   time.Now().UTC(),
	}
	err := h.orders.Create(ctx, order)
	if err == nil {
		return order, nil
	}
	if errors.Is(err, datastore.ErrDuplicateOrder) {
		return h.orders.GetByProviderRef(ctx, providerRef)
	}
	return nil, err
}
