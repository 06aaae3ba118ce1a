package webhooks

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/furtivegod/becomeyou/datastore"
	"github.com/furtivegod/becomeyou/mailer"
	"github.com/furtivegod/becomeyou/models"
	"github.com/furtivegod/becomeyou/token"
	"github.com/furtivegod/becomeyou/webutil"
)

const testSecret = "webhook-secret"

type fakeUsers struct {
	byEmail map[string]*models.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	if f.byEmail == nil {
		f.byEmail = map[string]*models.User{}
	}
	copied := *user
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUsers) UpdateName(_ context.Context, userID, name string) error {
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.Name = name
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeOrders struct {
	byProviderRef map[string]*models.Order
}

func (f *fakeOrders) Create(_ context.Context, order *models.Order) error {
	if f.byProviderRef == nil {
		f.byProviderRef = map[string]*models.Order{}
	}
	if _, ok := f.byProviderRef[order.ProviderRef]; ok {
		return datastore.ErrDuplicateOrder
	}
	copied := *order
	f.byProviderRef[order.ProviderRef] = &copied
	return nil
}

func (f *fakeOrders) GetByProviderRef(_ context.Context, providerRef string) (*models.Order, error) {
	if o, ok := f.byProviderRef[providerRef]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSessions struct {
	created []models.Session
}

func (f *fakeSessions) Create(_ context.Context, session *models.Session) error {
	f.created = append(f.created, *session)
	return nil
}

type stubMessenger struct {
	sent []mailer.OutboundMessage
	err  error
}

func (m *stubMessenger) Send(_ context.Context, msg mailer.OutboundMessage) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type purchaseFixture struct {
	handler   *PurchaseHandler
	users     *fakeUsers
	orders    *fakeOrders
	sessions  *fakeSessions
	messenger *stubMessenger
	signer    *token.Signer
}

func newPurchaseFixture() *purchaseFixture {
	users := &fakeUsers{}
	orders := &fakeOrders{}
	sessions := &fakeSessions{}
	messenger := &stubMessenger{}
	signer := token.NewSigner("token-secret")
	handler := NewPurchaseHandler(
		testSecret,
		"https://app.example.com",
		users,
		orders,
		sessions,
		signer,
		messenger,
		zap.NewNop(),
	)
	return &purchaseFixture{
		handler:   handler,
		users:     users,
		orders:    orders,
		sessions:  sessions,
		messenger: messenger,
		signer:    signer,
	}
}

func chargedPayload(email, orderID string) []byte {
	return []byte(`{
		"customer": {"email": "` + email + `", "first_name": "Ada", "last_name": "Lovelace"},
		"order": {"id": ` + orderID + `},
		"products": [{"status": "Charged"}]
	}`)
}

func (f *purchaseFixture) deliver(t *testing.T, body []byte, sign bool) (*httptest.ResponseRecorder, purchaseResponse, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/purchase", bytes.NewReader(body))
	if sign {
		req.Header.Set(SignatureHeader, SignHex(testSecret, body))
	}
	rec := httptest.NewRecorder()
	err := f.handler.HandlePurchase(rec, req)

	var resp purchaseResponse
	if err == nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp, err
}

func TestHandlePurchaseHappyPath(t *testing.T) {
	f := newPurchaseFixture()
	rec, resp, err := f.deliver(t, chargedPayload("Ada@Example.com", "9001"), true)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Verified)
	require.True(t, resp.Emailed)
	require.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.User)
	require.Equal(t, "ada@example.com", resp.User.Email)
	require.Equal(t, "Ada Lovelace", resp.User.Name)
	require.NotNil(t, resp.Order)
	require.Equal(t, "9001", resp.Order.ProviderRef)

	require.Len(t, f.sessions.created, 1)
	require.Equal(t, resp.SessionID, f.sessions.created[0].ID)
	require.Equal(t, models.SessionStatusActive, f.sessions.created[0].Status)

	require.Len(t, f.messenger.sent, 1)
	require.Equal(t, "ada@example.com", f.messenger.sent[0].To)
	require.Contains(t, f.messenger.sent[0].HTML, resp.MagicLink)
}

func TestHandlePurchaseMintsVerifiableMagicLink(t *testing.T) {
	f := newPurchaseFixture()
	_, resp, err := f.deliver(t, chargedPayload("ada@example.com", "9001"), true)
	require.NoError(t, err)

	parsed, err := url.Parse(resp.MagicLink)
	require.NoError(t, err)
	require.Equal(t, "/assessment/"+resp.SessionID, parsed.Path)

	subject, err := f.signer.Verify(parsed.Query().Get("token"), resp.SessionID)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", subject)
}

func TestHandlePurchaseRejectsBadSignature(t *testing.T) {
	f := newPurchaseFixture()
	_, _, err := f.deliver(t, chargedPayload("ada@example.com", "9001"), false)

	var httpErr *webutil.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
	require.Empty(t, f.sessions.created)
	require.Empty(t, f.messenger.sent)
}

func TestHandlePurchaseAcknowledgesNonChargedEvents(t *testing.T) {
	f := newPurchaseFixture()
	body := []byte(`{
		"customer": {"email": "ada@example.com"},
		"order": {"id": 9001},
		"products": [{"status": "refunded"}]
	}`)
	rec, resp, err := f.deliver(t, body, true)

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, resp.Verified)
	require.Empty(t, f.sessions.created)
	require.Empty(t, f.orders.byProviderRef)
}

func TestHandlePurchaseRejectsMissingEmailOrOrderID(t *testing.T) {
	f := newPurchaseFixture()
	body := []byte(`{
		"customer": {"email": ""},
		"order": {"id": 9001},
		"products": [{"status": "charged"}]
	}`)
	_, _, err := f.deliver(t, body, true)

	var httpErr *webutil.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandlePurchaseReplayReusesOrderAndCreatesNewSession(t *testing.T) {
	f := newPurchaseFixture()
	body := chargedPayload("ada@example.com", "9001")

	_, first, err := f.deliver(t, body, true)
	require.NoError(t, err)
	_, second, err := f.deliver(t, body, true)
	require.NoError(t, err)

	require.Equal(t, first.Order.ID, second.Order.ID)
	require.Len(t, f.orders.byProviderRef, 1)
	require.Len(t, f.users.byEmail, 1)

	// Each delivery gets its own session and magic link.
	require.NotEqual(t, first.SessionID, second.SessionID)
	require.Len(t, f.sessions.created, 2)
}

func TestHandlePurchaseAbsorbsEmailFailure(t *testing.T) {
	f := newPurchaseFixture()
	f.messenger.err = errors.New("provider 500")

	rec, resp, err := f.deliver(t, chargedPayload("ada@example.com", "9001"), true)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Verified)
	require.False(t, resp.Emailed)
	require.Contains(t, resp.EmailError, "provider 500")
	require.Len(t, f.sessions.created, 1, "session must be recorded despite the failed email")
}

func TestHandlePurchaseBackfillsMissingUserName(t *testing.T) {
	f := newPurchaseFixture()
	f.users.byEmail = map[string]*models.User{
		"ada@example.com": {
			ID:        "U-existing",
			Email:     "ada@example.com",
			CreatedAt: time.Now().UTC(),
		},
	}

	_, resp, err := f.deliver(t, chargedPayload("ada@example.com", "9001"), true)
	require.NoError(t, err)
	require.Equal(t, "U-existing", resp.User.ID)
	require.Equal(t, "Ada Lovelace", resp.User.Name)
	require.Equal(t, "Ada Lovelace", f.users.byEmail["ada@example.com"].Name)
}
