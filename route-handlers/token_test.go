package routehandlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/furtivegod/becomeyou/token"
)

func TestVerifyRequestTokenFromQuery(t *testing.T) {
	signer := token.NewSigner("secret")
	tok := signer.Mint("S1", "a@b.com", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/S1/report?token="+url.QueryEscape(tok), nil)
	subject, err := VerifyRequestToken(signer, req, "S1")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", subject)
}

func TestVerifyRequestTokenFromBearerHeader(t *testing.T) {
	signer := token.NewSigner("secret")
	tok := signer.Mint("S1", "a@b.com", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/S1/messages", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	subject, err := VerifyRequestToken(signer, req, "S1")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", subject)
}

func TestVerifyRequestTokenMissing(t *testing.T) {
	signer := token.NewSigner("secret")
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/S1/report", nil)

	_, err := VerifyRequestToken(signer, req, "S1")
	require.ErrorIs(t, err, token.ErrMalformed)
}

func TestVerifyRequestTokenWrongSession(t *testing.T) {
	signer := token.NewSigner("secret")
	tok := signer.Mint("S1", "a@b.com", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/S2/report?token="+url.QueryEscape(tok), nil)
	_, err := VerifyRequestToken(signer, req, "S2")
	require.ErrorIs(t, err, token.ErrSessionMismatch)
}
