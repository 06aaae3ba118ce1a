package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	s := NewSigner("test-secret")
	tok := s.Mint("S1", "a@b.com", time.Hour)

	subject, err := s.Verify(tok, "S1")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", subject)
}

func TestVerifyRejectsWrongSession(t *testing.T) {
	s := NewSigner("test-secret")
	tok := s.Mint("S1", "a@b.com", time.Hour)

	_, err := s.Verify(tok, "S2")
	require.ErrorIs(t, err, ErrSessionMismatch)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Now()
	s := NewSignerAt("test-secret", func() time.Time { return now })
	tok := s.Mint("S1", "a@b.com", time.Minute)

	// Advance the clock past expiry; session id is correct.
	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err := s.Verify(tok, "S1")
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	s := NewSigner("test-secret")
	tok := s.Mint("S1", "a@b.com", time.Hour)

	parts := strings.SplitN(tok, ".", 2)
	forged := s.Mint("S2", "a@b.com", time.Hour)
	forgedPayload := strings.SplitN(forged, ".", 2)[0]

	_, err := s.Verify(forgedPayload+"."+parts[1], "S2")
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok := NewSigner("secret-a").Mint("S1", "a@b.com", time.Hour)

	_, err := NewSigner("secret-b").Verify(tok, "S1")
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestFileURLWindowMuchShorterThanMagicLink(t *testing.T) {
	// File URLs are re-minted per report poll; their window stays tight
	// while the emailed magic link keeps its full day.
	require.Less(t, int64(FileURLTTL), int64(MagicLinkTTL))
	require.LessOrEqual(t, int64(FileURLTTL), int64(time.Hour))
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	s := NewSigner("test-secret")

	for _, tok := range []string{"", "no-dot", ".", "a.", ".b"} {
		_, err := s.Verify(tok, "S1")
		require.Error(t, err, "token %q", tok)
	}
}
