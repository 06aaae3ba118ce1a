// Package token issues and verifies the signed, time-limited tokens
// that gate access to a session's assessment flow and its rendered
// artifacts. A token binds a session ID and a subject (the recipient
// email for magic links, a file path for signed retrieval URLs).
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformed       = errors.New("malformed token")
	ErrBadSignature    = errors.New("invalid token signature")
	ErrExpired         = errors.New("token expired")
	ErrSessionMismatch = errors.New("token session does not match requested session")
)

// MagicLinkTTL is the validity window for tokens minted at purchase time.
const MagicLinkTTL = 24 * time.Hour

// FileURLTTL is the validity window for signed artifact retrieval
// URLs. Deliberately much shorter than the magic link: a report URL
// lands in an email and gets clicked promptly, and the report endpoint
// re-mints a fresh one on every poll.
const FileURLTTL = 1 * time.Hour

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// NewSignerAt is like NewSigner with an injected clock. Used by tests.
func NewSignerAt(secret string, now func() time.Time) *Signer {
	return &Signer{secret: []byte(secret), now: now}
}

// Mint produces an opaque token embedding the session ID, a subject and
// an absolute expiry. Format: base64url(sessionID|subject|exp) "." hex(hmac).
func (s *Signer) Mint(sessionID, subject string, ttl time.Duration) string {
	exp := s.now().Add(ttl).Unix()
	payload := fmt.Sprintf("%s|%s|%d", sessionID, subject, exp)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + s.sign(encoded)
}

// Verify checks signature, expiry and session binding, in that order,
// and returns the embedded subject. A token minted for one session
// never verifies against another, even before expiry.
func (s *Signer) Verify(tok, wantSessionID string) (string, error) {
	encoded, sig, ok := strings.Cut(tok, ".")
	if !ok || encoded == "" || sig == "" {
		return "", ErrMalformed
	}

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return "", ErrBadSignature
	}
	actual, err := hex.DecodeString(s.sign(encoded))
	if err != nil {
		return "", ErrBadSignature
	}
	if !hmac.Equal(expected, actual) {
		return "", ErrBadSignature
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrMalformed
	}
	parts := strings.SplitN(string(payloadBytes), "|", 3)
	if len(parts) != 3 {
		return "", ErrMalformed
	}
	sessionID, subject, expStr := parts[0], parts[1], parts[2]

	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", ErrMalformed
	}
	if s.now().After(time.Unix(exp, 0)) {
		return "", ErrExpired
	}
	if sessionID != wantSessionID {
		return "", ErrSessionMismatch
	}
	return subject, nil
}

func (s *Signer) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encodedPayload))
	return hex.EncodeToString(mac.Sum(nil))
}
