package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the provider's hex-encoded HMAC-SHA256 of
// the raw request body.
const SignatureHeader = "X-Webhook-Signature"

var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature checks a hex HMAC-SHA256 signature over the raw body
// using constant-time comparison.
func VerifySignature(secret, signatureHex string, body []byte) error {
	provided, err := hex.DecodeString(signatureHex)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignHex computes the hex signature for a body. Used by tests and by
// local tooling that replays webhook payloads.
func SignHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
