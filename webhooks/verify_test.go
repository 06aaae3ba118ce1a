package webhooks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifySignatureAcceptsValidSignature(t *testing.T) {
	body := []byte(`{"order":{"id":123}}`)
	sig := SignHex("secret", body)
	require.NoError(t, VerifySignature("secret", sig, body))
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"order":{"id":123}}`)
	sig := SignHex("other-secret", body)
	require.ErrorIs(t, VerifySignature("secret", sig, body), ErrInvalidSignature)
}

func TestVerifySignatureRejectsModifiedBody(t *testing.T) {
	sig := SignHex("secret", []byte(`{"order":{"id":123}}`))
	err := VerifySignature("secret", sig, []byte(`{"order":{"id":124}}`))
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsNonHexSignature(t *testing.T) {
	require.ErrorIs(t, VerifySignature("secret", "not hex!", []byte("x")), ErrInvalidSignature)
	require.ErrorIs(t, VerifySignature("secret", "", []byte("x")), ErrInvalidSignature)
}
