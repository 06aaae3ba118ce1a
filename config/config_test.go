package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCollectsAllMissingKeys(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
	require.Contains(t, err.Error(), "WEBHOOK_SECRET")
	require.Contains(t, err.Error(), "TOKEN_SECRET")
}

func TestValidatePassesWithRequiredKeys(t *testing.T) {
	cfg := &Config{
		DatabaseURL:   "postgres://localhost/app",
		WebhookSecret: "whsec",
		TokenSecret:   "toksec",
	}
	require.NoError(t, cfg.Validate())
}

func TestUseSMTP(t *testing.T) {
	require.True(t, (&Config{}).UseSMTP())
	require.False(t, (&Config{SendGridAPIKey: "SG.x"}).UseSMTP())
}
