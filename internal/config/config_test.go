package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("WHAPI_TOKEN", "token")
	t.Setenv("ALLOWED_SENDERS", "972523265851,972544446986")
	t.Setenv("SF_USERNAME", "bot@example.sandbox")
	t.Setenv("SF_PASSWORD", "pw")
	t.Setenv("SF_CONSUMER_KEY", "key")
	t.Setenv("SF_CONSUMER_SECRET", "secret")
	t.Setenv("SF_SECURITY_TOKEN", "tok")
	t.Setenv("ICOUNT_CID", "G123456789")
	t.Setenv("ICOUNT_USERNAME", "user")
	t.Setenv("ICOUNT_PASSWORD", "pass")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXCLUDED_CHATS", "120363309946680980@g.us")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"972523265851", "972544446986"}, cfg.AllowedSenders)
	assert.Equal(t, []string{"120363309946680980@g.us"}, cfg.ExcludedChats)
	assert.Equal(t, 5*time.Second, cfg.CheckInterval)
	assert.Equal(t, 10*time.Second, cfg.WatermarkLead)
	assert.Equal(t, "https://gate.whapi.cloud", cfg.WhapiBaseURL)
	assert.Equal(t, "אור השחר בע״מ", cfg.StoreName)
	assert.Equal(t, uint64(3), cfg.HTTPMaxRetries)
}

func TestLoad_MissingToken(t *testing.T) {
	setRequiredEnv(t)
	// t.Setenv cannot unset; drop the variable directly, the t.Setenv
	// cleanup still restores it afterwards.
	require.NoError(t, os.Unsetenv("WHAPI_TOKEN"))

	_, err := Load()
	assert.Error(t, err)
}
