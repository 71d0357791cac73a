package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pagechat/internal/core/domain"
)

func TestSettingsShow_Defaults(t *testing.T) {
	t.Setenv("PAGECHAT_API_URL", "")
	t.Setenv("PAGECHAT_WS_URL", "")
	setupTestServices(t)

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, domain.DefaultAPIURL)
	assert.Contains(t, out, "(derived)")
	assert.Contains(t, out, "Reuse latest chat: yes")
	assert.Contains(t, out, "Config file: :memory:")
	assert.NotContains(t, out, "Warning:")
}

func TestSettingsSet(t *testing.T) {
	t.Setenv("PAGECHAT_API_URL", "")
	env := setupTestServices(t)

	out, err := execute(t, "settings", "set", "api.url", "http://example.test:9000/")
	require.NoError(t, err)
	assert.Contains(t, out, "Set api.url = http://example.test:9000/")
	assert.Equal(t, "http://example.test:9000", env.config.GetString("api.url"))

	_, err = execute(t, "settings", "set", "chat.reuse_latest", "false")
	require.NoError(t, err)

	out, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "http://example.test:9000")
	assert.Contains(t, out, "Reuse latest chat: no")
}

func TestSettingsSet_Invalid(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "settings", "set", "api.colour", "blue")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "settings", "set", "status.poll_interval_ms", "soon")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "settings", "set", "api.url")
	assert.Error(t, err)
}

func TestSettingsKeys(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "api.url")
	assert.Contains(t, out, "chat.reuse_latest")
}

func TestSettings_NotConfigured(t *testing.T) {
	SetFactory(nil)
	SetServices(nil)

	for _, args := range [][]string{{"settings"}, {"settings", "keys"}, {"settings", "set", "a", "b"}} {
		_, err := execute(t, args...)
		assert.Error(t, err)
	}
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "yes", yesNo(true))
	assert.Equal(t, "no", yesNo(false))
}
