package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverridesOnlySetVariables(t *testing.T) {
	t.Setenv("GUILDGATE_ADMIN_CHANNEL", "staff-alerts")
	t.Setenv("GUILDGATE_PHOTO_TIMEOUT", "2m")
	t.Setenv("GUILDGATE_PHOTO_TIMEOUT_RESETS", "true")
	t.Setenv("GUILDGATE_NOTIFY_RATE", "2.5")

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseEnv(&c))

	assert.Equal(t, "staff-alerts", c.AdminChannel)
	assert.Equal(t, 2*time.Minute, c.PhotoCollectionTimeout)
	assert.True(t, c.PhotoTimeoutResets)
	assert.Equal(t, 2.5, c.NotifyRatePerSecond)
	assert.Equal(t, "welcome", c.WelcomeChannel)
}

func TestParseEnv_InvalidValue(t *testing.T) {
	t.Setenv("GUILDGATE_NOTIFY_BURST", "many")

	var c Config
	c.LoadDefaults()
	err := parseEnv(&c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}
