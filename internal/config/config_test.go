package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/acosmibot")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DISCORD_CLIENT_ID", "123")
	t.Setenv("DISCORD_CLIENT_SECRET", "abc")
	t.Setenv("DISCORD_REDIRECT_URI", "https://api.acosmibot.com/auth/callback")
	t.Setenv("DISCORD_BOT_TOKEN", "token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.NotEmpty(t, cfg.DashboardURL)
	assert.NotEmpty(t, cfg.CORSOrigins)
}

func TestLoad_RequiredVars(t *testing.T) {
	required := []string{
		"DATABASE_URL", "JWT_SECRET",
		"DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET",
		"DISCORD_REDIRECT_URI", "DISCORD_BOT_TOKEN",
	}

	for _, name := range required {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(name, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_TwitchPairValidation(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TWITCH_CLIENT_ID", "id-only")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TWITCH_CLIENT_SECRET", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.TwitchEnabled(), "webhook secret still missing")

	t.Setenv("TWITCH_WEBHOOK_SECRET", "short")
	_, err = Load()
	assert.Error(t, err, "webhook secret under 10 chars")

	t.Setenv("TWITCH_WEBHOOK_SECRET", "long-enough-secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.TwitchEnabled())
}

func TestLoad_StripeRequiresPriceIDs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STRIPE_PREMIUM_PRICE_ID", "price_1")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STRIPE_PREMIUM_PLUS_AI_PRICE_ID", "price_2")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.StripeEnabled())
}

func TestIntegrationToggles(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.TwitchEnabled())
	assert.False(t, cfg.KickEnabled())
	assert.False(t, cfg.YouTubeEnabled())
	assert.False(t, cfg.StripeEnabled())

	t.Setenv("KICK_CLIENT_ID", "id")
	t.Setenv("KICK_CLIENT_SECRET", "secret")
	t.Setenv("YOUTUBE_API_KEY", "key")
	t.Setenv("YOUTUBE_WEBHOOK_CALLBACK_URL", "https://api.acosmibot.com/api/webhooks/youtube")

	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.KickEnabled())
	assert.True(t, cfg.YouTubeEnabled())
}
