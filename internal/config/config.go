package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	LogFormat string

	DatabaseURL string
	RedisURL    string

	// Discord
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string
	DiscordBotToken     string

	// JWT
	JWTSecret string

	// Hex AES-256 key for encrypting cached Discord tokens. Empty
	// disables encryption.
	TokenEncryptionKey string

	// Dashboard redirect target after OAuth login
	DashboardURL string

	// CORS
	CORSOrigins []string

	// Twitch
	TwitchClientID           string
	TwitchClientSecret       string
	TwitchWebhookSecret      string
	TwitchWebhookCallbackURL string

	// Kick
	KickClientID           string
	KickClientSecret       string
	KickWebhookSecret      string
	KickWebhookCallbackURL string

	// YouTube
	YouTubeAPIKey             string
	YouTubeWebhookSecret      string
	YouTubeWebhookCallbackURL string

	// Stripe
	StripeSecretKey          string
	StripeWebhookSecret      string
	StripePremiumPriceID     string
	StripePremiumPlusPriceID string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		DiscordClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		DiscordRedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
		DiscordBotToken:     getEnv("DISCORD_BOT_TOKEN", ""),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		DashboardURL:       getEnv("DASHBOARD_URL", "https://acosmibot.com/dashboard"),

		CORSOrigins: []string{"https://acosmibot.com", "https://api.acosmibot.com"},

		TwitchClientID:           getEnv("TWITCH_CLIENT_ID", ""),
		TwitchClientSecret:       getEnv("TWITCH_CLIENT_SECRET", ""),
		TwitchWebhookSecret:      getEnv("TWITCH_WEBHOOK_SECRET", ""),
		TwitchWebhookCallbackURL: getEnv("TWITCH_WEBHOOK_CALLBACK_URL", "https://api.acosmibot.com/api/webhooks/twitch"),

		KickClientID:           getEnv("KICK_CLIENT_ID", ""),
		KickClientSecret:       getEnv("KICK_CLIENT_SECRET", ""),
		KickWebhookSecret:      getEnv("KICK_WEBHOOK_SECRET", ""),
		KickWebhookCallbackURL: getEnv("KICK_WEBHOOK_CALLBACK_URL", "https://api.acosmibot.com/api/webhooks/kick"),

		YouTubeAPIKey:             getEnv("YOUTUBE_API_KEY", ""),
		YouTubeWebhookSecret:      getEnv("YOUTUBE_WEBHOOK_SECRET", ""),
		YouTubeWebhookCallbackURL: getEnv("YOUTUBE_WEBHOOK_CALLBACK_URL", ""),

		StripeSecretKey:          getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:      getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePremiumPriceID:     getEnv("STRIPE_PREMIUM_PRICE_ID", ""),
		StripePremiumPlusPriceID: getEnv("STRIPE_PREMIUM_PLUS_AI_PRICE_ID", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DiscordClientID == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_ID is required")
	}
	if cfg.DiscordClientSecret == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_SECRET is required")
	}
	if cfg.DiscordRedirectURI == "" {
		return nil, fmt.Errorf("DISCORD_REDIRECT_URI is required")
	}
	if cfg.DiscordBotToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	// Twitch: client id and secret must be set together
	if cfg.TwitchClientID != "" || cfg.TwitchClientSecret != "" {
		if cfg.TwitchClientID == "" || cfg.TwitchClientSecret == "" {
			return nil, fmt.Errorf("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET must be set together")
		}
		if cfg.TwitchWebhookSecret != "" && (len(cfg.TwitchWebhookSecret) < 10 || len(cfg.TwitchWebhookSecret) > 100) {
			return nil, fmt.Errorf("TWITCH_WEBHOOK_SECRET must be between 10 and 100 characters")
		}
	}

	// Stripe: price ids are required once the secret key is set
	if cfg.StripeSecretKey != "" {
		if cfg.StripePremiumPriceID == "" {
			return nil, fmt.Errorf("STRIPE_PREMIUM_PRICE_ID is required when STRIPE_SECRET_KEY is set")
		}
		if cfg.StripePremiumPlusPriceID == "" {
			return nil, fmt.Errorf("STRIPE_PREMIUM_PLUS_AI_PRICE_ID is required when STRIPE_SECRET_KEY is set")
		}
	}

	return cfg, nil
}

// TwitchEnabled reports whether the Twitch EventSub integration is configured.
func (c *Config) TwitchEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != "" && c.TwitchWebhookSecret != ""
}

// KickEnabled reports whether the Kick webhook integration is configured.
func (c *Config) KickEnabled() bool {
	return c.KickClientID != "" && c.KickClientSecret != ""
}

// YouTubeEnabled reports whether the YouTube WebSub integration is configured.
func (c *Config) YouTubeEnabled() bool {
	return c.YouTubeAPIKey != "" && c.YouTubeWebhookCallbackURL != ""
}

// StripeEnabled reports whether billing is configured.
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
