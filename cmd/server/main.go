package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acosmic/acosmibot-api/internal/announce"
	"github.com/acosmic/acosmibot-api/internal/billing"
	"github.com/acosmic/acosmibot-api/internal/config"
	"github.com/acosmic/acosmibot-api/internal/coordination"
	"github.com/acosmic/acosmibot-api/internal/crypto"
	"github.com/acosmic/acosmibot-api/internal/database"
	"github.com/acosmic/acosmibot-api/internal/discord"
	"github.com/acosmic/acosmibot-api/internal/kick"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/acosmic/acosmibot-api/internal/redis"
	"github.com/acosmic/acosmibot-api/internal/server"
	"github.com/acosmic/acosmibot-api/internal/twitch"
	"github.com/acosmic/acosmibot-api/internal/youtube"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Error("Failed to ping Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupRepos(pool *pgxpool.Pool) server.Repos {
	return server.Repos{
		Guilds:        database.NewGuildRepo(pool),
		Users:         database.NewUserRepo(pool),
		GuildUsers:    database.NewGuildUserRepo(pool),
		Admins:        database.NewAdminRepo(pool),
		Commands:      database.NewCustomCommandRepo(pool),
		ReactionRoles: database.NewReactionRoleRepo(pool),
		Embeds:        database.NewEmbedRepo(pool),
		Subscriptions: database.NewSubscriptionRepo(pool),
		StreamSubs:    database.NewStreamSubRepo(pool),
		WebhookEvents: database.NewWebhookEventRepo(pool),
		Announcements: database.NewAnnouncementRepo(pool),
		AIImages:      database.NewAIImageRepo(pool),
	}
}

func runGracefulShutdown(srv *server.Server, cancelBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		cancelBackground()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	repos := setupRepos(pool)

	discordClient, err := discord.NewClient(cfg.DiscordBotToken)
	if err != nil {
		slog.Error("Failed to create Discord client", "error", err)
		os.Exit(1)
	}

	var cryptoSvc crypto.Service = crypto.NoopService{}
	if cfg.TokenEncryptionKey != "" {
		cryptoSvc, err = crypto.NewAesGcmCryptoService(cfg.TokenEncryptionKey)
		if err != nil {
			slog.Error("Failed to create crypto service", "error", err)
			os.Exit(1)
		}
	}

	deps := server.Dependencies{
		Pool:       pool,
		Redis:      redisClient,
		Repos:      repos,
		Discord:    discordClient,
		OAuth:      discord.NewOAuthClient(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURI),
		States:     redis.NewStateStore(redisClient),
		Tokens:     redis.NewTokenStore(redisClient, cryptoSvc),
		Invalidate: redis.NewInvalidator(redisClient),
	}

	announcer := announce.New(repos.Guilds, repos.Announcements, discordClient)

	// Background work (WebSub lease renewal) stops with this context.
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if cfg.TwitchEnabled() {
		twitchClient, err := twitch.NewClient(cfg.TwitchClientID, cfg.TwitchClientSecret, cfg.TwitchWebhookCallbackURL, cfg.TwitchWebhookSecret)
		if err != nil {
			slog.Error("Failed to create Twitch client", "error", err)
			os.Exit(1)
		}
		deps.TwitchManager = twitch.NewManager(twitchClient, repos.StreamSubs)
		deps.TwitchWebhook = twitch.NewWebhookHandler(cfg.TwitchWebhookSecret, repos.WebhookEvents, repos.StreamSubs, twitchClient, announcer)
		slog.Info("Twitch integration enabled")
	}

	if cfg.KickEnabled() {
		kickClient := kick.NewClient(cfg.KickClientID, cfg.KickClientSecret, cfg.KickWebhookCallbackURL)
		deps.KickManager = kick.NewManager(kickClient, repos.StreamSubs)
		deps.KickWebhook = kick.NewWebhookHandler(repos.WebhookEvents, repos.StreamSubs, kickClient, announcer)
		slog.Info("Kick integration enabled")
	}

	if cfg.YouTubeEnabled() {
		youtubeClient := youtube.NewClient(cfg.YouTubeAPIKey, cfg.YouTubeWebhookCallbackURL, cfg.YouTubeWebhookSecret)
		manager := youtube.NewManager(youtubeClient, repos.StreamSubs)
		manager.SetRenewalGate(coordination.NewLeaderElection(
			redisClient.Underlying(), uuid.NewString(), "leader:websub_renewal", time.Hour))
		deps.YouTubeManager = manager
		deps.YouTubeWebhook = youtube.NewWebhookHandler(cfg.YouTubeWebhookSecret, repos.WebhookEvents, repos.StreamSubs, youtubeClient, announcer)
		go manager.RunLeaseRenewal(backgroundCtx)
		slog.Info("YouTube integration enabled")
	}

	if cfg.StripeEnabled() {
		deps.Billing = billing.NewService(billing.Config{
			SecretKey:          cfg.StripeSecretKey,
			WebhookSecret:      cfg.StripeWebhookSecret,
			PremiumPriceID:     cfg.StripePremiumPriceID,
			PremiumPlusPriceID: cfg.StripePremiumPlusPriceID,
			DashboardURL:       cfg.DashboardURL,
		}, repos.Subscriptions, repos.Guilds, deps.Invalidate)
		slog.Info("Stripe billing enabled")
	}

	srv := server.NewServer(cfg, deps)
	done := runGracefulShutdown(srv, cancelBackground)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
