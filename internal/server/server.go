package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acosmic/acosmibot-api/internal/billing"
	"github.com/acosmic/acosmibot-api/internal/config"
	"github.com/acosmic/acosmibot-api/internal/database"
	"github.com/acosmic/acosmibot-api/internal/discord"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/acosmic/acosmibot-api/internal/kick"
	"github.com/acosmic/acosmibot-api/internal/redis"
	"github.com/acosmic/acosmibot-api/internal/twitch"
	"github.com/acosmic/acosmibot-api/internal/youtube"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Repos bundles the database repositories the handlers use.
type Repos struct {
	Guilds        *database.GuildRepo
	Users         *database.UserRepo
	GuildUsers    *database.GuildUserRepo
	Admins        *database.AdminRepo
	Commands      *database.CustomCommandRepo
	ReactionRoles *database.ReactionRoleRepo
	Embeds        *database.EmbedRepo
	Subscriptions *database.SubscriptionRepo
	StreamSubs    *database.StreamSubRepo
	WebhookEvents *database.WebhookEventRepo
	Announcements *database.AnnouncementRepo
	AIImages      *database.AIImageRepo
}

// Dependencies carries everything the server needs wired in. Platform
// integrations are nil when their configuration is absent; the matching
// routes are simply not registered.
type Dependencies struct {
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Repos      Repos
	Discord    *discord.Client
	OAuth      *discord.OAuthClient
	States     *redis.StateStore
	Tokens     *redis.TokenStore
	Invalidate *redis.Invalidator

	TwitchManager  *twitch.Manager
	TwitchWebhook  *twitch.WebhookHandler
	KickManager    *kick.Manager
	KickWebhook    *kick.WebhookHandler
	YouTubeManager *youtube.Manager
	YouTubeWebhook *youtube.WebhookHandler
	Billing        *billing.Service
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	deps      Dependencies
	startTime time.Time
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true, LogURI: true, LogMethod: true, LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		deps:      deps,
		startTime: time.Now(),
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("starting server", "port", s.config.Port, "env", s.config.AppEnv)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
