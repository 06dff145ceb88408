package server

import (
	"errors"
	"net/http"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

// handleGuildPermissions reports the caller's relationship to the guild.
// Reaching this handler already means dashboard access was granted.
func (s *Server) handleGuildPermissions(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID := c.Get("userID").(int64)

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"has_access": true,
		"is_owner":   guild.OwnerID == userID,
		"tier":       guild.Tier(),
	})
}

func (s *Server) handleGuildStats(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	stats, err := s.deps.Repos.Guilds.Stats(c.Request().Context(), guildID)
	if err != nil {
		if errors.Is(err, domain.ErrGuildNotFound) {
			return apperrors.NotFoundError("guild not found")
		}
		return apperrors.InternalError("failed to load guild stats", err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleGetConfig(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	settings := guild.Settings
	if settings == nil {
		settings = domain.DefaultSettings()
	}

	return c.JSON(http.StatusOK, map[string]any{
		"guild_id":            guild.ID,
		"name":                guild.Name,
		"subscription_tier":   guild.Tier(),
		"subscription_status": guild.SubscriptionStatus,
		"settings":            settings,
	})
}

func (s *Server) handleUpdateConfig(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	var settings domain.GuildSettings
	if err := c.Bind(&settings); err != nil {
		return apperrors.ValidationError("invalid settings payload")
	}
	if err := settings.Validate(guild.Tier()); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	if err := s.deps.Repos.Guilds.UpdateSettings(ctx, guildID, &settings); err != nil {
		return apperrors.InternalError("failed to save settings", err).
			WithContext("guild_id", guildID)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "settings_updated")

	return c.JSON(http.StatusOK, map[string]any{"settings": settings})
}

var leaderboardMetrics = map[string]bool{
	"exp": true, "level": true, "currency": true, "messages": true,
}

func (s *Server) handleGuildLeaderboard(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	metric := c.QueryParam("metric")
	if metric == "" {
		metric = "exp"
	}
	if !leaderboardMetrics[metric] {
		return apperrors.ValidationError("metric must be one of: exp, level, currency, messages")
	}
	limit := intQueryParam(c, "limit", 10, 100)

	entries, err := s.deps.Repos.GuildUsers.Leaderboard(c.Request().Context(), guildID, metric, limit)
	if err != nil {
		return apperrors.InternalError("failed to load leaderboard", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"metric":  metric,
		"entries": entries,
	})
}

func (s *Server) handleGlobalLeaderboard(c echo.Context) error {
	metric := c.QueryParam("metric")
	if metric == "" {
		metric = "exp"
	}
	if !leaderboardMetrics[metric] {
		return apperrors.ValidationError("metric must be one of: exp, level, currency, messages")
	}
	limit := intQueryParam(c, "limit", 10, 100)

	entries, err := s.deps.Repos.Users.GlobalLeaderboard(c.Request().Context(), metric, limit)
	if err != nil {
		return apperrors.InternalError("failed to load leaderboard", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"metric":  metric,
		"entries": entries,
	})
}

// loadGuild fetches a guild row, mapping the missing case to a 404.
func (s *Server) loadGuild(c echo.Context, guildID int64) (*domain.Guild, error) {
	guild, err := s.deps.Repos.Guilds.GetByID(c.Request().Context(), guildID)
	if err != nil {
		if errors.Is(err, domain.ErrGuildNotFound) {
			return nil, apperrors.NotFoundError("guild not found, is the bot installed?")
		}
		return nil, apperrors.InternalError("failed to load guild", err)
	}
	return guild, nil
}
