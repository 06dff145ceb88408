package server

import (
	"net/http"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetPortalConfig(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	portal := domain.DefaultSettings().CrossServerPortal
	if guild.Settings != nil && guild.Settings.CrossServerPortal != nil {
		portal = guild.Settings.CrossServerPortal
	}

	return c.JSON(http.StatusOK, map[string]any{"portal": portal})
}

// handleUpdatePortalConfig replaces only the portal section; the rest of
// the settings document is revalidated as a whole so tier limits stay
// enforced.
func (s *Server) handleUpdatePortalConfig(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	var portal domain.PortalSettings
	if err := c.Bind(&portal); err != nil {
		return apperrors.ValidationError("invalid portal payload")
	}

	settings := guild.Settings
	if settings == nil {
		settings = domain.DefaultSettings()
	}
	settings.CrossServerPortal = &portal

	if err := settings.Validate(guild.Tier()); err != nil {
		return apperrors.ValidationError(err.Error())
	}
	if err := s.deps.Repos.Guilds.UpdateSettings(ctx, guildID, settings); err != nil {
		return apperrors.InternalError("failed to save portal config", err).
			WithContext("guild_id", guildID)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "portal_updated")

	return c.JSON(http.StatusOK, map[string]any{"portal": &portal})
}

// handleSearchPortals lists guilds with open portals, filtered by name.
func (s *Server) handleSearchPortals(c echo.Context) error {
	query := c.QueryParam("q")
	limit := intQueryParam(c, "limit", 25, 100)

	listings, err := s.deps.Repos.Guilds.SearchPortals(c.Request().Context(), query, limit)
	if err != nil {
		return apperrors.InternalError("failed to search portals", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"portals": listings})
}
