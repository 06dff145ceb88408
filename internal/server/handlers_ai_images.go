package server

import (
	"net/http"
	"strconv"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

// handleAIImageStats returns a guild's image usage alongside its tier
// limits, so the dashboard can render usage bars.
func (s *Server) handleAIImageStats(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	stats, err := s.deps.Repos.AIImages.UsageStats(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to get image stats", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"stats":  stats,
		"limits": domain.AIImageLimitsForTier(guild.Tier()),
	})
}

func (s *Server) handleGuildAIImages(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	imageType := c.QueryParam("type")
	if imageType != "" && !domain.ValidAIImageType(imageType) {
		return apperrors.ValidationError("type must be 'generation' or 'analysis'")
	}
	limit := intQueryParam(c, "limit", 50, 100)

	images, err := s.deps.Repos.AIImages.ListForGuild(c.Request().Context(), guildID, imageType, limit)
	if err != nil {
		return apperrors.InternalError("failed to list images", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count":  len(images),
		"images": images,
	})
}

// handleUserAIImages lists the caller's own images. Image prompts can be
// personal, so other users' histories are off limits.
func (s *Server) handleUserAIImages(c echo.Context) error {
	userID, err := pathID(c, "userID")
	if err != nil {
		return err
	}
	if userID != c.Get("userID").(int64) {
		return apperrors.ForbiddenError("you can only view your own images")
	}

	imageType := c.QueryParam("type")
	if imageType != "" && !domain.ValidAIImageType(imageType) {
		return apperrors.ValidationError("type must be 'generation' or 'analysis'")
	}
	var guildID int64
	if raw := c.QueryParam("guild_id"); raw != "" {
		if guildID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return apperrors.ValidationError("invalid guild_id")
		}
	}
	limit := intQueryParam(c, "limit", 50, 100)

	images, err := s.deps.Repos.AIImages.ListForUser(c.Request().Context(), userID, guildID, imageType, limit)
	if err != nil {
		return apperrors.InternalError("failed to list images", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count":  len(images),
		"images": images,
	})
}
