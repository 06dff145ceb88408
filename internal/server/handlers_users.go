package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

// handleUserProfile returns the bot-tracked profile of any known user.
func (s *Server) handleUserProfile(c echo.Context) error {
	userID, err := pathID(c, "userID")
	if err != nil {
		return err
	}

	user, err := s.deps.Repos.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NotFoundError("user not found")
		}
		return apperrors.InternalError("failed to load user", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":              strconv.FormatInt(user.ID, 10),
		"username":        user.Username,
		"global_name":     user.GlobalName,
		"avatar_url":      user.Avatar(),
		"global_level":    user.GlobalLevel,
		"global_exp":      user.GlobalExp,
		"total_currency":  user.TotalCurrency,
		"total_messages":  user.TotalMessages,
		"total_reactions": user.TotalReactions,
	})
}

// rankMetrics are the metrics a user can be ranked on globally.
var rankMetrics = map[string]bool{"currency": true, "exp": true}

func (s *Server) handleUserRank(c echo.Context) error {
	userID, err := pathID(c, "userID")
	if err != nil {
		return err
	}
	metric := c.Param("metric")
	if !rankMetrics[metric] {
		return apperrors.ValidationError("metric must be one of: currency, exp")
	}

	rank, value, err := s.deps.Repos.Users.Rank(c.Request().Context(), userID, metric)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NotFoundError("user not found")
		}
		return apperrors.InternalError("failed to compute rank", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user_id": strconv.FormatInt(userID, 10),
		"metric":  metric,
		"rank":    rank,
		"value":   value,
	})
}

// handleUserMemberships lists the guilds the bot shares with a user.
func (s *Server) handleUserMemberships(c echo.Context) error {
	userID, err := pathID(c, "userID")
	if err != nil {
		return err
	}

	memberships, err := s.deps.Repos.GuildUsers.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return apperrors.InternalError("failed to list memberships", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"guilds": memberships})
}

// handleGuildUserStats returns one member's activity row within a guild.
func (s *Server) handleGuildUserStats(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID, err := pathID(c, "userID")
	if err != nil {
		return err
	}

	member, err := s.deps.Repos.GuildUsers.Get(c.Request().Context(), guildID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrGuildUserNotFound) {
			return apperrors.NotFoundError("user is not a member of this guild")
		}
		return apperrors.InternalError("failed to load member stats", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"guild_id":      strconv.FormatInt(member.GuildID, 10),
		"user_id":       strconv.FormatInt(member.UserID, 10),
		"nickname":      member.Nickname,
		"level":         member.Level,
		"exp":           member.Exp,
		"currency":      member.Currency,
		"messages_sent": member.MessagesSent,
		"is_active":     member.IsActive,
		"joined_at":     member.JoinedAt,
		"last_active":   member.LastActive,
	})
}

// handleGlobalStats reports bot-wide totals for the public stats page.
func (s *Server) handleGlobalStats(c echo.Context) error {
	ctx := c.Request().Context()

	guilds, err := s.deps.Repos.Guilds.Count(ctx)
	if err != nil {
		return apperrors.InternalError("failed to count guilds", err)
	}
	users, err := s.deps.Repos.Users.Count(ctx)
	if err != nil {
		return apperrors.InternalError("failed to count users", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total_guilds": guilds,
		"total_users":  users,
	})
}
