package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/labstack/echo/v4"
)

const activeWindow = 7 * 24 * time.Hour

// handleAdminCheck confirms the caller's admin status for the dashboard.
// requireAdmin already rejected non-admins before this runs.
func (s *Server) handleAdminCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"is_admin": true,
		"role":     c.Get("adminRole"),
	})
}

func (s *Server) handleAdminGuildDetail(c echo.Context) error {
	guildID, err := pathID(c, "guildID")
	if err != nil {
		return err
	}

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}
	stats, err := s.deps.Repos.Guilds.Stats(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to load guild stats", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"guild": guild,
		"stats": stats,
	})
}

func (s *Server) handleAdminOverview(c echo.Context) error {
	ctx := c.Request().Context()
	cutoff := time.Now().Add(-activeWindow)

	guildCount, err := s.deps.Repos.Guilds.Count(ctx)
	if err != nil {
		return apperrors.InternalError("failed to count guilds", err)
	}
	userCount, err := s.deps.Repos.Users.Count(ctx)
	if err != nil {
		return apperrors.InternalError("failed to count users", err)
	}
	activeGuilds, err := s.deps.Repos.Guilds.ActiveSince(ctx, cutoff)
	if err != nil {
		return apperrors.InternalError("failed to count active guilds", err)
	}
	activeUsers, err := s.deps.Repos.Users.ActiveSince(ctx, cutoff)
	if err != nil {
		return apperrors.InternalError("failed to count active users", err)
	}
	activeSubs, err := s.deps.Repos.Subscriptions.CountActive(ctx)
	if err != nil {
		return apperrors.InternalError("failed to count subscriptions", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total_guilds":         guildCount,
		"total_users":          userCount,
		"active_guilds_7d":     activeGuilds,
		"active_users_7d":      activeUsers,
		"active_subscriptions": activeSubs,
	})
}

func (s *Server) handleAdminGuilds(c echo.Context) error {
	limit, offset := pagination(c)

	guilds, err := s.deps.Repos.Guilds.List(c.Request().Context(), limit, offset)
	if err != nil {
		return apperrors.InternalError("failed to list guilds", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"guilds": guilds,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleAdminList(c echo.Context) error {
	admins, err := s.deps.Repos.Admins.List(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list admins", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"admins": admins})
}

func (s *Server) handleAdminAdd(c echo.Context) error {
	if err := s.requireSuperAdmin(c); err != nil {
		return err
	}
	callerID := c.Get("userID").(int64)
	ctx := c.Request().Context()

	var req struct {
		DiscordID string `json:"discord_id"`
		Username  string `json:"username"`
		Role      string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid admin payload")
	}
	discordID, err := strconv.ParseInt(req.DiscordID, 10, 64)
	if err != nil {
		return apperrors.ValidationError("discord_id must be a numeric snowflake")
	}
	if req.Role != domain.AdminRoleAdmin && req.Role != domain.AdminRoleSuperAdmin {
		return apperrors.ValidationError("role must be 'admin' or 'super_admin'")
	}

	if err := s.deps.Repos.Admins.Add(ctx, discordID, req.Username, req.Role, callerID); err != nil {
		return apperrors.InternalError("failed to add admin", err)
	}

	s.recordAudit(c, "admin_added", "admin", req.DiscordID, map[string]any{
		"role": req.Role, "username": req.Username,
	})
	return c.NoContent(http.StatusCreated)
}

func (s *Server) handleAdminRemove(c echo.Context) error {
	if err := s.requireSuperAdmin(c); err != nil {
		return err
	}
	callerID := c.Get("userID").(int64)
	ctx := c.Request().Context()

	discordID, err := pathID(c, "discordID")
	if err != nil {
		return err
	}
	if discordID == callerID {
		return apperrors.ValidationError("cannot remove yourself")
	}

	if err := s.deps.Repos.Admins.Remove(ctx, discordID); err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return apperrors.NotFoundError("admin not found")
		}
		return apperrors.InternalError("failed to remove admin", err)
	}

	s.recordAudit(c, "admin_removed", "admin", c.Param("discordID"), nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAdminAudit(c echo.Context) error {
	limit, offset := pagination(c)

	entries, err := s.deps.Repos.Admins.ListAudit(c.Request().Context(), limit, offset)
	if err != nil {
		return apperrors.InternalError("failed to list audit log", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleAdminGetSettings(c echo.Context) error {
	category := c.Param("category")

	settings, err := s.deps.Repos.Admins.GetGlobalSettings(c.Request().Context(), category)
	if err != nil {
		return apperrors.InternalError("failed to load global settings", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"category": category,
		"settings": settings,
	})
}

func (s *Server) handleAdminSetSetting(c echo.Context) error {
	callerID := c.Get("userID").(int64)
	category := c.Param("category")
	ctx := c.Request().Context()

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil || req.Key == "" {
		return apperrors.ValidationError("key is required")
	}

	if err := s.deps.Repos.Admins.SetGlobalSetting(ctx, category, req.Key, req.Value, callerID); err != nil {
		return apperrors.InternalError("failed to save global setting", err)
	}

	s.recordAudit(c, "global_setting_updated", "setting", category+"."+req.Key, map[string]any{
		"value": req.Value,
	})
	return c.NoContent(http.StatusNoContent)
}

// requireSuperAdmin gates destructive admin operations behind the
// super_admin role set by requireAdmin.
func (s *Server) requireSuperAdmin(c echo.Context) error {
	if role, _ := c.Get("adminRole").(string); role != domain.AdminRoleSuperAdmin {
		return apperrors.ForbiddenError("super admin access required")
	}
	return nil
}

// recordAudit writes an audit entry for a completed admin action. A
// failed write is logged but never fails the action itself.
func (s *Server) recordAudit(c echo.Context, action, targetType, targetID string, changes map[string]any) {
	metrics.AdminActionsTotal.WithLabelValues(action).Inc()
	entry := &domain.AuditLogEntry{
		AdminID:       c.Get("userID").(int64),
		AdminUsername: c.Get("username").(string),
		ActionType:    action,
		TargetType:    targetType,
		TargetID:      targetID,
		Changes:       changes,
		IPAddress:     c.RealIP(),
	}
	if err := s.deps.Repos.Admins.RecordAudit(c.Request().Context(), entry); err != nil {
		slog.Error("failed to record audit entry", "action", action, "error", err)
	}
}
