package server

import (
	"errors"
	"strconv"
	"strings"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// requireAuth validates the Bearer token and stores the caller's identity
// on the context under "userID" and "username".
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		userID, username, err := s.parseToken(raw)
		if err != nil {
			return apperrors.UnauthorizedError("invalid or expired token")
		}

		c.Set("userID", userID)
		c.Set("username", username)
		return next(c)
	}
}

// requireGuildAccess parses the :id path parameter and checks that the
// caller owns or can manage the guild. The parsed id lands on the context
// under "guildID".
func (s *Server) requireGuildAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		guildID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return apperrors.ValidationError("invalid guild id")
		}

		userID := c.Get("userID").(int64)
		allowed, err := s.deps.Discord.HasDashboardAccess(guildID, userID)
		if err != nil {
			return apperrors.ExternalError("failed to check guild permissions", err).
				WithContext("guild_id", guildID)
		}
		if !allowed {
			return apperrors.ForbiddenError("you do not have access to this guild")
		}

		c.Set("guildID", guildID)
		return next(c)
	}
}

// requireAdmin restricts a route to registered admin users.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Get("userID").(int64)
		admin, err := s.deps.Repos.Admins.GetByDiscordID(c.Request().Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrAdminNotFound) {
				return apperrors.ForbiddenError("admin access required")
			}
			return apperrors.InternalError("failed to check admin status", err)
		}

		c.Set("adminRole", admin.Role)
		return next(c)
	}
}

// webhookRateLimiter throttles unauthenticated webhook endpoints per
// client IP. Platforms retry on 429, so throttled deliveries are not lost.
func webhookRateLimiter() echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(30),
			Burst: 60,
		},
	))
}
