package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/acosmic/acosmibot-api/internal/redis"
	"github.com/labstack/echo/v4"
)

// handleLogin issues a one-time state and redirects the browser to the
// Discord consent page. An optional redirect_to query parameter is
// remembered and honored after the callback completes.
func (s *Server) handleLogin(c echo.Context) error {
	redirectTo := c.QueryParam("redirect_to")
	if !s.safeRedirect(redirectTo) {
		redirectTo = ""
	}

	state, err := s.deps.States.Issue(c.Request().Context(), redirectTo)
	if err != nil {
		return apperrors.InternalError("failed to start login flow", err)
	}

	return c.Redirect(http.StatusFound, s.deps.OAuth.AuthorizeURL(state))
}

func (s *Server) handleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	if errCode := c.QueryParam("error"); errCode != "" {
		metrics.AuthLoginsTotal.WithLabelValues("denied").Inc()
		return c.Redirect(http.StatusFound, s.dashboardRedirect("", "", "login_"+errCode))
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return apperrors.ValidationError("missing code or state parameter")
	}

	redirectTo, err := s.deps.States.Consume(ctx, state)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, redis.ErrStateNotFound) {
			return apperrors.UnauthorizedError("login state expired or already used")
		}
		return apperrors.InternalError("failed to verify login state", err)
	}

	accessToken, err := s.deps.OAuth.ExchangeCode(ctx, code)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return apperrors.ExternalError("discord token exchange failed", err)
	}

	identity, err := s.deps.OAuth.FetchIdentity(accessToken)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return apperrors.ExternalError("failed to fetch discord identity", err)
	}

	if _, err := s.deps.Repos.Users.Upsert(ctx, identity.ID, identity.Username, identity.GlobalName, identity.AvatarURL); err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return apperrors.InternalError("failed to record user", err)
	}

	if err := s.deps.Tokens.Save(ctx, identity.ID, accessToken); err != nil {
		return apperrors.InternalError("failed to store access token", err)
	}

	token, err := s.issueToken(identity.ID, identity.Username, time.Now())
	if err != nil {
		return apperrors.InternalError("failed to issue session token", err)
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	return c.Redirect(http.StatusFound, s.dashboardRedirect(redirectTo, token, ""))
}

func (s *Server) handleMe(c echo.Context) error {
	userID := c.Get("userID").(int64)

	user, err := s.deps.Repos.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NotFoundError("user not found")
		}
		return apperrors.InternalError("failed to load user", err)
	}

	return c.JSON(http.StatusOK, user)
}

// handleUserGuilds lists the guilds the caller can manage, using the
// Discord access token cached at login.
func (s *Server) handleUserGuilds(c echo.Context) error {
	userID := c.Get("userID").(int64)

	accessToken, err := s.deps.Tokens.Get(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, redis.ErrTokenNotFound) {
			return apperrors.UnauthorizedError("discord session expired, please log in again")
		}
		return apperrors.InternalError("failed to load access token", err)
	}

	guilds, err := s.deps.OAuth.FetchManageableGuilds(accessToken)
	if err != nil {
		return apperrors.ExternalError("failed to list guilds", err)
	}

	// Flag the guilds the bot is actually in so the dashboard can offer
	// an invite link for the rest.
	type guildEntry struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		IconURL   string `json:"icon_url"`
		Owner     bool   `json:"owner"`
		Installed bool   `json:"installed"`
	}
	entries := make([]guildEntry, 0, len(guilds))
	for _, g := range guilds {
		_, err := s.deps.Repos.Guilds.GetByID(c.Request().Context(), g.ID)
		entries = append(entries, guildEntry{
			ID:        strconv.FormatInt(g.ID, 10),
			Name:      g.Name,
			IconURL:   g.IconURL,
			Owner:     g.Owner,
			Installed: err == nil,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{"guilds": entries})
}

// safeRedirect allows only dashboard-relative paths as post-login targets.
func (s *Server) safeRedirect(target string) bool {
	if target == "" {
		return false
	}
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}

func (s *Server) dashboardRedirect(path, token, loginError string) string {
	base := s.config.DashboardURL
	if path != "" {
		u, err := url.Parse(base)
		if err == nil {
			u.Path = path
			base = u.String()
		}
	}

	q := url.Values{}
	if token != "" {
		q.Set("token", token)
	}
	if loginError != "" {
		q.Set("error", loginError)
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
