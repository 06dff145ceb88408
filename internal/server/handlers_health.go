package server

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/acosmic/acosmibot-api/internal/version"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"version": version.Get(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		ping func(context.Context) error
	}{
		{"postgres", s.deps.Pool.Ping},
		{"redis", s.deps.Redis.Ping},
	}

	for _, check := range checks {
		if err := check.ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":       "unavailable",
				"failed_check": check.name,
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}

// inviteScopes and invitePermissions mirror the permissions the bot is
// deployed with; the invite URL is assembled from the configured client id.
const (
	inviteScopes      = "bot applications.commands"
	invitePermissions = "277062143040"
)

func (s *Server) handleBotInvite(c echo.Context) error {
	q := url.Values{}
	q.Set("client_id", s.config.DiscordClientID)
	q.Set("scope", inviteScopes)
	q.Set("permissions", invitePermissions)
	return c.Redirect(http.StatusFound, "https://discord.com/oauth2/authorize?"+q.Encode())
}

// handleEndpoints lists the registered routes, a small self-documentation
// aid for the dashboard developers.
func (s *Server) handleEndpoints(c echo.Context) error {
	type endpoint struct {
		Method string `json:"method"`
		Path   string `json:"path"`
	}

	var endpoints []endpoint
	for _, route := range s.echo.Routes() {
		endpoints = append(endpoints, endpoint{Method: route.Method, Path: route.Path})
	}
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Path != endpoints[j].Path {
			return endpoints[i].Path < endpoints[j].Path
		}
		return endpoints[i].Method < endpoints[j].Method
	})

	return c.JSON(http.StatusOK, map[string]any{"endpoints": endpoints})
}
