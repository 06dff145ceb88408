package server

import (
	"net/http"

	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

// The dashboard needs live role, channel, and emoji lists to build its
// pickers. These proxy the bot's REST view of the guild.

func (s *Server) handleGuildRoles(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	roles, err := s.deps.Discord.Roles(guildID)
	if err != nil {
		return apperrors.ExternalError("failed to fetch roles", err).
			WithContext("guild_id", guildID)
	}

	type roleEntry struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Color    int    `json:"color"`
		Position int    `json:"position"`
		Managed  bool   `json:"managed"`
	}
	entries := make([]roleEntry, 0, len(roles))
	for _, r := range roles {
		entries = append(entries, roleEntry{
			ID: r.ID, Name: r.Name, Color: r.Color,
			Position: r.Position, Managed: r.Managed,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"roles": entries})
}

func (s *Server) handleGuildChannels(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	channels, err := s.deps.Discord.TextChannels(guildID)
	if err != nil {
		return apperrors.ExternalError("failed to fetch channels", err).
			WithContext("guild_id", guildID)
	}

	type channelEntry struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	entries := make([]channelEntry, 0, len(channels))
	for _, ch := range channels {
		entries = append(entries, channelEntry{ID: ch.ID, Name: ch.Name, Position: ch.Position})
	}
	return c.JSON(http.StatusOK, map[string]any{"channels": entries})
}

func (s *Server) handleGuildEmojis(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	emojis, err := s.deps.Discord.Emojis(guildID)
	if err != nil {
		return apperrors.ExternalError("failed to fetch emojis", err).
			WithContext("guild_id", guildID)
	}

	type emojiEntry struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Animated bool   `json:"animated"`
	}
	entries := make([]emojiEntry, 0, len(emojis))
	for _, e := range emojis {
		entries = append(entries, emojiEntry{ID: e.ID, Name: e.Name, Animated: e.Animated})
	}
	return c.JSON(http.StatusOK, map[string]any{"emojis": entries})
}
