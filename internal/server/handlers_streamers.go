package server

import (
	"net/http"
	"strings"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

type trackRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleListStreamers(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	subs, err := s.deps.Repos.StreamSubs.ListForGuild(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to list streamers", err)
	}

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	type streamerEntry struct {
		Platform string `json:"platform"`
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	entries := make([]streamerEntry, 0, len(subs))
	for _, sub := range subs {
		entries = append(entries, streamerEntry{
			Platform: sub.Platform,
			ID:       sub.BroadcasterID,
			Username: sub.BroadcasterUsername,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"streamers": entries,
		"limit":     domain.MaxTrackedStreamers(guild.Tier()),
	})
}

// checkStreamerLimit enforces the per-tier tracked streamer cap before a
// new platform subscription is created.
func (s *Server) checkStreamerLimit(c echo.Context, guildID int64) error {
	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	subs, err := s.deps.Repos.StreamSubs.ListForGuild(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to count streamers", err)
	}

	if limit := domain.MaxTrackedStreamers(guild.Tier()); len(subs) >= limit {
		return apperrors.ForbiddenError("streamer limit reached (upgrade to premium for more)").
			WithContext("limit", limit)
	}
	return nil
}

// --- Twitch ---

func (s *Server) handleTwitchValidate(c echo.Context) error {
	login := strings.TrimSpace(c.QueryParam("username"))
	if login == "" {
		return apperrors.ValidationError("username query parameter is required")
	}

	streamer, err := s.deps.TwitchManager.Resolve(login)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]any{"valid": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":         true,
		"id":            streamer.ID,
		"login":         streamer.Login,
		"display_name":  streamer.DisplayName,
		"profile_image": streamer.ProfileImage,
	})
}

func (s *Server) handleTwitchTrack(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	var req trackRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return apperrors.ValidationError("username is required")
	}

	if err := s.checkStreamerLimit(c, guildID); err != nil {
		return err
	}

	streamer, err := s.deps.TwitchManager.Track(ctx, guildID, strings.TrimSpace(req.Username))
	if err != nil {
		return apperrors.ExternalError("failed to track streamer", err).
			WithContext("username", req.Username)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "streamers_changed")
	return c.JSON(http.StatusCreated, map[string]any{
		"platform": domain.PlatformTwitch,
		"id":       streamer.ID,
		"username": streamer.Login,
	})
}

func (s *Server) handleTwitchUntrack(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	login := c.Param("login")
	if err := s.deps.TwitchManager.Untrack(ctx, guildID, login); err != nil {
		return apperrors.ExternalError("failed to untrack streamer", err).
			WithContext("username", login)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "streamers_changed")
	return c.NoContent(http.StatusNoContent)
}

// --- Kick ---

func (s *Server) handleKickValidate(c echo.Context) error {
	slug := strings.TrimSpace(c.QueryParam("username"))
	if slug == "" {
		return apperrors.ValidationError("username query parameter is required")
	}

	channel, err := s.deps.KickManager.Resolve(c.Request().Context(), slug)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]any{"valid": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":         true,
		"id":            channel.BroadcasterID,
		"username":      channel.Slug,
		"profile_image": channel.ProfileImage,
	})
}

func (s *Server) handleKickTrack(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	var req trackRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return apperrors.ValidationError("username is required")
	}

	if err := s.checkStreamerLimit(c, guildID); err != nil {
		return err
	}

	channel, err := s.deps.KickManager.Track(ctx, guildID, strings.TrimSpace(req.Username))
	if err != nil {
		return apperrors.ExternalError("failed to track channel", err).
			WithContext("username", req.Username)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "streamers_changed")
	return c.JSON(http.StatusCreated, map[string]any{
		"platform": domain.PlatformKick,
		"id":       channel.BroadcasterID,
		"username": channel.Slug,
	})
}

func (s *Server) handleKickUntrack(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	slug := c.Param("slug")
	if err := s.deps.KickManager.Untrack(ctx, guildID, slug); err != nil {
		return apperrors.ExternalError("failed to untrack channel", err).
			WithContext("username", slug)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "streamers_changed")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleKickChannel(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	ctx := c.Request().Context()

	channel, err := s.deps.KickManager.Resolve(ctx, slug)
	if err != nil {
		return apperrors.NotFoundError("channel not found").WithContext("slug", slug)
	}

	stream, err := s.deps.KickManager.Stream(ctx, slug)
	if err != nil {
		return apperrors.ExternalError("failed to fetch stream info", err).
			WithContext("slug", slug)
	}

	resp := map[string]any{
		"id":            channel.BroadcasterID,
		"username":      channel.Slug,
		"profile_image": channel.ProfileImage,
		"is_live":       stream != nil,
	}
	if stream != nil {
		resp["stream"] = map[string]any{
			"title":        stream.Title,
			"category":     stream.GameName,
			"viewer_count": stream.ViewerCount,
			"thumbnail":    stream.ThumbnailURL,
			"started_at":   stream.StartedAt,
			"url":          stream.URL,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// --- YouTube ---

func (s *Server) handleYouTubeValidate(c echo.Context) error {
	handle := strings.TrimSpace(c.QueryParam("username"))
	if handle == "" {
		return apperrors.ValidationError("username query parameter is required")
	}

	channel, err := s.deps.YouTubeManager.Resolve(c.Request().Context(), handle)
	if err != nil {
		return c.JSON(http.StatusOK, map[string]any{"valid": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":         true,
		"id":            channel.ID,
		"username":      channel.Title,
		"profile_image": channel.Thumbnail,
	})
}

func (s *Server) handleYouTubeCheckLive(c echo.Context) error {
	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Channel) == "" {
		return apperrors.ValidationError("channel is required")
	}
	ctx := c.Request().Context()

	channel, err := s.deps.YouTubeManager.Resolve(ctx, strings.TrimSpace(req.Channel))
	if err != nil {
		return apperrors.NotFoundError("channel not found").WithContext("channel", req.Channel)
	}

	video, err := s.deps.YouTubeManager.CheckLive(ctx, channel.ID)
	if err != nil {
		return apperrors.ExternalError("failed to check live status", err).
			WithContext("channel_id", channel.ID)
	}

	resp := map[string]any{
		"channel_id": channel.ID,
		"title":      channel.Title,
		"is_live":    video != nil && video.IsLive,
	}
	if video != nil && video.IsLive {
		resp["video"] = map[string]any{
			"id":                 video.ID,
			"title":              video.Title,
			"thumbnail":          video.Thumbnail,
			"concurrent_viewers": video.ConcurrentViewers,
			"started_at":         video.ActualStartTime,
			"url":                "https://www.youtube.com/watch?v=" + video.ID,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleYouTubeTrack(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	var req trackRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		return apperrors.ValidationError("username is required")
	}

	if err := s.checkStreamerLimit(c, guildID); err != nil {
		return err
	}

	channel, err := s.deps.YouTubeManager.Track(ctx, guildID, strings.TrimSpace(req.Username))
	if err != nil {
		return apperrors.ExternalError("failed to track channel", err).
			WithContext("username", req.Username)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "streamers_changed")
	return c.JSON(http.StatusCreated, map[string]any{
		"platform": domain.PlatformYouTube,
		"id":       channel.ID,
		"username": channel.Title,
	})
}

func (s *Server) handleYouTubeUntrack(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	channel := c.Param("channel")
	if err := s.deps.YouTubeManager.Untrack(ctx, guildID, channel); err != nil {
		return apperrors.ExternalError("failed to untrack channel", err).
			WithContext("channel", channel)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "streamers_changed")
	return c.NoContent(http.StatusNoContent)
}
