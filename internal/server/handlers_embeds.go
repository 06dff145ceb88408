package server

import (
	"errors"
	"net/http"

	"github.com/acosmic/acosmibot-api/internal/discord"
	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

type embedRequest struct {
	Name      string              `json:"name"`
	ChannelID int64               `json:"channel_id,string"`
	Config    *domain.EmbedConfig `json:"config"`
}

func (r *embedRequest) validate() error {
	if r.Name == "" {
		return errors.New("embed name cannot be empty")
	}
	return r.Config.Validate()
}

func (s *Server) handleListEmbeds(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	embeds, err := s.deps.Repos.Embeds.ListByGuild(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to list embeds", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"embeds": embeds})
}

func (s *Server) handleCreateEmbed(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID := c.Get("userID").(int64)

	var req embedRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid embed payload")
	}
	if err := req.validate(); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	created, err := s.deps.Repos.Embeds.Create(c.Request().Context(), &domain.Embed{
		GuildID:   guildID,
		Name:      req.Name,
		ChannelID: req.ChannelID,
		Config:    req.Config,
		Status:    domain.EmbedStatusDraft,
		CreatedBy: userID,
	})
	if err != nil {
		return apperrors.InternalError("failed to create embed", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateEmbed(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	id, err := pathID(c, "embedID")
	if err != nil {
		return err
	}

	existing, err := s.loadEmbed(c, guildID, id)
	if err != nil {
		return err
	}

	var req embedRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid embed payload")
	}
	if err := req.validate(); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	existing.Name = req.Name
	existing.ChannelID = req.ChannelID
	existing.Config = req.Config

	updated, err := s.deps.Repos.Embeds.Update(c.Request().Context(), existing)
	if err != nil {
		return apperrors.InternalError("failed to update embed", err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteEmbed(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	id, err := pathID(c, "embedID")
	if err != nil {
		return err
	}

	if err := s.deps.Repos.Embeds.Delete(c.Request().Context(), guildID, id); err != nil {
		if errors.Is(err, domain.ErrEmbedNotFound) {
			return apperrors.NotFoundError("embed not found")
		}
		return apperrors.InternalError("failed to delete embed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSendEmbed(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	id, err := pathID(c, "embedID")
	if err != nil {
		return err
	}

	embed, err := s.loadEmbed(c, guildID, id)
	if err != nil {
		return err
	}
	if embed.ChannelID == 0 {
		return apperrors.ValidationError("embed has no target channel")
	}

	messageID, err := s.deps.Discord.SendMessage(embed.ChannelID, "", discord.BuildEmbed(embed.Config))
	if err != nil {
		return apperrors.ExternalError("failed to post embed", err).
			WithContext("channel_id", embed.ChannelID)
	}

	if err := s.deps.Repos.Embeds.MarkSent(ctx, guildID, id, messageID); err != nil {
		return apperrors.InternalError("failed to record sent message", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":     domain.EmbedStatusSent,
		"message_id": messageID,
	})
}

func (s *Server) handleDuplicateEmbed(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID := c.Get("userID").(int64)

	id, err := pathID(c, "embedID")
	if err != nil {
		return err
	}

	source, err := s.loadEmbed(c, guildID, id)
	if err != nil {
		return err
	}

	created, err := s.deps.Repos.Embeds.Create(c.Request().Context(), &domain.Embed{
		GuildID:   guildID,
		Name:      source.Name + " (copy)",
		ChannelID: source.ChannelID,
		Config:    source.Config,
		Status:    domain.EmbedStatusDraft,
		CreatedBy: userID,
	})
	if err != nil {
		return apperrors.InternalError("failed to duplicate embed", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleEmbedStats(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	total, sent, draft, err := s.deps.Repos.Embeds.Stats(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to load embed stats", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total": total, "sent": sent, "draft": draft,
	})
}

func (s *Server) loadEmbed(c echo.Context, guildID, id int64) (*domain.Embed, error) {
	embed, err := s.deps.Repos.Embeds.GetByID(c.Request().Context(), guildID, id)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedNotFound) {
			return nil, apperrors.NotFoundError("embed not found")
		}
		return nil, apperrors.InternalError("failed to load embed", err)
	}
	return embed, nil
}
