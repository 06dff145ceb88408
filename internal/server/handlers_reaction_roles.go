package server

import (
	"errors"
	"net/http"

	"github.com/acosmic/acosmibot-api/internal/discord"
	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

type reactionRoleRequest struct {
	Name      string               `json:"name"`
	ChannelID int64                `json:"channel_id,string"`
	Style     string               `json:"style"`
	Embed     *domain.EmbedConfig  `json:"embed"`
	Mappings  []domain.RoleMapping `json:"mappings"`
	Exclusive bool                 `json:"exclusive"`
}

func (s *Server) handleListReactionRoles(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	roles, err := s.deps.Repos.ReactionRoles.ListByGuild(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to list reaction roles", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"reaction_roles": roles})
}

func (s *Server) handleCreateReactionRole(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID := c.Get("userID").(int64)

	var req reactionRoleRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid reaction role payload")
	}

	rr := &domain.ReactionRole{
		GuildID:   guildID,
		Name:      req.Name,
		ChannelID: req.ChannelID,
		Style:     req.Style,
		Embed:     req.Embed,
		Mappings:  req.Mappings,
		Exclusive: req.Exclusive,
		Status:    domain.EmbedStatusDraft,
		CreatedBy: userID,
	}
	if err := rr.Validate(); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	created, err := s.deps.Repos.ReactionRoles.Create(c.Request().Context(), rr)
	if err != nil {
		return apperrors.InternalError("failed to create reaction role", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateReactionRole(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	id, err := pathID(c, "rrID")
	if err != nil {
		return err
	}

	existing, err := s.loadReactionRole(c, guildID, id)
	if err != nil {
		return err
	}

	var req reactionRoleRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid reaction role payload")
	}

	existing.Name = req.Name
	existing.ChannelID = req.ChannelID
	existing.Style = req.Style
	existing.Embed = req.Embed
	existing.Mappings = req.Mappings
	existing.Exclusive = req.Exclusive
	if err := existing.Validate(); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	updated, err := s.deps.Repos.ReactionRoles.Update(ctx, existing)
	if err != nil {
		return apperrors.InternalError("failed to update reaction role", err)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "reaction_roles_changed")
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteReactionRole(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	id, err := pathID(c, "rrID")
	if err != nil {
		return err
	}

	if err := s.deps.Repos.ReactionRoles.Delete(c.Request().Context(), guildID, id); err != nil {
		if errors.Is(err, domain.ErrReactionRoleNotFound) {
			return apperrors.NotFoundError("reaction role not found")
		}
		return apperrors.InternalError("failed to delete reaction role", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSendReactionRole posts the configured message to its channel. For
// emoji style the bot seeds one reaction per mapping so members can click
// instead of hunting for emojis.
func (s *Server) handleSendReactionRole(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	id, err := pathID(c, "rrID")
	if err != nil {
		return err
	}

	rr, err := s.loadReactionRole(c, guildID, id)
	if err != nil {
		return err
	}
	if rr.ChannelID == 0 {
		return apperrors.ValidationError("reaction role has no target channel")
	}

	messageID, err := s.deps.Discord.SendMessage(rr.ChannelID, "", discord.BuildEmbed(rr.Embed))
	if err != nil {
		return apperrors.ExternalError("failed to post reaction role message", err).
			WithContext("channel_id", rr.ChannelID)
	}

	if rr.Style == domain.ReactionStyleEmoji {
		for _, m := range rr.Mappings {
			if err := s.deps.Discord.AddReaction(rr.ChannelID, messageID, m.Emoji); err != nil {
				return apperrors.ExternalError("failed to seed reaction", err).
					WithContext("emoji", m.Emoji)
			}
		}
	}

	if err := s.deps.Repos.ReactionRoles.MarkSent(ctx, guildID, id, messageID); err != nil {
		return apperrors.InternalError("failed to record sent message", err)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "reaction_roles_changed")
	return c.JSON(http.StatusOK, map[string]any{
		"status":     domain.EmbedStatusSent,
		"message_id": messageID,
	})
}

func (s *Server) handleDuplicateReactionRole(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID := c.Get("userID").(int64)

	id, err := pathID(c, "rrID")
	if err != nil {
		return err
	}

	source, err := s.loadReactionRole(c, guildID, id)
	if err != nil {
		return err
	}

	dup := &domain.ReactionRole{
		GuildID:   guildID,
		Name:      source.Name + " (copy)",
		ChannelID: source.ChannelID,
		Style:     source.Style,
		Embed:     source.Embed,
		Mappings:  source.Mappings,
		Exclusive: source.Exclusive,
		Status:    domain.EmbedStatusDraft,
		CreatedBy: userID,
	}

	created, err := s.deps.Repos.ReactionRoles.Create(c.Request().Context(), dup)
	if err != nil {
		return apperrors.InternalError("failed to duplicate reaction role", err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleReactionRoleStats(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	total, sent, draft, err := s.deps.Repos.ReactionRoles.Stats(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to load reaction role stats", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"total": total, "sent": sent, "draft": draft,
	})
}

func (s *Server) loadReactionRole(c echo.Context, guildID, id int64) (*domain.ReactionRole, error) {
	rr, err := s.deps.Repos.ReactionRoles.GetByID(c.Request().Context(), guildID, id)
	if err != nil {
		if errors.Is(err, domain.ErrReactionRoleNotFound) {
			return nil, apperrors.NotFoundError("reaction role not found")
		}
		return nil, apperrors.InternalError("failed to load reaction role", err)
	}
	return rr, nil
}
