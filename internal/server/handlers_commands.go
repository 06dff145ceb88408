package server

import (
	"errors"
	"net/http"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

type commandRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	ResponseText string              `json:"response_text"`
	ResponseType string              `json:"response_type"`
	Embed        *domain.EmbedConfig `json:"embed"`
	Enabled      *bool               `json:"enabled"`
}

func (s *Server) handleListCommands(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	commands, err := s.deps.Repos.Commands.ListByGuild(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to list commands", err)
	}

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"commands": commands,
		"limit":    domain.MaxCustomCommands(guild.Tier()),
	})
}

func (s *Server) handleCreateCommand(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID := c.Get("userID").(int64)
	ctx := c.Request().Context()

	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid command payload")
	}

	guild, err := s.loadGuild(c, guildID)
	if err != nil {
		return err
	}

	count, err := s.deps.Repos.Commands.CountByGuild(ctx, guildID)
	if err != nil {
		return apperrors.InternalError("failed to count commands", err)
	}
	if limit := domain.MaxCustomCommands(guild.Tier()); count >= limit {
		return apperrors.ForbiddenError("command limit reached (upgrade to premium for more)").
			WithContext("limit", limit)
	}

	cmd := &domain.CustomCommand{
		GuildID:      guildID,
		Name:         req.Name,
		Description:  req.Description,
		ResponseText: req.ResponseText,
		ResponseType: req.ResponseType,
		Embed:        req.Embed,
		Enabled:      req.Enabled == nil || *req.Enabled,
		CreatedBy:    userID,
	}
	if err := cmd.Validate(); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	created, err := s.deps.Repos.Commands.Create(ctx, cmd)
	if err != nil {
		if errors.Is(err, domain.ErrCommandExists) {
			return apperrors.ConflictError("a command with that name already exists")
		}
		return apperrors.InternalError("failed to create command", err)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "commands_changed")
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateCommand(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	commandID, err := pathID(c, "commandID")
	if err != nil {
		return err
	}

	existing, err := s.deps.Repos.Commands.GetByID(ctx, guildID, commandID)
	if err != nil {
		if errors.Is(err, domain.ErrCommandNotFound) {
			return apperrors.NotFoundError("command not found")
		}
		return apperrors.InternalError("failed to load command", err)
	}

	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid command payload")
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.ResponseText = req.ResponseText
	existing.ResponseType = req.ResponseType
	existing.Embed = req.Embed
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	if err := existing.Validate(); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	updated, err := s.deps.Repos.Commands.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, domain.ErrCommandExists) {
			return apperrors.ConflictError("a command with that name already exists")
		}
		return apperrors.InternalError("failed to update command", err)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "commands_changed")
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleToggleCommand(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	commandID, err := pathID(c, "commandID")
	if err != nil {
		return err
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid payload")
	}

	if err := s.deps.Repos.Commands.SetEnabled(ctx, guildID, commandID, req.Enabled); err != nil {
		if errors.Is(err, domain.ErrCommandNotFound) {
			return apperrors.NotFoundError("command not found")
		}
		return apperrors.InternalError("failed to toggle command", err)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "commands_changed")
	return c.JSON(http.StatusOK, map[string]any{"enabled": req.Enabled})
}

func (s *Server) handleDeleteCommand(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	ctx := c.Request().Context()

	commandID, err := pathID(c, "commandID")
	if err != nil {
		return err
	}

	if err := s.deps.Repos.Commands.Delete(ctx, guildID, commandID); err != nil {
		if errors.Is(err, domain.ErrCommandNotFound) {
			return apperrors.NotFoundError("command not found")
		}
		return apperrors.InternalError("failed to delete command", err)
	}

	s.deps.Invalidate.PublishGuildConfig(ctx, guildID, "commands_changed")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCommandStats(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	usage, err := s.deps.Repos.Commands.UsageStats(c.Request().Context(), guildID)
	if err != nil {
		return apperrors.InternalError("failed to load command stats", err)
	}

	return c.JSON(http.StatusOK, map[string]any{"usage": usage})
}
