package server

import (
	"errors"
	"net/http"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleCheckout(c echo.Context) error {
	guildID := c.Get("guildID").(int64)
	userID := c.Get("userID").(int64)

	var req struct {
		Tier string `json:"tier"`
	}
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid checkout payload")
	}

	url, err := s.deps.Billing.CreateCheckoutSession(c.Request().Context(), guildID, req.Tier, userID)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.ExternalError("failed to create checkout session", err).
			WithContext("guild_id", guildID)
	}

	return c.JSON(http.StatusOK, map[string]any{"checkout_url": url})
}

func (s *Server) handleCancelSubscription(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	sub, err := s.deps.Billing.CancelSubscription(c.Request().Context(), guildID)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return apperrors.NotFoundError("no active subscription for this guild")
		}
		return apperrors.ExternalError("failed to cancel subscription", err).
			WithContext("guild_id", guildID)
	}

	return c.JSON(http.StatusOK, sub)
}

func (s *Server) handlePortal(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	url, err := s.deps.Billing.CreatePortalSession(c.Request().Context(), guildID)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return apperrors.NotFoundError("no subscription for this guild")
		}
		return apperrors.ExternalError("failed to create billing portal session", err).
			WithContext("guild_id", guildID)
	}

	return c.JSON(http.StatusOK, map[string]any{"portal_url": url})
}

func (s *Server) handleSubscriptionStatus(c echo.Context) error {
	guildID := c.Get("guildID").(int64)

	sub, err := s.deps.Billing.SubscriptionStatus(c.Request().Context(), guildID)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return c.JSON(http.StatusOK, map[string]any{
				"tier":   domain.TierFree,
				"status": "none",
			})
		}
		return apperrors.InternalError("failed to load subscription", err)
	}

	return c.JSON(http.StatusOK, sub)
}
