package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// HandleWebhook is the POST /api/stripe/webhook endpoint. Signatures are
// verified by the Stripe SDK; unrecognized event types are acknowledged
// and skipped so Stripe does not retry them forever.
func (s *Service) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	event, err := webhook.ConstructEvent(body, c.Request().Header.Get("Stripe-Signature"), s.cfg.WebhookSecret)
	if err != nil {
		logging.Logger.Warn("rejected stripe webhook with bad signature", "remote_ip", c.RealIP(), "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	metrics.StripeEventsTotal.WithLabelValues(string(event.Type)).Inc()
	ctx := c.Request().Context()

	switch event.Type {
	case "checkout.session.completed":
		err = s.handleCheckoutCompleted(ctx, &event)
	case "customer.subscription.updated":
		err = s.handleSubscriptionUpdated(ctx, &event)
	case "customer.subscription.deleted":
		err = s.handleSubscriptionDeleted(ctx, &event)
	case "invoice.payment_failed":
		err = s.handlePaymentFailed(ctx, &event)
	case "invoice.payment_succeeded":
		err = s.handlePaymentSucceeded(ctx, &event)
	default:
		logging.Logger.Debug("ignoring stripe event", "type", event.Type)
	}

	if err != nil {
		logging.Logger.Error("failed to process stripe event", "type", event.Type, "event_id", event.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process event")
	}
	return c.NoContent(http.StatusOK)
}

func unixTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// metadataGuildAndTier pulls the guild id and tier we stamped on the
// subscription at checkout.
func metadataGuildAndTier(metadata map[string]string) (int64, string, error) {
	guildID, err := strconv.ParseInt(metadata["guild_id"], 10, 64)
	if err != nil {
		return 0, "", errors.New("missing or malformed guild_id metadata")
	}
	tier := metadata["tier"]
	if tier == "" {
		tier = domain.TierPremium
	}
	return guildID, tier, nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}

	guildID, tier, err := metadataGuildAndTier(session.Metadata)
	if err != nil {
		return err
	}
	if session.Subscription == nil {
		return errors.New("checkout session has no subscription")
	}

	// The session carries only the subscription id; fetch the full object
	// for period bounds.
	stripeSub, err := s.sc.Subscriptions.Get(session.Subscription.ID, nil)
	if err != nil {
		return err
	}

	_, err = s.subscriptions.Upsert(ctx, &domain.Subscription{
		GuildID:              guildID,
		Tier:                 tier,
		StripeSubscriptionID: stripeSub.ID,
		StripeCustomerID:     stripeSub.Customer.ID,
		Status:               domain.SubscriptionStatusActive,
		CurrentPeriodStart:   unixTime(stripeSub.CurrentPeriodStart),
		CurrentPeriodEnd:     unixTime(stripeSub.CurrentPeriodEnd),
		CancelAtPeriodEnd:    stripeSub.CancelAtPeriodEnd,
	})
	if err != nil {
		return err
	}

	if err := s.guilds.UpdateSubscription(ctx, guildID, tier, domain.SubscriptionStatusActive); err != nil {
		return err
	}
	s.invalidate.PublishGuildConfig(ctx, guildID, "subscription_activated")
	logging.WithGuild(guildID).Info("guild subscription activated", "tier", tier)
	return nil
}

// mapStripeStatus reduces Stripe's status vocabulary to the three states
// the bot distinguishes.
func mapStripeStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncomplete:
		return domain.SubscriptionStatusPastDue
	default:
		return domain.SubscriptionStatusCanceled
	}
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return err
	}

	guildID, tier, err := metadataGuildAndTier(stripeSub.Metadata)
	if err != nil {
		// Not one of ours (no metadata): acknowledge without action.
		logging.Logger.Debug("stripe subscription without guild metadata", "subscription_id", stripeSub.ID)
		return nil
	}

	status := mapStripeStatus(stripeSub.Status)
	sub := &domain.Subscription{
		GuildID:              guildID,
		Tier:                 tier,
		StripeSubscriptionID: stripeSub.ID,
		StripeCustomerID:     stripeSub.Customer.ID,
		Status:               status,
		CurrentPeriodStart:   unixTime(stripeSub.CurrentPeriodStart),
		CurrentPeriodEnd:     unixTime(stripeSub.CurrentPeriodEnd),
		CancelAtPeriodEnd:    stripeSub.CancelAtPeriodEnd,
	}
	if stripeSub.CancelAt > 0 {
		t := unixTime(stripeSub.CancelAt)
		sub.CancelAt = &t
	}
	if _, err := s.subscriptions.Upsert(ctx, sub); err != nil {
		return err
	}

	guildTier := tier
	if status == domain.SubscriptionStatusCanceled {
		guildTier = domain.TierFree
	}
	if err := s.guilds.UpdateSubscription(ctx, guildID, guildTier, status); err != nil {
		return err
	}
	s.invalidate.PublishGuildConfig(ctx, guildID, "subscription_updated")
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return err
	}

	sub, err := s.subscriptions.GetByStripeSubscriptionID(ctx, stripeSub.ID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.subscriptions.UpdateStatus(ctx, stripeSub.ID, domain.SubscriptionStatusCanceled); err != nil {
		return err
	}
	if err := s.guilds.UpdateSubscription(ctx, sub.GuildID, domain.TierFree, domain.SubscriptionStatusCanceled); err != nil {
		return err
	}
	s.invalidate.PublishGuildConfig(ctx, sub.GuildID, "subscription_canceled")
	logging.WithGuild(sub.GuildID).Info("guild subscription canceled")
	return nil
}

func (s *Service) invoiceStatusChange(ctx context.Context, event *stripe.Event, status string) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return err
	}
	if invoice.Subscription == nil {
		return nil
	}

	sub, err := s.subscriptions.GetByStripeSubscriptionID(ctx, invoice.Subscription.ID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sub.Status == status {
		return nil
	}

	if err := s.subscriptions.UpdateStatus(ctx, invoice.Subscription.ID, status); err != nil {
		return err
	}
	if err := s.guilds.UpdateSubscription(ctx, sub.GuildID, sub.Tier, status); err != nil {
		return err
	}
	s.invalidate.PublishGuildConfig(ctx, sub.GuildID, "subscription_"+status)
	return nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, event *stripe.Event) error {
	return s.invoiceStatusChange(ctx, event, domain.SubscriptionStatusPastDue)
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, event *stripe.Event) error {
	return s.invoiceStatusChange(ctx, event, domain.SubscriptionStatusActive)
}
