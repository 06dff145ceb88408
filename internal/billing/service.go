package billing

import (
	"context"
	"fmt"
	"strconv"

	apperrors "github.com/acosmic/acosmibot-api/internal/errors"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type subscriptionStore interface {
	GetByGuildID(ctx context.Context, guildID int64) (*domain.Subscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*domain.Subscription, error)
	Upsert(ctx context.Context, s *domain.Subscription) (*domain.Subscription, error)
	UpdateStatus(ctx context.Context, stripeSubID, status string) error
}

type guildStore interface {
	GetByID(ctx context.Context, guildID int64) (*domain.Guild, error)
	UpdateSubscription(ctx context.Context, guildID int64, tier, status string) error
}

type invalidator interface {
	PublishGuildConfig(ctx context.Context, guildID int64, reason string)
}

// Config carries the Stripe keys and the price ids for each paid tier.
type Config struct {
	SecretKey          string
	WebhookSecret      string
	PremiumPriceID     string
	PremiumPlusPriceID string
	DashboardURL       string
}

// Service wraps the Stripe client for guild subscription management.
type Service struct {
	sc            *client.API
	cfg           Config
	subscriptions subscriptionStore
	guilds        guildStore
	invalidate    invalidator
}

func NewService(cfg Config, subscriptions subscriptionStore, guilds guildStore, invalidate invalidator) *Service {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &Service{sc: sc, cfg: cfg, subscriptions: subscriptions, guilds: guilds, invalidate: invalidate}
}

func (s *Service) priceForTier(tier string) (string, error) {
	switch tier {
	case domain.TierPremium:
		return s.cfg.PremiumPriceID, nil
	case domain.TierPremiumPlus:
		return s.cfg.PremiumPlusPriceID, nil
	}
	return "", apperrors.ValidationError(fmt.Sprintf("unknown tier %q", tier))
}

// CreateCheckoutSession starts a Stripe checkout for upgrading the guild.
// Guild id and tier travel in the metadata so the webhook can apply the
// result without any session state.
func (s *Service) CreateCheckoutSession(ctx context.Context, guildID int64, tier string, userID int64) (string, error) {
	priceID, err := s.priceForTier(tier)
	if err != nil {
		return "", err
	}

	metadata := map[string]string{
		"guild_id": strconv.FormatInt(guildID, 10),
		"tier":     tier,
		"user_id":  strconv.FormatInt(userID, 10),
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.cfg.DashboardURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.cfg.DashboardURL + "/billing/cancel"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	params.Metadata = metadata

	session, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", apperrors.ExternalError("failed to create checkout session", err)
	}
	return session.URL, nil
}

// CreatePortalSession opens the Stripe customer portal for the guild's
// existing subscription.
func (s *Service) CreatePortalSession(ctx context.Context, guildID int64) (string, error) {
	sub, err := s.subscriptions.GetByGuildID(ctx, guildID)
	if err != nil {
		return "", err
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.DashboardURL + "/billing"),
	}
	params.Context = ctx

	session, err := s.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", apperrors.ExternalError("failed to create portal session", err)
	}
	return session.URL, nil
}

// CancelSubscription flags the guild's subscription to end at the period
// boundary. The tier stays until Stripe sends subscription.deleted.
func (s *Service) CancelSubscription(ctx context.Context, guildID int64) (*domain.Subscription, error) {
	sub, err := s.subscriptions.GetByGuildID(ctx, guildID)
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	updated, err := s.sc.Subscriptions.Update(sub.StripeSubscriptionID, params)
	if err != nil {
		return nil, apperrors.ExternalError("failed to cancel subscription", err)
	}

	sub.CancelAtPeriodEnd = updated.CancelAtPeriodEnd
	if updated.CancelAt > 0 {
		t := unixTime(updated.CancelAt)
		sub.CancelAt = &t
	}
	return s.subscriptions.Upsert(ctx, sub)
}

// SubscriptionStatus is the dashboard view of a guild's billing state.
func (s *Service) SubscriptionStatus(ctx context.Context, guildID int64) (*domain.Subscription, error) {
	return s.subscriptions.GetByGuildID(ctx, guildID)
}
