package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, guild_id, tier, stripe_subscription_id, stripe_customer_id, status,
	current_period_start, current_period_end, cancel_at_period_end, cancel_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(&s.ID, &s.GuildID, &s.Tier, &s.StripeSubscriptionID, &s.StripeCustomerID, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CancelAt, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return &s, nil
}

func (r *SubscriptionRepo) GetByGuildID(ctx context.Context, guildID int64) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE guild_id = $1`, guildID)
	return scanSubscription(row)
}

func (r *SubscriptionRepo) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = $1`, stripeSubID)
	return scanSubscription(row)
}

// Upsert writes the subscription state received from Stripe. One
// subscription per guild; a second checkout replaces the stored row.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.Subscription) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (guild_id, tier, stripe_subscription_id, stripe_customer_id, status,
			current_period_start, current_period_end, cancel_at_period_end, cancel_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (guild_id) DO UPDATE
		SET tier = EXCLUDED.tier,
		    stripe_subscription_id = EXCLUDED.stripe_subscription_id,
		    stripe_customer_id = EXCLUDED.stripe_customer_id,
		    status = EXCLUDED.status,
		    current_period_start = EXCLUDED.current_period_start,
		    current_period_end = EXCLUDED.current_period_end,
		    cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		    cancel_at = EXCLUDED.cancel_at,
		    updated_at = now()
		RETURNING `+subscriptionColumns,
		s.GuildID, s.Tier, s.StripeSubscriptionID, s.StripeCustomerID, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd, s.CancelAt)
	return scanSubscription(row)
}

func (r *SubscriptionRepo) UpdateStatus(ctx context.Context, stripeSubID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET status = $2, updated_at = now() WHERE stripe_subscription_id = $1`,
		stripeSubID, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepo) Delete(ctx context.Context, guildID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE guild_id = $1`, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM subscriptions WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active subscriptions: %w", err)
	}
	return count, nil
}
