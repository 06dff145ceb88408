package database

import (
	"context"
	"fmt"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookEventRepo stores received platform events. Row existence is the
// idempotency guard: Record reports whether the event was seen before.
type WebhookEventRepo struct {
	pool *pgxpool.Pool
}

func NewWebhookEventRepo(pool *pgxpool.Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// Record inserts the event row. Returns domain.ErrDuplicateWebhookEvent
// when the (platform, event id) pair already exists, leaving the stored
// row untouched.
func (r *WebhookEventRepo) Record(ctx context.Context, ev *domain.WebhookEvent) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_events (event_id, platform, event_type, subscription_id, broadcaster_id, broadcaster_username, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (platform, event_id) DO NOTHING`,
		ev.EventID, ev.Platform, ev.EventType, ev.SubscriptionID,
		ev.BroadcasterID, ev.BroadcasterUsername, ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateWebhookEvent
	}
	return nil
}

func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, platform, eventID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook_events SET processed_at = now(), processing_error = ''
		WHERE platform = $1 AND event_id = $2`, platform, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}
	return nil
}

// MarkFailed stores the processing error. The row stays in place so the
// platform's retry of the same event id is still treated as a duplicate.
func (r *WebhookEventRepo) MarkFailed(ctx context.Context, platform, eventID, processingError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE webhook_events SET processing_error = $3
		WHERE platform = $1 AND event_id = $2`, platform, eventID, processingError)
	if err != nil {
		return fmt.Errorf("failed to mark webhook event failed: %w", err)
	}
	return nil
}

// CountOlderThan reports how many events a prune at this cutoff would
// remove, for dry runs.
func (r *WebhookEventRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webhook_events WHERE received_at < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count webhook events: %w", err)
	}
	return count, nil
}

// DeleteOlderThan prunes processed events past the retention window.
func (r *WebhookEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhook_events WHERE received_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune webhook events: %w", err)
	}
	return tag.RowsAffected(), nil
}
