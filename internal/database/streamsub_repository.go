package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StreamSubRepo maintains the refcounted upstream subscription rows: one
// row per (platform, broadcaster) with a join table of tracking guilds.
type StreamSubRepo struct {
	pool *pgxpool.Pool
}

func NewStreamSubRepo(pool *pgxpool.Pool) *StreamSubRepo {
	return &StreamSubRepo{pool: pool}
}

const streamSubColumns = `s.platform, s.broadcaster_id, s.broadcaster_username,
	s.online_subscription_id, s.offline_subscription_id, s.created_at, s.updated_at`

func (r *StreamSubRepo) get(ctx context.Context, q queryable, platform, broadcasterID string) (*domain.StreamSubscription, error) {
	var s domain.StreamSubscription
	err := q.QueryRow(ctx, `
		SELECT `+streamSubColumns+`,
		       COALESCE(array_agg(g.guild_id ORDER BY g.guild_id) FILTER (WHERE g.guild_id IS NOT NULL), '{}')
		FROM stream_subscriptions s
		LEFT JOIN stream_subscription_guilds g
		  ON g.platform = s.platform AND g.broadcaster_id = s.broadcaster_id
		WHERE s.platform = $1 AND s.broadcaster_id = $2
		GROUP BY s.platform, s.broadcaster_id`, platform, broadcasterID).
		Scan(&s.Platform, &s.BroadcasterID, &s.BroadcasterUsername,
			&s.OnlineSubscriptionID, &s.OfflineSubscriptionID, &s.CreatedAt, &s.UpdatedAt, &s.GuildIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStreamSubNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stream subscription: %w", err)
	}
	return &s, nil
}

func (r *StreamSubRepo) GetByBroadcaster(ctx context.Context, platform, broadcasterID string) (*domain.StreamSubscription, error) {
	return r.get(ctx, r.pool, platform, broadcasterID)
}

// AddGuild registers a guild as tracking the broadcaster, creating the
// subscription row on first use. Returns the row with the updated guild
// list; the caller creates upstream subscriptions when the returned count
// is one.
func (r *StreamSubRepo) AddGuild(ctx context.Context, platform, broadcasterID, username string, guildID int64) (*domain.StreamSubscription, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO stream_subscriptions (platform, broadcaster_id, broadcaster_username)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform, broadcaster_id) DO UPDATE
		SET broadcaster_username = EXCLUDED.broadcaster_username, updated_at = now()`,
		platform, broadcasterID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert stream subscription: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stream_subscription_guilds (platform, broadcaster_id, guild_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, platform, broadcasterID, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to add guild to stream subscription: %w", err)
	}

	sub, err := r.get(ctx, tx, platform, broadcasterID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return sub, nil
}

// RemoveGuild drops the guild from the broadcaster's tracker list and
// returns the remaining subscription. When no guilds remain the row is
// deleted and the stale upstream subscription ids are returned on the
// result so the caller can tear them down.
func (r *StreamSubRepo) RemoveGuild(ctx context.Context, platform, broadcasterID string, guildID int64) (*domain.StreamSubscription, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM stream_subscription_guilds
		WHERE platform = $1 AND broadcaster_id = $2 AND guild_id = $3`,
		platform, broadcasterID, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove guild from stream subscription: %w", err)
	}

	sub, err := r.get(ctx, tx, platform, broadcasterID)
	if err != nil {
		return nil, err
	}

	if len(sub.GuildIDs) == 0 {
		_, err = tx.Exec(ctx, `
			DELETE FROM stream_subscriptions WHERE platform = $1 AND broadcaster_id = $2`,
			platform, broadcasterID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete stream subscription: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return sub, nil
}

// SetUpstreamIDs stores the platform subscription ids created upstream.
func (r *StreamSubRepo) SetUpstreamIDs(ctx context.Context, platform, broadcasterID, onlineID, offlineID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE stream_subscriptions
		SET online_subscription_id = $3, offline_subscription_id = $4, updated_at = now()
		WHERE platform = $1 AND broadcaster_id = $2`,
		platform, broadcasterID, onlineID, offlineID)
	if err != nil {
		return fmt.Errorf("failed to store upstream subscription ids: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStreamSubNotFound
	}
	return nil
}

// ListGuilds returns the guilds currently tracking the broadcaster, used
// by the webhook handlers to fan announcements out.
func (r *StreamSubRepo) ListGuilds(ctx context.Context, platform, broadcasterID string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT guild_id FROM stream_subscription_guilds
		WHERE platform = $1 AND broadcaster_id = $2 ORDER BY guild_id`, platform, broadcasterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription guilds: %w", err)
	}
	defer rows.Close()

	var guilds []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan guild id: %w", err)
		}
		guilds = append(guilds, id)
	}
	return guilds, rows.Err()
}

func (r *StreamSubRepo) ListByPlatform(ctx context.Context, platform string) ([]domain.StreamSubscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+streamSubColumns+`,
		       COALESCE(array_agg(g.guild_id ORDER BY g.guild_id) FILTER (WHERE g.guild_id IS NOT NULL), '{}')
		FROM stream_subscriptions s
		LEFT JOIN stream_subscription_guilds g
		  ON g.platform = s.platform AND g.broadcaster_id = s.broadcaster_id
		WHERE s.platform = $1
		GROUP BY s.platform, s.broadcaster_id
		ORDER BY s.broadcaster_username`, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list stream subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.StreamSubscription
	for rows.Next() {
		var s domain.StreamSubscription
		if err := rows.Scan(&s.Platform, &s.BroadcasterID, &s.BroadcasterUsername,
			&s.OnlineSubscriptionID, &s.OfflineSubscriptionID, &s.CreatedAt, &s.UpdatedAt, &s.GuildIDs); err != nil {
			return nil, fmt.Errorf("failed to scan stream subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListForGuild returns the broadcasters a guild tracks across all
// platforms, for the dashboard's streamer list.
func (r *StreamSubRepo) ListForGuild(ctx context.Context, guildID int64) ([]domain.StreamSubscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+streamSubColumns+`
		FROM stream_subscriptions s
		JOIN stream_subscription_guilds g
		  ON g.platform = s.platform AND g.broadcaster_id = s.broadcaster_id
		WHERE g.guild_id = $1
		ORDER BY s.platform, s.broadcaster_username`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild streamers: %w", err)
	}
	defer rows.Close()

	var subs []domain.StreamSubscription
	for rows.Next() {
		var s domain.StreamSubscription
		if err := rows.Scan(&s.Platform, &s.BroadcasterID, &s.BroadcasterUsername,
			&s.OnlineSubscriptionID, &s.OfflineSubscriptionID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stream subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// queryable is satisfied by both pgxpool.Pool and pgx.Tx.
type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
