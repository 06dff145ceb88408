package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GuildRepo struct {
	pool *pgxpool.Pool
}

func NewGuildRepo(pool *pgxpool.Pool) *GuildRepo {
	return &GuildRepo{pool: pool}
}

const guildColumns = `id, name, owner_id, member_count, settings, subscription_tier, subscription_status, created_at, last_active`

func scanGuild(row pgx.Row) (*domain.Guild, error) {
	var g domain.Guild
	err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.MemberCount, &g.Settings,
		&g.SubscriptionTier, &g.SubscriptionStatus, &g.CreatedAt, &g.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGuildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan guild: %w", err)
	}
	return &g, nil
}

func (r *GuildRepo) GetByID(ctx context.Context, guildID int64) (*domain.Guild, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+guildColumns+` FROM guilds WHERE id = $1`, guildID)
	return scanGuild(row)
}

// Upsert creates or refreshes the guild row from Discord-sourced metadata.
// Settings and subscription columns are left untouched on conflict.
func (r *GuildRepo) Upsert(ctx context.Context, guildID int64, name string, ownerID int64, memberCount int) (*domain.Guild, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO guilds (id, name, owner_id, member_count, last_active)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    owner_id = EXCLUDED.owner_id,
		    member_count = EXCLUDED.member_count,
		    last_active = now()
		RETURNING `+guildColumns,
		guildID, name, ownerID, memberCount)
	return scanGuild(row)
}

func (r *GuildRepo) UpdateSettings(ctx context.Context, guildID int64, settings *domain.GuildSettings) error {
	tag, err := r.pool.Exec(ctx, `UPDATE guilds SET settings = $2, last_active = now() WHERE id = $1`,
		guildID, settings)
	if err != nil {
		return fmt.Errorf("failed to update guild settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGuildNotFound
	}
	return nil
}

// UpdateSubscription sets the denormalized tier and status columns kept in
// sync with the subscriptions table by the Stripe webhook handlers.
func (r *GuildRepo) UpdateSubscription(ctx context.Context, guildID int64, tier, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE guilds SET subscription_tier = $2, subscription_status = $3 WHERE id = $1`,
		guildID, tier, status)
	if err != nil {
		return fmt.Errorf("failed to update guild subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGuildNotFound
	}
	return nil
}

func (r *GuildRepo) List(ctx context.Context, limit, offset int) ([]domain.Guild, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+guildColumns+` FROM guilds ORDER BY member_count DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var guilds []domain.Guild
	for rows.Next() {
		var g domain.Guild
		if err := rows.Scan(&g.ID, &g.Name, &g.OwnerID, &g.MemberCount, &g.Settings,
			&g.SubscriptionTier, &g.SubscriptionStatus, &g.CreatedAt, &g.LastActive); err != nil {
			return nil, fmt.Errorf("failed to scan guild: %w", err)
		}
		guilds = append(guilds, g)
	}
	return guilds, rows.Err()
}

func (r *GuildRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM guilds`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count guilds: %w", err)
	}
	return count, nil
}

// Stats aggregates guild activity from the membership table.
func (r *GuildRepo) Stats(ctx context.Context, guildID int64) (*domain.GuildStats, error) {
	var s domain.GuildStats
	err := r.pool.QueryRow(ctx, `
		SELECT g.id, g.name, g.member_count,
		       count(gu.user_id) FILTER (WHERE gu.is_active),
		       COALESCE(sum(gu.messages_sent), 0),
		       COALESCE(sum(gu.exp), 0),
		       COALESCE(max(gu.level), 0),
		       COALESCE(avg(gu.level) FILTER (WHERE gu.is_active), 0),
		       max(gu.last_active)
		FROM guilds g
		LEFT JOIN guild_users gu ON gu.guild_id = g.id
		WHERE g.id = $1
		GROUP BY g.id`, guildID).
		Scan(&s.GuildID, &s.GuildName, &s.MemberCount, &s.TotalActiveMembers,
			&s.TotalMessages, &s.TotalExpDistributed, &s.HighestLevel, &s.AvgLevel, &s.LastActivity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGuildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guild stats: %w", err)
	}
	return &s, nil
}

// SearchPortals lists guilds advertising an enabled cross-server portal,
// optionally filtered by name or portal display name.
func (r *GuildRepo) SearchPortals(ctx context.Context, query string, limit int) ([]domain.PortalListing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name,
		       COALESCE(settings->'cross_server_portal'->>'display_name', ''),
		       COALESCE((settings->'cross_server_portal'->>'portal_cost')::int, 0),
		       member_count
		FROM guilds
		WHERE settings->'cross_server_portal'->>'enabled' = 'true'
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%'
		       OR settings->'cross_server_portal'->>'display_name' ILIKE '%' || $1 || '%')
		ORDER BY member_count DESC
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search portals: %w", err)
	}
	defer rows.Close()

	var listings []domain.PortalListing
	for rows.Next() {
		var l domain.PortalListing
		if err := rows.Scan(&l.GuildID, &l.GuildName, &l.DisplayName, &l.PortalCost, &l.MemberCount); err != nil {
			return nil, fmt.Errorf("failed to scan portal listing: %w", err)
		}
		if l.DisplayName == "" {
			l.DisplayName = l.GuildName
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ActiveSince counts guilds with activity after the cutoff, for the admin
// overview dashboard.
func (r *GuildRepo) ActiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM guilds WHERE last_active >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active guilds: %w", err)
	}
	return count, nil
}
