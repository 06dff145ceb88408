package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GuildUserRepo struct {
	pool *pgxpool.Pool
}

func NewGuildUserRepo(pool *pgxpool.Pool) *GuildUserRepo {
	return &GuildUserRepo{pool: pool}
}

func (r *GuildUserRepo) Get(ctx context.Context, guildID, userID int64) (*domain.GuildUser, error) {
	var gu domain.GuildUser
	err := r.pool.QueryRow(ctx, `
		SELECT guild_id, user_id, nickname, level, exp, currency, messages_sent, is_active, joined_at, last_active
		FROM guild_users WHERE guild_id = $1 AND user_id = $2`, guildID, userID).
		Scan(&gu.GuildID, &gu.UserID, &gu.Nickname, &gu.Level, &gu.Exp, &gu.Currency,
			&gu.MessagesSent, &gu.IsActive, &gu.JoinedAt, &gu.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGuildUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild user: %w", err)
	}
	return &gu, nil
}

// ListForUser returns the user's active memberships with guild names,
// highest level first.
func (r *GuildUserRepo) ListForUser(ctx context.Context, userID int64) ([]domain.GuildMembership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gu.guild_id, g.name, gu.level, gu.exp, gu.currency, gu.messages_sent
		FROM guild_users gu
		JOIN guilds g ON g.id = gu.guild_id
		WHERE gu.user_id = $1 AND gu.is_active
		ORDER BY gu.level DESC, gu.exp DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []domain.GuildMembership
	for rows.Next() {
		var m domain.GuildMembership
		if err := rows.Scan(&m.GuildID, &m.GuildName, &m.Level, &m.Exp, &m.Currency, &m.MessagesSent); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// guildLeaderboardColumns mirrors the global metric map for per-guild rows.
var guildLeaderboardColumns = map[string]string{
	"exp":      "gu.exp",
	"level":    "gu.level",
	"currency": "gu.currency",
	"messages": "gu.messages_sent",
}

func (r *GuildUserRepo) Leaderboard(ctx context.Context, guildID int64, metric string, limit int) ([]domain.LeaderboardEntry, error) {
	column, ok := guildLeaderboardColumns[metric]
	if !ok {
		return nil, fmt.Errorf("unknown leaderboard metric %q", metric)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT gu.user_id, COALESCE(NULLIF(gu.nickname, ''), u.username), %s
		FROM guild_users gu
		JOIN users u ON u.id = gu.user_id
		WHERE gu.guild_id = $1 AND gu.is_active
		ORDER BY %s DESC
		LIMIT $2`, column, column), guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query guild leaderboard: %w", err)
	}
	defer rows.Close()

	return collectLeaderboard(rows)
}
