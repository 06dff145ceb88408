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

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, username, global_name, avatar_url, global_level, global_exp,
	total_currency, total_messages, total_reactions, account_created, first_seen, last_seen`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.GlobalName, &u.AvatarURL, &u.GlobalLevel, &u.GlobalExp,
		&u.TotalCurrency, &u.TotalMessages, &u.TotalReactions, &u.AccountCreated, &u.FirstSeen, &u.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// Upsert refreshes identity fields from a Discord login without touching
// the bot-maintained stat columns.
func (r *UserRepo) Upsert(ctx context.Context, userID int64, username, globalName, avatarURL string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, global_name, avatar_url, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    global_name = EXCLUDED.global_name,
		    avatar_url = EXCLUDED.avatar_url,
		    last_seen = now()
		RETURNING `+userColumns,
		userID, username, globalName, avatarURL)
	return scanUser(row)
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *UserRepo) ActiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE last_seen >= $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}

// globalLeaderboardColumns maps API metric names to ranked columns.
// Keeping the map closed prevents SQL injection through the metric parameter.
var globalLeaderboardColumns = map[string]string{
	"exp":      "global_exp",
	"level":    "global_level",
	"currency": "total_currency",
	"messages": "total_messages",
}

func (r *UserRepo) GlobalLeaderboard(ctx context.Context, metric string, limit int) ([]domain.LeaderboardEntry, error) {
	column, ok := globalLeaderboardColumns[metric]
	if !ok {
		return nil, fmt.Errorf("unknown leaderboard metric %q", metric)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, username, %s FROM users ORDER BY %s DESC LIMIT $1`, column, column), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query global leaderboard: %w", err)
	}
	defer rows.Close()

	return collectLeaderboard(rows)
}

// Rank returns the user's 1-based position on a global metric, ties
// sharing the same rank.
func (r *UserRepo) Rank(ctx context.Context, userID int64, metric string) (int64, int64, error) {
	column, ok := globalLeaderboardColumns[metric]
	if !ok {
		return 0, 0, fmt.Errorf("unknown leaderboard metric %q", metric)
	}

	var rank, value int64
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT rank, value FROM (
			SELECT id, %s AS value, rank() OVER (ORDER BY %s DESC) AS rank FROM users
		) ranked WHERE id = $1`, column, column), userID).Scan(&rank, &value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query user rank: %w", err)
	}
	return rank, value, nil
}

func collectLeaderboard(rows pgx.Rows) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		e := domain.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.UserID, &e.Username, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
