package database

import (
	"context"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AIImageRepo struct {
	pool *pgxpool.Pool
}

func NewAIImageRepo(pool *pgxpool.Pool) *AIImageRepo {
	return &AIImageRepo{pool: pool}
}

// UsageStats aggregates a guild's image generation and analysis usage,
// with monthly counts for the current calendar month.
func (r *AIImageRepo) UsageStats(ctx context.Context, guildID int64) (*domain.AIImageStats, error) {
	var stats domain.AIImageStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE type = 'generation'),
			COUNT(*) FILTER (WHERE type = 'analysis'),
			COUNT(*) FILTER (WHERE type = 'generation' AND created_at >= date_trunc('month', now())),
			COUNT(*) FILTER (WHERE type = 'analysis' AND created_at >= date_trunc('month', now())),
			COUNT(DISTINCT user_id)
		FROM ai_images WHERE guild_id = $1`, guildID).
		Scan(&stats.TotalGenerations, &stats.TotalAnalyses,
			&stats.MonthlyGenerations, &stats.MonthlyAnalyses, &stats.UniqueUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to get image stats: %w", err)
	}
	return &stats, nil
}

// ListForGuild returns a guild's images, newest first. imageType filters
// by record type when non-empty.
func (r *AIImageRepo) ListForGuild(ctx context.Context, guildID int64, imageType string, limit int) ([]domain.AIImage, error) {
	query := `
		SELECT id, guild_id, user_id, type, prompt, url, model, created_at
		FROM ai_images WHERE guild_id = $1`
	args := []any{guildID}
	if imageType != "" {
		args = append(args, imageType)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild images: %w", err)
	}
	defer rows.Close()
	return collectAIImages(rows)
}

// ListForUser returns a user's images across guilds, newest first.
// guildID and imageType filter when non-zero/non-empty.
func (r *AIImageRepo) ListForUser(ctx context.Context, userID int64, guildID int64, imageType string, limit int) ([]domain.AIImage, error) {
	query := `
		SELECT id, guild_id, user_id, type, prompt, url, model, created_at
		FROM ai_images WHERE user_id = $1`
	args := []any{userID}
	if guildID != 0 {
		args = append(args, guildID)
		query += fmt.Sprintf(" AND guild_id = $%d", len(args))
	}
	if imageType != "" {
		args = append(args, imageType)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user images: %w", err)
	}
	defer rows.Close()
	return collectAIImages(rows)
}

func collectAIImages(rows pgx.Rows) ([]domain.AIImage, error) {
	var images []domain.AIImage
	for rows.Next() {
		var img domain.AIImage
		if err := rows.Scan(&img.ID, &img.GuildID, &img.UserID, &img.Type,
			&img.Prompt, &img.URL, &img.Model, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
