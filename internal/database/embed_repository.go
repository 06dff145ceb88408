package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EmbedRepo struct {
	pool *pgxpool.Pool
}

func NewEmbedRepo(pool *pgxpool.Pool) *EmbedRepo {
	return &EmbedRepo{pool: pool}
}

const embedColumns = `id, guild_id, name, channel_id, config, status, message_id,
	created_by, created_at, updated_at, sent_at`

func scanEmbed(row pgx.Row) (*domain.Embed, error) {
	var e domain.Embed
	err := row.Scan(&e.ID, &e.GuildID, &e.Name, &e.ChannelID, &e.Config, &e.Status, &e.MessageID,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &e.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEmbedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan embed: %w", err)
	}
	return &e, nil
}

func (r *EmbedRepo) GetByID(ctx context.Context, guildID, id int64) (*domain.Embed, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+embedColumns+` FROM embeds WHERE guild_id = $1 AND id = $2`, guildID, id)
	return scanEmbed(row)
}

func (r *EmbedRepo) ListByGuild(ctx context.Context, guildID int64) ([]domain.Embed, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+embedColumns+` FROM embeds WHERE guild_id = $1 ORDER BY created_at DESC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeds: %w", err)
	}
	defer rows.Close()

	var embeds []domain.Embed
	for rows.Next() {
		var e domain.Embed
		if err := rows.Scan(&e.ID, &e.GuildID, &e.Name, &e.ChannelID, &e.Config, &e.Status, &e.MessageID,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &e.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan embed: %w", err)
		}
		embeds = append(embeds, e)
	}
	return embeds, rows.Err()
}

func (r *EmbedRepo) Create(ctx context.Context, e *domain.Embed) (*domain.Embed, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO embeds (guild_id, name, channel_id, config, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+embedColumns,
		e.GuildID, e.Name, e.ChannelID, e.Config, domain.EmbedStatusDraft, e.CreatedBy)
	return scanEmbed(row)
}

func (r *EmbedRepo) Update(ctx context.Context, e *domain.Embed) (*domain.Embed, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE embeds
		SET name = $3, channel_id = $4, config = $5, updated_at = now()
		WHERE guild_id = $1 AND id = $2
		RETURNING `+embedColumns,
		e.GuildID, e.ID, e.Name, e.ChannelID, e.Config)
	return scanEmbed(row)
}

func (r *EmbedRepo) MarkSent(ctx context.Context, guildID, id, messageID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE embeds
		SET status = $3, message_id = $4, sent_at = now(), updated_at = now()
		WHERE guild_id = $1 AND id = $2`,
		guildID, id, domain.EmbedStatusSent, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark embed sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmbedNotFound
	}
	return nil
}

func (r *EmbedRepo) Delete(ctx context.Context, guildID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM embeds WHERE guild_id = $1 AND id = $2`, guildID, id)
	if err != nil {
		return fmt.Errorf("failed to delete embed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmbedNotFound
	}
	return nil
}

func (r *EmbedRepo) Stats(ctx context.Context, guildID int64) (total, sent, draft int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'sent'),
		       count(*) FILTER (WHERE status = 'draft')
		FROM embeds WHERE guild_id = $1`, guildID).Scan(&total, &sent, &draft)
	if err != nil {
		err = fmt.Errorf("failed to load embed stats: %w", err)
	}
	return
}
