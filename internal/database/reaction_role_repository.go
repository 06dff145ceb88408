package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReactionRoleRepo struct {
	pool *pgxpool.Pool
}

func NewReactionRoleRepo(pool *pgxpool.Pool) *ReactionRoleRepo {
	return &ReactionRoleRepo{pool: pool}
}

const reactionRoleColumns = `id, guild_id, name, channel_id, style, embed, mappings,
	exclusive, status, message_id, created_by, created_at, updated_at, sent_at`

func scanReactionRole(row pgx.Row) (*domain.ReactionRole, error) {
	var rr domain.ReactionRole
	err := row.Scan(&rr.ID, &rr.GuildID, &rr.Name, &rr.ChannelID, &rr.Style, &rr.Embed, &rr.Mappings,
		&rr.Exclusive, &rr.Status, &rr.MessageID, &rr.CreatedBy, &rr.CreatedAt, &rr.UpdatedAt, &rr.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReactionRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reaction role: %w", err)
	}
	return &rr, nil
}

func (r *ReactionRoleRepo) GetByID(ctx context.Context, guildID, id int64) (*domain.ReactionRole, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+reactionRoleColumns+` FROM reaction_roles WHERE guild_id = $1 AND id = $2`,
		guildID, id)
	return scanReactionRole(row)
}

func (r *ReactionRoleRepo) ListByGuild(ctx context.Context, guildID int64) ([]domain.ReactionRole, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reactionRoleColumns+` FROM reaction_roles WHERE guild_id = $1 ORDER BY created_at DESC`,
		guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reaction roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.ReactionRole
	for rows.Next() {
		var rr domain.ReactionRole
		if err := rows.Scan(&rr.ID, &rr.GuildID, &rr.Name, &rr.ChannelID, &rr.Style, &rr.Embed, &rr.Mappings,
			&rr.Exclusive, &rr.Status, &rr.MessageID, &rr.CreatedBy, &rr.CreatedAt, &rr.UpdatedAt, &rr.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction role: %w", err)
		}
		roles = append(roles, rr)
	}
	return roles, rows.Err()
}

func (r *ReactionRoleRepo) Create(ctx context.Context, rr *domain.ReactionRole) (*domain.ReactionRole, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reaction_roles (guild_id, name, channel_id, style, embed, mappings, exclusive, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+reactionRoleColumns,
		rr.GuildID, rr.Name, rr.ChannelID, rr.Style, rr.Embed, rr.Mappings,
		rr.Exclusive, domain.EmbedStatusDraft, rr.CreatedBy)
	return scanReactionRole(row)
}

func (r *ReactionRoleRepo) Update(ctx context.Context, rr *domain.ReactionRole) (*domain.ReactionRole, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reaction_roles
		SET name = $3, channel_id = $4, style = $5, embed = $6, mappings = $7, exclusive = $8, updated_at = now()
		WHERE guild_id = $1 AND id = $2
		RETURNING `+reactionRoleColumns,
		rr.GuildID, rr.ID, rr.Name, rr.ChannelID, rr.Style, rr.Embed, rr.Mappings, rr.Exclusive)
	return scanReactionRole(row)
}

// MarkSent records the posted Discord message and flips the workflow state.
func (r *ReactionRoleRepo) MarkSent(ctx context.Context, guildID, id, messageID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reaction_roles
		SET status = $3, message_id = $4, sent_at = now(), updated_at = now()
		WHERE guild_id = $1 AND id = $2`,
		guildID, id, domain.EmbedStatusSent, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark reaction role sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReactionRoleNotFound
	}
	return nil
}

func (r *ReactionRoleRepo) Delete(ctx context.Context, guildID, id int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM reaction_roles WHERE guild_id = $1 AND id = $2`, guildID, id)
	if err != nil {
		return fmt.Errorf("failed to delete reaction role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReactionRoleNotFound
	}
	return nil
}

// Stats returns counts by workflow status for the guild.
func (r *ReactionRoleRepo) Stats(ctx context.Context, guildID int64) (total, sent, draft int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'sent'),
		       count(*) FILTER (WHERE status = 'draft')
		FROM reaction_roles WHERE guild_id = $1`, guildID).Scan(&total, &sent, &draft)
	if err != nil {
		err = fmt.Errorf("failed to load reaction role stats: %w", err)
	}
	return
}
