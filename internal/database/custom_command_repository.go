package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomCommandRepo struct {
	pool *pgxpool.Pool
}

func NewCustomCommandRepo(pool *pgxpool.Pool) *CustomCommandRepo {
	return &CustomCommandRepo{pool: pool}
}

const commandColumns = `id, guild_id, name, description, response_text, response_type,
	embed, enabled, usage_count, created_by, created_at, updated_at`

func scanCommand(row pgx.Row) (*domain.CustomCommand, error) {
	var c domain.CustomCommand
	err := row.Scan(&c.ID, &c.GuildID, &c.Name, &c.Description, &c.ResponseText, &c.ResponseType,
		&c.Embed, &c.Enabled, &c.UsageCount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCommandNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan custom command: %w", err)
	}
	return &c, nil
}

func (r *CustomCommandRepo) GetByID(ctx context.Context, guildID, commandID int64) (*domain.CustomCommand, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+commandColumns+` FROM custom_commands WHERE guild_id = $1 AND id = $2`,
		guildID, commandID)
	return scanCommand(row)
}

func (r *CustomCommandRepo) ListByGuild(ctx context.Context, guildID int64) ([]domain.CustomCommand, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+commandColumns+` FROM custom_commands WHERE guild_id = $1 ORDER BY name`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom commands: %w", err)
	}
	defer rows.Close()

	var commands []domain.CustomCommand
	for rows.Next() {
		var c domain.CustomCommand
		if err := rows.Scan(&c.ID, &c.GuildID, &c.Name, &c.Description, &c.ResponseText, &c.ResponseType,
			&c.Embed, &c.Enabled, &c.UsageCount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan custom command: %w", err)
		}
		commands = append(commands, c)
	}
	return commands, rows.Err()
}

func (r *CustomCommandRepo) CountByGuild(ctx context.Context, guildID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM custom_commands WHERE guild_id = $1`, guildID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count custom commands: %w", err)
	}
	return count, nil
}

func (r *CustomCommandRepo) Create(ctx context.Context, cmd *domain.CustomCommand) (*domain.CustomCommand, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO custom_commands (guild_id, name, description, response_text, response_type, embed, enabled, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+commandColumns,
		cmd.GuildID, cmd.Name, cmd.Description, cmd.ResponseText, cmd.ResponseType,
		cmd.Embed, cmd.Enabled, cmd.CreatedBy)

	created, err := scanCommand(row)
	if isUniqueViolation(err) {
		return nil, domain.ErrCommandExists
	}
	return created, err
}

func (r *CustomCommandRepo) Update(ctx context.Context, cmd *domain.CustomCommand) (*domain.CustomCommand, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE custom_commands
		SET name = $3, description = $4, response_text = $5, response_type = $6, embed = $7,
		    enabled = $8, updated_at = now()
		WHERE guild_id = $1 AND id = $2
		RETURNING `+commandColumns,
		cmd.GuildID, cmd.ID, cmd.Name, cmd.Description, cmd.ResponseText, cmd.ResponseType,
		cmd.Embed, cmd.Enabled)

	updated, err := scanCommand(row)
	if isUniqueViolation(err) {
		return nil, domain.ErrCommandExists
	}
	return updated, err
}

func (r *CustomCommandRepo) SetEnabled(ctx context.Context, guildID, commandID int64, enabled bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE custom_commands SET enabled = $3, updated_at = now()
		WHERE guild_id = $1 AND id = $2`, guildID, commandID, enabled)
	if err != nil {
		return fmt.Errorf("failed to toggle custom command: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommandNotFound
	}
	return nil
}

func (r *CustomCommandRepo) Delete(ctx context.Context, guildID, commandID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM custom_commands WHERE guild_id = $1 AND id = $2`, guildID, commandID)
	if err != nil {
		return fmt.Errorf("failed to delete custom command: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommandNotFound
	}
	return nil
}

// UsageStats returns per-command usage counts ordered by popularity.
func (r *CustomCommandRepo) UsageStats(ctx context.Context, guildID int64) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, usage_count FROM custom_commands WHERE guild_id = $1 ORDER BY usage_count DESC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load command usage stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan command usage: %w", err)
		}
		stats[name] = count
	}
	return stats, rows.Err()
}

// isUniqueViolation reports whether err is a PostgreSQL 23505 error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
