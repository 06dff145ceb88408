package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func (r *AdminRepo) GetByDiscordID(ctx context.Context, discordID int64) (*domain.AdminUser, error) {
	var a domain.AdminUser
	err := r.pool.QueryRow(ctx, `
		SELECT discord_id, username, role, added_by, created_at
		FROM admin_users WHERE discord_id = $1`, discordID).
		Scan(&a.DiscordID, &a.Username, &a.Role, &a.AddedBy, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	return &a, nil
}

func (r *AdminRepo) List(ctx context.Context) ([]domain.AdminUser, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT discord_id, username, role, added_by, created_at
		FROM admin_users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin users: %w", err)
	}
	defer rows.Close()

	var admins []domain.AdminUser
	for rows.Next() {
		var a domain.AdminUser
		if err := rows.Scan(&a.DiscordID, &a.Username, &a.Role, &a.AddedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admin user: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (r *AdminRepo) Add(ctx context.Context, discordID int64, username, role string, addedBy int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_users (discord_id, username, role, added_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (discord_id) DO UPDATE SET username = EXCLUDED.username, role = EXCLUDED.role`,
		discordID, username, role, addedBy)
	if err != nil {
		return fmt.Errorf("failed to add admin user: %w", err)
	}
	return nil
}

func (r *AdminRepo) Remove(ctx context.Context, discordID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admin_users WHERE discord_id = $1`, discordID)
	if err != nil {
		return fmt.Errorf("failed to remove admin user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAdminNotFound
	}
	return nil
}

func (r *AdminRepo) RecordAudit(ctx context.Context, entry *domain.AuditLogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (admin_id, admin_username, action_type, target_type, target_id, changes, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.AdminID, entry.AdminUsername, entry.ActionType, entry.TargetType,
		entry.TargetID, entry.Changes, entry.IPAddress)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (r *AdminRepo) ListAudit(ctx context.Context, limit, offset int) ([]domain.AuditLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, admin_id, admin_username, action_type, target_type, target_id, changes, ip_address, created_at
		FROM audit_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.AdminUsername, &e.ActionType,
			&e.TargetType, &e.TargetID, &e.Changes, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *AdminRepo) GetGlobalSettings(ctx context.Context, category string) ([]domain.GlobalSetting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT category, key, value, updated_by, updated_at
		FROM global_settings WHERE category = $1 ORDER BY key`, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get global settings: %w", err)
	}
	defer rows.Close()

	var settings []domain.GlobalSetting
	for rows.Next() {
		var s domain.GlobalSetting
		if err := rows.Scan(&s.Category, &s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan global setting: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *AdminRepo) SetGlobalSetting(ctx context.Context, category, key, value string, updatedBy int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO global_settings (category, key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (category, key) DO UPDATE
		SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = now()`,
		category, key, value, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to set global setting: %w", err)
	}
	return nil
}
