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

type AnnouncementRepo struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepo(pool *pgxpool.Pool) *AnnouncementRepo {
	return &AnnouncementRepo{pool: pool}
}

const announcementColumns = `id, platform, guild_id, channel_id, message_id, streamer_username,
	streamer_id, stream_id, stream_title, game_name, stream_started_at, stream_ended_at,
	initial_viewer_count, final_viewer_count, created_at`

func scanAnnouncement(row pgx.Row) (*domain.Announcement, error) {
	var a domain.Announcement
	err := row.Scan(&a.ID, &a.Platform, &a.GuildID, &a.ChannelID, &a.MessageID, &a.StreamerUsername,
		&a.StreamerID, &a.StreamID, &a.StreamTitle, &a.GameName, &a.StreamStartedAt, &a.StreamEndedAt,
		&a.InitialViewerCount, &a.FinalViewerCount, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan announcement: %w", err)
	}
	return &a, nil
}

// GetActive returns the open announcement for the streamer in the guild.
// At most one exists: a partial unique index enforces it.
func (r *AnnouncementRepo) GetActive(ctx context.Context, platform string, guildID int64, streamerID string) (*domain.Announcement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+announcementColumns+` FROM streaming_announcements
		WHERE platform = $1 AND guild_id = $2 AND streamer_id = $3 AND stream_ended_at IS NULL`,
		platform, guildID, streamerID)
	return scanAnnouncement(row)
}

func (r *AnnouncementRepo) Create(ctx context.Context, a *domain.Announcement) (*domain.Announcement, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO streaming_announcements (platform, guild_id, channel_id, message_id, streamer_username,
			streamer_id, stream_id, stream_title, game_name, stream_started_at, initial_viewer_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+announcementColumns,
		a.Platform, a.GuildID, a.ChannelID, a.MessageID, a.StreamerUsername,
		a.StreamerID, a.StreamID, a.StreamTitle, a.GameName, a.StreamStartedAt, a.InitialViewerCount)
	return scanAnnouncement(row)
}

// MarkEnded closes the announcement, recording when the stream stopped and
// the last seen viewer count.
func (r *AnnouncementRepo) MarkEnded(ctx context.Context, id int64, endedAt time.Time, finalViewers *int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE streaming_announcements SET stream_ended_at = $2, final_viewer_count = $3
		WHERE id = $1 AND stream_ended_at IS NULL`, id, endedAt, finalViewers)
	if err != nil {
		return fmt.Errorf("failed to mark announcement ended: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAnnouncementNotFound
	}
	return nil
}

// ListActive returns all open announcements for the streamer across
// guilds, used when a stream.offline event arrives.
func (r *AnnouncementRepo) ListActive(ctx context.Context, platform, streamerID string) ([]domain.Announcement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+announcementColumns+` FROM streaming_announcements
		WHERE platform = $1 AND streamer_id = $2 AND stream_ended_at IS NULL`, platform, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active announcements: %w", err)
	}
	defer rows.Close()

	var anns []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.Platform, &a.GuildID, &a.ChannelID, &a.MessageID, &a.StreamerUsername,
			&a.StreamerID, &a.StreamID, &a.StreamTitle, &a.GameName, &a.StreamStartedAt, &a.StreamEndedAt,
			&a.InitialViewerCount, &a.FinalViewerCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}
