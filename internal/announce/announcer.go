package announce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/acosmic/acosmibot-api/internal/discord"
	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/bwmarrin/discordgo"
)

// Platform brand colors used when the guild has not overridden them.
var platformColors = map[string]string{
	domain.PlatformTwitch:  "#9146FF",
	domain.PlatformKick:    "#53FC18",
	domain.PlatformYouTube: "#FF0000",
}

type guildStore interface {
	GetByID(ctx context.Context, guildID int64) (*domain.Guild, error)
}

type announcementStore interface {
	GetActive(ctx context.Context, platform string, guildID int64, streamerID string) (*domain.Announcement, error)
	Create(ctx context.Context, a *domain.Announcement) (*domain.Announcement, error)
	MarkEnded(ctx context.Context, id int64, endedAt time.Time, finalViewers *int) error
	ListActive(ctx context.Context, platform, streamerID string) ([]domain.Announcement, error)
}

type messenger interface {
	SendMessage(channelID int64, content string, embed *discordgo.MessageEmbed) (int64, error)
	EditMessage(channelID, messageID int64, content string, embed *discordgo.MessageEmbed) error
}

// Announcer posts and retires live announcements across tracking guilds.
type Announcer struct {
	guilds        guildStore
	announcements announcementStore
	discord       messenger
}

func New(guilds guildStore, announcements announcementStore, discord messenger) *Announcer {
	return &Announcer{guilds: guilds, announcements: announcements, discord: discord}
}

// StreamOnline announces the stream in every tracking guild that has
// streaming announcements configured. Per-guild failures are logged and
// skipped so one misconfigured guild cannot block the rest.
func (a *Announcer) StreamOnline(ctx context.Context, platform, streamerID, username string, info *domain.StreamInfo, guildIDs []int64) {
	for _, guildID := range guildIDs {
		if err := a.announceToGuild(ctx, platform, streamerID, username, info, guildID); err != nil {
			logging.WithGuild(guildID).Warn("failed to announce stream",
				"platform", platform, "streamer", username, "error", err)
		}
	}
}

func (a *Announcer) announceToGuild(ctx context.Context, platform, streamerID, username string, info *domain.StreamInfo, guildID int64) error {
	guild, err := a.guilds.GetByID(ctx, guildID)
	if err != nil {
		return err
	}
	if guild.Settings == nil || guild.Settings.Streaming == nil || !guild.Settings.Streaming.Enabled {
		return nil
	}
	streaming := guild.Settings.Streaming

	channelID, err := strconv.ParseInt(streaming.AnnouncementChannelID, 10, 64)
	if err != nil || channelID == 0 {
		return fmt.Errorf("no announcement channel configured")
	}

	// An open announcement means the platform retried or re-sent online;
	// do not post twice. A lookup failure is not "no announcement": bail
	// out rather than risk a duplicate post.
	if _, err := a.announcements.GetActive(ctx, platform, guildID, streamerID); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrAnnouncementNotFound) {
		return fmt.Errorf("failed to check active announcement: %w", err)
	}

	streamer := streaming.FindStreamer(platform, username)
	content := buildContent(streamer, username, info)
	embed := buildLiveEmbed(platform, username, info, streaming.Announcement)

	messageID, err := a.discord.SendMessage(channelID, content, embed)
	if err != nil {
		return err
	}

	_, err = a.announcements.Create(ctx, &domain.Announcement{
		Platform:           platform,
		GuildID:            guildID,
		ChannelID:          channelID,
		MessageID:          messageID,
		StreamerUsername:   username,
		StreamerID:         streamerID,
		StreamID:           info.StreamID,
		StreamTitle:        info.Title,
		GameName:           info.GameName,
		StreamStartedAt:    info.StartedAt,
		InitialViewerCount: info.ViewerCount,
	})
	if err != nil {
		return err
	}

	metrics.AnnouncementsPosted.WithLabelValues(platform).Inc()
	return nil
}

// StreamOffline closes every open announcement for the streamer, editing
// the posted messages to show the final stream summary.
func (a *Announcer) StreamOffline(ctx context.Context, platform, streamerID string, endedAt time.Time, finalViewers *int) {
	active, err := a.announcements.ListActive(ctx, platform, streamerID)
	if err != nil {
		logging.Logger.Error("failed to list active announcements",
			"platform", platform, "streamer_id", streamerID, "error", err)
		return
	}

	for _, ann := range active {
		embed := buildEndedEmbed(platform, &ann, endedAt)
		if err := a.discord.EditMessage(ann.ChannelID, ann.MessageID, "", embed); err != nil {
			logging.WithGuild(ann.GuildID).Warn("failed to edit ended announcement",
				"platform", platform, "message_id", ann.MessageID, "error", err)
		}
		if err := a.announcements.MarkEnded(ctx, ann.ID, endedAt, finalViewers); err != nil {
			logging.WithGuild(ann.GuildID).Warn("failed to mark announcement ended",
				"platform", platform, "announcement_id", ann.ID, "error", err)
		}
	}
}

// buildContent renders the guild's announcement message. Custom messages
// support {streamer}, {title}, {game} and {url} placeholders; role
// mentions are prepended.
func buildContent(streamer *domain.TrackedStreamer, username string, info *domain.StreamInfo) string {
	var mentions []string
	custom := ""
	if streamer != nil {
		custom = streamer.CustomMessage
		if streamer.Mention != "" {
			mentions = append(mentions, streamer.Mention)
		}
		for _, roleID := range streamer.MentionRoleIDs {
			mentions = append(mentions, "<@&"+roleID+">")
		}
	}

	if custom == "" {
		custom = "🔴 **{streamer}** is now live! {url}"
	}
	replacer := strings.NewReplacer(
		"{streamer}", username,
		"{title}", info.Title,
		"{game}", info.GameName,
		"{url}", info.URL,
	)
	content := replacer.Replace(custom)

	if len(mentions) > 0 {
		content = strings.Join(mentions, " ") + " " + content
	}
	return content
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

func embedColor(platform string, settings domain.AnnouncementSettings) int {
	override := ""
	switch platform {
	case domain.PlatformTwitch:
		override = settings.TwitchColor
	case domain.PlatformKick:
		override = settings.KickColor
	case domain.PlatformYouTube:
		override = settings.YouTubeColor
	}
	if override == "" {
		override = platformColors[platform]
	}
	return discord.ParseHexColor(override)
}

func buildLiveEmbed(platform, username string, info *domain.StreamInfo, settings domain.AnnouncementSettings) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: info.Title,
		URL:   info.URL,
		Color: embedColor(platform, settings),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    username + " is live on " + platformLabel(platform),
			IconURL: info.ProfileImage,
		},
	}

	if boolOr(settings.IncludeGame, true) && info.GameName != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Game", Value: info.GameName, Inline: true,
		})
	}
	if boolOr(settings.IncludeViewerCount, true) && info.ViewerCount > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Viewers", Value: strconv.Itoa(info.ViewerCount), Inline: true,
		})
	}
	if boolOr(settings.IncludeStartTime, true) && !info.StartedAt.IsZero() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Started", Value: fmt.Sprintf("<t:%d:R>", info.StartedAt.Unix()), Inline: true,
		})
	}
	if boolOr(settings.IncludeThumbnail, true) && info.ThumbnailURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: info.ThumbnailURL}
	}
	return embed
}

func buildEndedEmbed(platform string, ann *domain.Announcement, endedAt time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: ann.StreamTitle,
		Color: 0x95A5A6, // muted grey for ended streams
		Author: &discordgo.MessageEmbedAuthor{
			Name: ann.StreamerUsername + " was live on " + platformLabel(platform),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Streamed for", Value: FormatDuration(ann.Duration(endedAt)), Inline: true},
		},
	}
	if ann.GameName != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Game", Value: ann.GameName, Inline: true,
		})
	}
	return embed
}

func platformLabel(platform string) string {
	switch platform {
	case domain.PlatformTwitch:
		return "Twitch"
	case domain.PlatformKick:
		return "Kick"
	case domain.PlatformYouTube:
		return "YouTube"
	}
	return platform
}

// FormatDuration renders a stream length as "3h 24m" (or "45m" under an
// hour, "2d 1h 3m" over a day).
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
