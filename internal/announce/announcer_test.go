package announce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acosmic/acosmibot-api/internal/domain"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"under an hour", 45 * time.Minute, "45m"},
		{"hours and minutes", 3*time.Hour + 24*time.Minute, "3h 24m"},
		{"over a day", 49*time.Hour + 3*time.Minute, "2d 1h 3m"},
		{"zero", 0, "0m"},
		{"negative clamps to zero", -5 * time.Minute, "0m"},
		{"rounds seconds", 45*time.Minute + 31*time.Second, "46m"},
		{"exact hour", time.Hour, "1h 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.duration))
		})
	}
}

func TestBuildContent_Default(t *testing.T) {
	info := &domain.StreamInfo{
		Title:    "Speedrunning all day",
		GameName: "Celeste",
		URL:      "https://twitch.tv/somestreamer",
	}

	content := buildContent(nil, "somestreamer", info)

	assert.Equal(t, "🔴 **somestreamer** is now live! https://twitch.tv/somestreamer", content)
}

func TestBuildContent_CustomMessage(t *testing.T) {
	streamer := &domain.TrackedStreamer{
		Platform:      domain.PlatformTwitch,
		Username:      "somestreamer",
		CustomMessage: "{streamer} is playing {game}: {title} {url}",
	}
	info := &domain.StreamInfo{
		Title:    "Speedrunning all day",
		GameName: "Celeste",
		URL:      "https://twitch.tv/somestreamer",
	}

	content := buildContent(streamer, "somestreamer", info)

	assert.Equal(t, "somestreamer is playing Celeste: Speedrunning all day https://twitch.tv/somestreamer", content)
}

func TestBuildContent_Mentions(t *testing.T) {
	streamer := &domain.TrackedStreamer{
		Platform:       domain.PlatformTwitch,
		Username:       "somestreamer",
		Mention:        "@everyone",
		MentionRoleIDs: []string{"111", "222"},
	}
	info := &domain.StreamInfo{URL: "https://twitch.tv/somestreamer"}

	content := buildContent(streamer, "somestreamer", info)

	assert.Equal(t, "@everyone <@&111> <@&222> 🔴 **somestreamer** is now live! https://twitch.tv/somestreamer", content)
}

func TestEmbedColor(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		settings domain.AnnouncementSettings
		expected int
	}{
		{"twitch default", domain.PlatformTwitch, domain.AnnouncementSettings{}, 0x9146FF},
		{"kick default", domain.PlatformKick, domain.AnnouncementSettings{}, 0x53FC18},
		{"youtube default", domain.PlatformYouTube, domain.AnnouncementSettings{}, 0xFF0000},
		{"twitch override", domain.PlatformTwitch, domain.AnnouncementSettings{TwitchColor: "#123456"}, 0x123456},
		{"kick override", domain.PlatformKick, domain.AnnouncementSettings{KickColor: "#ABCDEF"}, 0xABCDEF},
		{"youtube override", domain.PlatformYouTube, domain.AnnouncementSettings{YouTubeColor: "#00FF00"}, 0x00FF00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, embedColor(tt.platform, tt.settings))
		})
	}
}

func TestBuildLiveEmbed(t *testing.T) {
	started := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	info := &domain.StreamInfo{
		StreamID:     "123",
		Title:        "Speedrunning all day",
		GameName:     "Celeste",
		ViewerCount:  512,
		ThumbnailURL: "https://example.com/thumb.jpg",
		ProfileImage: "https://example.com/avatar.png",
		StartedAt:    started,
		URL:          "https://twitch.tv/somestreamer",
	}

	embed := buildLiveEmbed(domain.PlatformTwitch, "somestreamer", info, domain.AnnouncementSettings{})

	assert.Equal(t, "Speedrunning all day", embed.Title)
	assert.Equal(t, "https://twitch.tv/somestreamer", embed.URL)
	assert.Equal(t, 0x9146FF, embed.Color)
	assert.Equal(t, "somestreamer is live on Twitch", embed.Author.Name)
	assert.Equal(t, "https://example.com/avatar.png", embed.Author.IconURL)
	assert.Len(t, embed.Fields, 3)
	assert.Equal(t, "Celeste", embed.Fields[0].Value)
	assert.Equal(t, "512", embed.Fields[1].Value)
	assert.Equal(t, "<t:1748808000:R>", embed.Fields[2].Value)
	assert.Equal(t, "https://example.com/thumb.jpg", embed.Image.URL)
}

func TestBuildLiveEmbed_SectionsDisabled(t *testing.T) {
	off := false
	info := &domain.StreamInfo{
		Title:        "Quiet stream",
		GameName:     "Celeste",
		ViewerCount:  10,
		ThumbnailURL: "https://example.com/thumb.jpg",
		StartedAt:    time.Now(),
		URL:          "https://kick.com/somestreamer",
	}
	settings := domain.AnnouncementSettings{
		IncludeGame:        &off,
		IncludeViewerCount: &off,
		IncludeStartTime:   &off,
		IncludeThumbnail:   &off,
	}

	embed := buildLiveEmbed(domain.PlatformKick, "somestreamer", info, settings)

	assert.Empty(t, embed.Fields)
	assert.Nil(t, embed.Image)
}

func TestBuildEndedEmbed(t *testing.T) {
	started := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	ann := &domain.Announcement{
		StreamerUsername: "somestreamer",
		StreamTitle:      "Speedrunning all day",
		GameName:         "Celeste",
		StreamStartedAt:  started,
	}

	embed := buildEndedEmbed(domain.PlatformYouTube, ann, started.Add(3*time.Hour+24*time.Minute))

	assert.Equal(t, "Speedrunning all day", embed.Title)
	assert.Equal(t, "somestreamer was live on YouTube", embed.Author.Name)
	assert.Len(t, embed.Fields, 2)
	assert.Equal(t, "3h 24m", embed.Fields[0].Value)
	assert.Equal(t, "Celeste", embed.Fields[1].Value)
}

func TestPlatformLabel(t *testing.T) {
	assert.Equal(t, "Twitch", platformLabel(domain.PlatformTwitch))
	assert.Equal(t, "Kick", platformLabel(domain.PlatformKick))
	assert.Equal(t, "YouTube", platformLabel(domain.PlatformYouTube))
	assert.Equal(t, "something-else", platformLabel("something-else"))
}

type fakeGuildStore struct {
	guild *domain.Guild
}

func (s *fakeGuildStore) GetByID(_ context.Context, _ int64) (*domain.Guild, error) {
	return s.guild, nil
}

type fakeAnnouncementStore struct {
	active    *domain.Announcement
	activeErr error
	created   []*domain.Announcement
}

func (s *fakeAnnouncementStore) GetActive(_ context.Context, _ string, _ int64, _ string) (*domain.Announcement, error) {
	return s.active, s.activeErr
}

func (s *fakeAnnouncementStore) Create(_ context.Context, a *domain.Announcement) (*domain.Announcement, error) {
	s.created = append(s.created, a)
	return a, nil
}

func (s *fakeAnnouncementStore) MarkEnded(_ context.Context, _ int64, _ time.Time, _ *int) error {
	return nil
}

func (s *fakeAnnouncementStore) ListActive(_ context.Context, _, _ string) ([]domain.Announcement, error) {
	return nil, nil
}

type fakeMessenger struct {
	sends int
	edits int
}

func (m *fakeMessenger) SendMessage(_ int64, _ string, _ *discordgo.MessageEmbed) (int64, error) {
	m.sends++
	return 4242, nil
}

func (m *fakeMessenger) EditMessage(_, _ int64, _ string, _ *discordgo.MessageEmbed) error {
	m.edits++
	return nil
}

func announcingGuild() *domain.Guild {
	return &domain.Guild{
		ID: 100,
		Settings: &domain.GuildSettings{
			Streaming: &domain.StreamingSettings{
				Enabled:               true,
				AnnouncementChannelID: "200",
			},
		},
	}
}

func TestAnnounceToGuild_PostsAndRecords(t *testing.T) {
	guilds := &fakeGuildStore{guild: announcingGuild()}
	store := &fakeAnnouncementStore{activeErr: domain.ErrAnnouncementNotFound}
	msg := &fakeMessenger{}
	a := New(guilds, store, msg)

	info := &domain.StreamInfo{Title: "Speedrunning all day", URL: "https://twitch.tv/somestreamer"}
	err := a.announceToGuild(context.Background(), domain.PlatformTwitch, "123", "somestreamer", info, 100)

	require.NoError(t, err)
	assert.Equal(t, 1, msg.sends)
	require.Len(t, store.created, 1)
	assert.Equal(t, int64(4242), store.created[0].MessageID)
}

func TestAnnounceToGuild_OpenAnnouncementSkips(t *testing.T) {
	guilds := &fakeGuildStore{guild: announcingGuild()}
	store := &fakeAnnouncementStore{active: &domain.Announcement{ID: 1}}
	msg := &fakeMessenger{}
	a := New(guilds, store, msg)

	info := &domain.StreamInfo{URL: "https://twitch.tv/somestreamer"}
	err := a.announceToGuild(context.Background(), domain.PlatformTwitch, "123", "somestreamer", info, 100)

	require.NoError(t, err)
	assert.Zero(t, msg.sends)
	assert.Empty(t, store.created)
}

func TestAnnounceToGuild_LookupErrorDoesNotPost(t *testing.T) {
	guilds := &fakeGuildStore{guild: announcingGuild()}
	store := &fakeAnnouncementStore{activeErr: errors.New("connection reset by peer")}
	msg := &fakeMessenger{}
	a := New(guilds, store, msg)

	info := &domain.StreamInfo{URL: "https://twitch.tv/somestreamer"}
	err := a.announceToGuild(context.Background(), domain.PlatformTwitch, "123", "somestreamer", info, 100)

	require.Error(t, err)
	assert.Zero(t, msg.sends)
	assert.Empty(t, store.created)
}
