package domain

import "time"

// Streaming platforms.
const (
	PlatformTwitch  = "twitch"
	PlatformKick    = "kick"
	PlatformYouTube = "youtube"
)

// StreamSubscription is the refcounted bookkeeping row for one upstream
// push subscription: which guilds track this broadcaster, and the upstream
// subscription ids to tear down when the last guild stops tracking.
type StreamSubscription struct {
	Platform              string
	BroadcasterID         string
	BroadcasterUsername   string
	OnlineSubscriptionID  string
	OfflineSubscriptionID string
	GuildIDs              []int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// GuildCount returns the number of guilds tracking the broadcaster.
func (s *StreamSubscription) GuildCount() int {
	return len(s.GuildIDs)
}

// WebhookEvent is a received platform event, keyed by the platform's
// message id. Existence of the row is the idempotency guard.
type WebhookEvent struct {
	EventID             string
	Platform            string
	EventType           string
	SubscriptionID      string
	BroadcasterID       string
	BroadcasterUsername string
	Payload             []byte
	ReceivedAt          time.Time
	ProcessedAt         *time.Time
	ProcessingError     string
}

// StreamInfo is the live-stream metadata fetched from a platform API when
// building an announcement.
type StreamInfo struct {
	StreamID     string
	Title        string
	GameName     string
	ViewerCount  int
	ThumbnailURL string
	ProfileImage string
	StartedAt    time.Time
	URL          string
}

// Announcement is a posted "streamer is live" Discord message, edited in
// place when the stream ends. One active row per streamer per guild.
type Announcement struct {
	ID                 int64
	Platform           string
	GuildID            int64
	ChannelID          int64
	MessageID          int64
	StreamerUsername   string
	StreamerID         string
	StreamID           string
	StreamTitle        string
	GameName           string
	StreamStartedAt    time.Time
	StreamEndedAt      *time.Time
	InitialViewerCount int
	FinalViewerCount   *int
	CreatedAt          time.Time
}

// Duration returns the stream length at the given end time.
func (a *Announcement) Duration(end time.Time) time.Duration {
	return end.Sub(a.StreamStartedAt)
}
