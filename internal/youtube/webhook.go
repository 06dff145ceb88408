package youtube

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acosmic/acosmibot-api/internal/announce"
	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/labstack/echo/v4"
)

type eventStore interface {
	Record(ctx context.Context, ev *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, platform, eventID string) error
	MarkFailed(ctx context.Context, platform, eventID, processingError string) error
}

type guildLister interface {
	ListGuilds(ctx context.Context, platform, broadcasterID string) ([]int64, error)
}

// WebhookHandler receives WebSub pushes for tracked channel feeds. The
// hub calls GET with a challenge to verify the subscription and POST
// with an Atom document on feed updates, signed with HMAC-SHA1.
type WebhookHandler struct {
	secret    string
	events    eventStore
	subs      guildLister
	client    *Client
	announcer *announce.Announcer
}

func NewWebhookHandler(secret string, events eventStore, subs guildLister, client *Client, announcer *announce.Announcer) *WebhookHandler {
	return &WebhookHandler{secret: secret, events: events, subs: subs, client: client, announcer: announcer}
}

// HandleChallenge is the GET /api/webhooks/youtube endpoint. The hub
// verifies subscribe and unsubscribe requests by expecting its challenge
// echoed back.
func (h *WebhookHandler) HandleChallenge(c echo.Context) error {
	challenge := c.QueryParam("hub.challenge")
	if challenge == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing hub.challenge")
	}
	logging.Logger.Info("websub verification",
		"mode", c.QueryParam("hub.mode"), "topic", c.QueryParam("hub.topic"))
	return c.String(http.StatusOK, challenge)
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID   string `xml:"videoId"`
	ChannelID string `xml:"channelId"`
	Title     string `xml:"title"`
	Updated   string `xml:"updated"`
}

// HandleNotification is the POST /api/webhooks/youtube endpoint.
func (h *WebhookHandler) HandleNotification(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.WebhookProcessingDuration.WithLabelValues(domain.PlatformYouTube).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	if !h.verifySignature(c.Request().Header.Get("X-Hub-Signature"), body) {
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformYouTube, "invalid_signature").Inc()
		logging.Logger.Warn("rejected youtube webhook with bad signature", "remote_ip", c.RealIP())
		// WebSub spec: acknowledge but ignore, so the hub does not
		// retry a payload that will never verify.
		return c.NoContent(http.StatusOK)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed feed")
	}

	for _, entry := range feed.Entries {
		if entry.VideoID == "" {
			continue
		}
		h.recordAndProcess(c.Request().Context(), body, entry)
	}
	return c.NoContent(http.StatusOK)
}

// verifySignature checks the sha1= HMAC the hub computes with our
// subscription secret.
func (h *WebhookHandler) verifySignature(header string, body []byte) bool {
	signature, ok := strings.CutPrefix(header, "sha1=")
	if !ok {
		return false
	}
	mac := hmac.New(sha1.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func (h *WebhookHandler) recordAndProcess(ctx context.Context, body []byte, entry atomEntry) {
	// A video produces multiple feed pushes over its lifetime (created,
	// title change, ended); keying on video id plus the feed's updated
	// stamp dedups hub retries without swallowing state changes.
	eventID := entry.VideoID + ":" + entry.Updated

	err := h.events.Record(ctx, &domain.WebhookEvent{
		EventID:       eventID,
		Platform:      domain.PlatformYouTube,
		EventType:     "feed.updated",
		BroadcasterID: entry.ChannelID,
		Payload:       body,
	})
	if errors.Is(err, domain.ErrDuplicateWebhookEvent) {
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformYouTube, "duplicate").Inc()
		return
	}
	if err != nil {
		logging.WithEvent(domain.PlatformYouTube, eventID).Error("failed to record webhook event", "error", err)
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformYouTube, "processed").Inc()
	go h.process(eventID, entry)
}

func (h *WebhookHandler) process(eventID string, entry atomEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logging.WithEvent(domain.PlatformYouTube, eventID)

	if err := h.processEntry(ctx, entry); err != nil {
		log.Error("failed to process youtube event", "error", err)
		if markErr := h.events.MarkFailed(ctx, domain.PlatformYouTube, eventID, err.Error()); markErr != nil {
			log.Error("failed to mark event failed", "error", markErr)
		}
		return
	}
	if err := h.events.MarkProcessed(ctx, domain.PlatformYouTube, eventID); err != nil {
		log.Error("failed to mark event processed", "error", err)
	}
}

func (h *WebhookHandler) processEntry(ctx context.Context, entry atomEntry) error {
	video, err := h.client.GetVideo(ctx, entry.VideoID)
	if err != nil {
		return err
	}
	if video == nil {
		// Deleted before we got to it.
		return nil
	}

	switch {
	case video.IsLive && !video.ActualStartTime.IsZero():
		guilds, err := h.subs.ListGuilds(ctx, domain.PlatformYouTube, entry.ChannelID)
		if err != nil {
			return err
		}
		if len(guilds) == 0 {
			return nil
		}
		info := &domain.StreamInfo{
			StreamID:     video.ID,
			Title:        video.Title,
			ViewerCount:  video.ConcurrentViewers,
			ThumbnailURL: video.Thumbnail,
			StartedAt:    video.ActualStartTime,
			URL:          "https://www.youtube.com/watch?v=" + video.ID,
		}
		h.announcer.StreamOnline(ctx, domain.PlatformYouTube, entry.ChannelID, video.ChannelTitle, info, guilds)

	case !video.ActualEndTime.IsZero():
		viewers := video.ConcurrentViewers
		h.announcer.StreamOffline(ctx, domain.PlatformYouTube, entry.ChannelID, video.ActualEndTime, &viewers)
	}
	return nil
}
