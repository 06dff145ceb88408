package kick

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/acosmic/acosmibot-api/internal/announce"
	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/labstack/echo/v4"
)

const (
	headerMessageID = "Kick-Event-Message-Id"
	headerEventType = "Kick-Event-Type"
	headerSignature = "Kick-Event-Signature"
)

type eventStore interface {
	Record(ctx context.Context, ev *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, platform, eventID string) error
	MarkFailed(ctx context.Context, platform, eventID, processingError string) error
}

type guildLister interface {
	ListGuilds(ctx context.Context, platform, broadcasterID string) ([]int64, error)
}

// WebhookHandler receives Kick event notifications. Kick signs payloads
// with its RSA key, not a shared secret, so a missing signature is
// logged rather than rejected; idempotency by message id is the real
// duplicate guard.
type WebhookHandler struct {
	events    eventStore
	subs      guildLister
	client    *Client
	announcer *announce.Announcer
}

func NewWebhookHandler(events eventStore, subs guildLister, client *Client, announcer *announce.Announcer) *WebhookHandler {
	return &WebhookHandler{events: events, subs: subs, client: client, announcer: announcer}
}

type statusEvent struct {
	Broadcaster struct {
		UserID      int64  `json:"user_id"`
		Username    string `json:"username"`
		ChannelSlug string `json:"channel_slug"`
	} `json:"broadcaster"`
	IsLive    bool   `json:"is_live"`
	Title     string `json:"title"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
}

// Handle is the POST /api/webhooks/kick endpoint.
func (h *WebhookHandler) Handle(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.WebhookProcessingDuration.WithLabelValues(domain.PlatformKick).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	messageID := c.Request().Header.Get(headerMessageID)
	if messageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing message id")
	}
	if c.Request().Header.Get(headerSignature) == "" {
		logging.Logger.Warn("kick webhook arrived unsigned", "message_id", messageID, "remote_ip", c.RealIP())
	}

	eventType := c.Request().Header.Get(headerEventType)
	if eventType != EventLivestreamStatusUpdated {
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformKick, "ignored").Inc()
		return c.NoContent(http.StatusOK)
	}

	var event statusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload")
	}

	broadcasterID := strconv.FormatInt(event.Broadcaster.UserID, 10)
	err = h.events.Record(c.Request().Context(), &domain.WebhookEvent{
		EventID:             messageID,
		Platform:            domain.PlatformKick,
		EventType:           eventType,
		BroadcasterID:       broadcasterID,
		BroadcasterUsername: event.Broadcaster.ChannelSlug,
		Payload:             body,
	})
	if errors.Is(err, domain.ErrDuplicateWebhookEvent) {
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformKick, "duplicate").Inc()
		return c.NoContent(http.StatusOK)
	}
	if err != nil {
		logging.WithEvent(domain.PlatformKick, messageID).Error("failed to record webhook event", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record event")
	}

	go h.process(messageID, broadcasterID, &event)

	metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformKick, "processed").Inc()
	return c.NoContent(http.StatusOK)
}

func (h *WebhookHandler) process(messageID, broadcasterID string, event *statusEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logging.WithEvent(domain.PlatformKick, messageID)

	var err error
	if event.IsLive {
		err = h.processOnline(ctx, broadcasterID, event)
	} else {
		endedAt, parseErr := time.Parse(time.RFC3339, event.EndedAt)
		if parseErr != nil {
			endedAt = time.Now().UTC()
		}
		h.announcer.StreamOffline(ctx, domain.PlatformKick, broadcasterID, endedAt, nil)
	}

	if err != nil {
		log.Error("failed to process kick event", "error", err)
		if markErr := h.events.MarkFailed(ctx, domain.PlatformKick, messageID, err.Error()); markErr != nil {
			log.Error("failed to mark event failed", "error", markErr)
		}
		return
	}
	if err := h.events.MarkProcessed(ctx, domain.PlatformKick, messageID); err != nil {
		log.Error("failed to mark event processed", "error", err)
	}
}

func (h *WebhookHandler) processOnline(ctx context.Context, broadcasterID string, event *statusEvent) error {
	guilds, err := h.subs.ListGuilds(ctx, domain.PlatformKick, broadcasterID)
	if err != nil {
		return err
	}
	if len(guilds) == 0 {
		return nil
	}

	slug := event.Broadcaster.ChannelSlug
	info, err := h.client.GetStream(ctx, slug)
	if err != nil || info == nil {
		startedAt, _ := time.Parse(time.RFC3339, event.StartedAt)
		info = &domain.StreamInfo{
			Title:     event.Title,
			StartedAt: startedAt,
			URL:       "https://kick.com/" + slug,
		}
	}

	username := event.Broadcaster.Username
	if username == "" {
		username = slug
	}
	h.announcer.StreamOnline(ctx, domain.PlatformKick, broadcasterID, username, info, guilds)
	return nil
}
