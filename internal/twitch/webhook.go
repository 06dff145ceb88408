package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/acosmic/acosmibot-api/internal/announce"
	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/nicklaw5/helix/v2"
)

// EventSub message type header values.
const (
	headerMessageID   = "Twitch-Eventsub-Message-Id"
	headerMessageType = "Twitch-Eventsub-Message-Type"

	messageTypeVerification = "webhook_callback_verification"
	messageTypeNotification = "notification"
	messageTypeRevocation   = "revocation"
)

type eventStore interface {
	Record(ctx context.Context, ev *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, platform, eventID string) error
	MarkFailed(ctx context.Context, platform, eventID, processingError string) error
}

type guildLister interface {
	ListGuilds(ctx context.Context, platform, broadcasterID string) ([]int64, error)
}

// WebhookHandler receives Twitch EventSub notifications. Signatures are
// verified with the shared webhook secret; duplicate message ids are
// acknowledged without reprocessing.
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

type notificationPayload struct {
	Challenge    string `json:"challenge"`
	Subscription struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		Status    string `json:"status"`
		Condition struct {
			BroadcasterUserID string `json:"broadcaster_user_id"`
		} `json:"condition"`
	} `json:"subscription"`
	Event struct {
		ID                   string `json:"id"`
		BroadcasterUserID    string `json:"broadcaster_user_id"`
		BroadcasterUserLogin string `json:"broadcaster_user_login"`
		BroadcasterUserName  string `json:"broadcaster_user_name"`
		StartedAt            string `json:"started_at"`
	} `json:"event"`
}

// Handle is the POST /api/webhooks/twitch endpoint.
func (h *WebhookHandler) Handle(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.WebhookProcessingDuration.WithLabelValues(domain.PlatformTwitch).Observe(time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	if !helix.VerifyEventSubNotification(h.secret, c.Request().Header, string(body)) {
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformTwitch, "invalid_signature").Inc()
		logging.Logger.Warn("rejected twitch webhook with bad signature", "remote_ip", c.RealIP())
		return echo.NewHTTPError(http.StatusForbidden, "invalid signature")
	}

	var payload notificationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed payload")
	}

	switch c.Request().Header.Get(headerMessageType) {
	case messageTypeVerification:
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformTwitch, "verified").Inc()
		logging.Logger.Info("twitch eventsub verification",
			"subscription_type", payload.Subscription.Type,
			"broadcaster_id", payload.Subscription.Condition.BroadcasterUserID)
		return c.String(http.StatusOK, payload.Challenge)

	case messageTypeRevocation:
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformTwitch, "revoked").Inc()
		logging.Logger.Warn("twitch eventsub subscription revoked",
			"subscription_id", payload.Subscription.ID,
			"subscription_type", payload.Subscription.Type,
			"status", payload.Subscription.Status)
		return c.NoContent(http.StatusNoContent)

	case messageTypeNotification:
		return h.handleNotification(c, body, &payload)
	}

	return echo.NewHTTPError(http.StatusBadRequest, "unknown message type")
}

func (h *WebhookHandler) handleNotification(c echo.Context, body []byte, payload *notificationPayload) error {
	messageID := c.Request().Header.Get(headerMessageID)
	if messageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing message id")
	}

	err := h.events.Record(c.Request().Context(), &domain.WebhookEvent{
		EventID:             messageID,
		Platform:            domain.PlatformTwitch,
		EventType:           payload.Subscription.Type,
		SubscriptionID:      payload.Subscription.ID,
		BroadcasterID:       payload.Event.BroadcasterUserID,
		BroadcasterUsername: payload.Event.BroadcasterUserLogin,
		Payload:             body,
	})
	if errors.Is(err, domain.ErrDuplicateWebhookEvent) {
		// Twitch retries until it sees a 2xx; the first delivery already
		// ran, so just acknowledge.
		metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformTwitch, "duplicate").Inc()
		return c.NoContent(http.StatusOK)
	}
	if err != nil {
		logging.WithEvent(domain.PlatformTwitch, messageID).Error("failed to record webhook event", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record event")
	}

	// Process off the request path: Twitch expects a fast 2xx and retries
	// on timeouts, which would double-announce.
	go h.process(messageID, payload)

	metrics.WebhookEventsTotal.WithLabelValues(domain.PlatformTwitch, "processed").Inc()
	return c.NoContent(http.StatusOK)
}

func (h *WebhookHandler) process(messageID string, payload *notificationPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logging.WithEvent(domain.PlatformTwitch, messageID)

	var err error
	switch payload.Subscription.Type {
	case helix.EventSubTypeStreamOnline:
		err = h.processOnline(ctx, payload)
	case helix.EventSubTypeStreamOffline:
		h.announcer.StreamOffline(ctx, domain.PlatformTwitch, payload.Event.BroadcasterUserID, time.Now().UTC(), nil)
	default:
		log.Debug("ignoring unhandled twitch event", "subscription_type", payload.Subscription.Type)
	}

	if err != nil {
		log.Error("failed to process twitch event", "error", err)
		if markErr := h.events.MarkFailed(ctx, domain.PlatformTwitch, messageID, err.Error()); markErr != nil {
			log.Error("failed to mark event failed", "error", markErr)
		}
		return
	}
	if err := h.events.MarkProcessed(ctx, domain.PlatformTwitch, messageID); err != nil {
		log.Error("failed to mark event processed", "error", err)
	}
}

func (h *WebhookHandler) processOnline(ctx context.Context, payload *notificationPayload) error {
	broadcasterID := payload.Event.BroadcasterUserID
	login := payload.Event.BroadcasterUserLogin

	guilds, err := h.subs.ListGuilds(ctx, domain.PlatformTwitch, broadcasterID)
	if err != nil {
		return err
	}
	if len(guilds) == 0 {
		return nil
	}

	info, err := h.client.GetStream(broadcasterID)
	if err != nil {
		logging.Logger.Warn("stream lookup failed, announcing with event data only",
			"broadcaster_id", broadcasterID, "error", err)
		info = nil
	}
	if info == nil {
		startedAt, _ := time.Parse(time.RFC3339, payload.Event.StartedAt)
		info = &domain.StreamInfo{
			StreamID:  payload.Event.ID,
			StartedAt: startedAt,
			URL:       "https://twitch.tv/" + login,
		}
	}

	username := payload.Event.BroadcasterUserName
	if username == "" {
		username = login
	}
	h.announcer.StreamOnline(ctx, domain.PlatformTwitch, broadcasterID, username, info, guilds)
	return nil
}
