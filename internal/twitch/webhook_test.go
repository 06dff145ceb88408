package twitch

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acosmic/acosmibot-api/internal/domain"
)

const testWebhookSecret = "super-secret-webhook-key"

type fakeEventStore struct {
	mu        sync.Mutex
	recorded  []*domain.WebhookEvent
	recordErr error
	processed []string
	failed    []string
}

func (s *fakeEventStore) Record(_ context.Context, ev *domain.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, ev)
	return nil
}

func (s *fakeEventStore) MarkProcessed(_ context.Context, _, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, eventID)
	return nil
}

func (s *fakeEventStore) MarkFailed(_ context.Context, _, eventID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, eventID)
	return nil
}

func (s *fakeEventStore) recordedEvents() []*domain.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.WebhookEvent(nil), s.recorded...)
}

type fakeGuildLister struct {
	guilds []int64
}

func (l *fakeGuildLister) ListGuilds(_ context.Context, _, _ string) ([]int64, error) {
	return l.guilds, nil
}

func signedRequest(t *testing.T, msgType, msgID, body string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/twitch", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Twitch-Eventsub-Message-Type", msgType)
	req.Header.Set("Twitch-Eventsub-Message-Id", msgID)

	timestamp := time.Now().UTC().Format(time.RFC3339)
	req.Header.Set("Twitch-Eventsub-Message-Timestamp", timestamp)

	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(msgID + timestamp + body))
	req.Header.Set("Twitch-Eventsub-Message-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func callWebhook(h *WebhookHandler, req *http.Request) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return rec, h.Handle(e.NewContext(req, rec))
}

func TestWebhookHandle_InvalidSignature(t *testing.T) {
	h := NewWebhookHandler(testWebhookSecret, &fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	req := signedRequest(t, "notification", "msg-1", `{}`)
	req.Header.Set("Twitch-Eventsub-Message-Signature", "sha256=deadbeef")

	_, err := callWebhook(h, req)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestWebhookHandle_Verification(t *testing.T) {
	h := NewWebhookHandler(testWebhookSecret, &fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	body := `{"challenge":"pong-me-back","subscription":{"type":"stream.online"}}`
	rec, err := callWebhook(h, signedRequest(t, "webhook_callback_verification", "msg-1", body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong-me-back", rec.Body.String())
}

func TestWebhookHandle_Revocation(t *testing.T) {
	store := &fakeEventStore{}
	h := NewWebhookHandler(testWebhookSecret, store, &fakeGuildLister{}, nil, nil)

	body := `{"subscription":{"id":"sub-1","type":"stream.online","status":"authorization_revoked"}}`
	rec, err := callWebhook(h, signedRequest(t, "revocation", "msg-1", body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.recordedEvents())
}

func TestWebhookHandle_UnknownMessageType(t *testing.T) {
	h := NewWebhookHandler(testWebhookSecret, &fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	_, err := callWebhook(h, signedRequest(t, "something-new", "msg-1", `{}`))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestWebhookHandle_Notification(t *testing.T) {
	store := &fakeEventStore{}
	h := NewWebhookHandler(testWebhookSecret, store, &fakeGuildLister{}, nil, nil)

	body := `{
		"subscription": {"id": "sub-1", "type": "stream.online", "condition": {"broadcaster_user_id": "42"}},
		"event": {"id": "9001", "broadcaster_user_id": "42", "broadcaster_user_login": "somestreamer"}
	}`
	rec, err := callWebhook(h, signedRequest(t, "notification", "msg-1", body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	events := store.recordedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "msg-1", events[0].EventID)
	assert.Equal(t, domain.PlatformTwitch, events[0].Platform)
	assert.Equal(t, "stream.online", events[0].EventType)
	assert.Equal(t, "sub-1", events[0].SubscriptionID)
	assert.Equal(t, "42", events[0].BroadcasterID)
	assert.Equal(t, "somestreamer", events[0].BroadcasterUsername)
}

func TestWebhookHandle_DuplicateNotification(t *testing.T) {
	store := &fakeEventStore{recordErr: domain.ErrDuplicateWebhookEvent}
	h := NewWebhookHandler(testWebhookSecret, store, &fakeGuildLister{}, nil, nil)

	body := `{"subscription":{"id":"sub-1","type":"stream.online"},"event":{"broadcaster_user_id":"42"}}`
	rec, err := callWebhook(h, signedRequest(t, "notification", "msg-1", body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.recordedEvents())
}

func TestWebhookHandle_MissingMessageID(t *testing.T) {
	h := NewWebhookHandler(testWebhookSecret, &fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	req := signedRequest(t, "notification", "", `{"subscription":{"type":"stream.online"}}`)

	_, err := callWebhook(h, req)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
