package kick

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acosmic/acosmibot-api/internal/domain"
)

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

func kickRequest(msgType, msgID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/kick", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if msgID != "" {
		req.Header.Set("Kick-Event-Message-Id", msgID)
	}
	req.Header.Set("Kick-Event-Type", msgType)
	req.Header.Set("Kick-Event-Signature", "sig")
	return req
}

func callWebhook(h *WebhookHandler, req *http.Request) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return rec, h.Handle(e.NewContext(req, rec))
}

func TestWebhookHandle_MissingMessageID(t *testing.T) {
	h := NewWebhookHandler(&fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	_, err := callWebhook(h, kickRequest(EventLivestreamStatusUpdated, "", `{}`))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestWebhookHandle_IgnoresOtherEventTypes(t *testing.T) {
	store := &fakeEventStore{}
	h := NewWebhookHandler(store, &fakeGuildLister{}, nil, nil)

	rec, err := callWebhook(h, kickRequest("chat.message.sent", "msg-1", `{}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.recordedEvents())
}

func TestWebhookHandle_MalformedPayload(t *testing.T) {
	h := NewWebhookHandler(&fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	_, err := callWebhook(h, kickRequest(EventLivestreamStatusUpdated, "msg-1", `{not json`))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestWebhookHandle_RecordsStatusEvent(t *testing.T) {
	store := &fakeEventStore{}
	h := NewWebhookHandler(store, &fakeGuildLister{}, nil, nil)

	body := `{
		"broadcaster": {"user_id": 9001, "username": "SomeStreamer", "channel_slug": "somestreamer"},
		"is_live": true,
		"title": "Speedrunning all day",
		"started_at": "2025-06-01T20:00:00Z"
	}`
	rec, err := callWebhook(h, kickRequest(EventLivestreamStatusUpdated, "msg-1", body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	events := store.recordedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "msg-1", events[0].EventID)
	assert.Equal(t, domain.PlatformKick, events[0].Platform)
	assert.Equal(t, EventLivestreamStatusUpdated, events[0].EventType)
	assert.Equal(t, "9001", events[0].BroadcasterID)
	assert.Equal(t, "somestreamer", events[0].BroadcasterUsername)
}

func TestWebhookHandle_Duplicate(t *testing.T) {
	store := &fakeEventStore{recordErr: domain.ErrDuplicateWebhookEvent}
	h := NewWebhookHandler(store, &fakeGuildLister{}, nil, nil)

	body := `{"broadcaster": {"user_id": 9001, "channel_slug": "somestreamer"}, "is_live": true}`
	rec, err := callWebhook(h, kickRequest(EventLivestreamStatusUpdated, "msg-1", body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.recordedEvents())
}
