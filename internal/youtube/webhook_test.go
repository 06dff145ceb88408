package youtube

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
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

const testHubSecret = "websub-shared-secret"

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

type errorTransport struct{}

func (errorTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("transport disabled")
}

// offlineClient never reaches the network, so background processing
// fails fast instead of making real API calls.
func offlineClient() *Client {
	return &Client{
		apiKey:     "test-key",
		httpClient: &http.Client{Transport: errorTransport{}},
	}
}

func signFeed(body string) string {
	mac := hmac.New(sha1.New, []byte(testHubSecret))
	mac.Write([]byte(body))
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHandleChallenge(t *testing.T) {
	h := NewWebhookHandler(testHubSecret, &fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/webhooks/youtube?hub.mode=subscribe&hub.challenge=echo-this&hub.topic=xyz", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.HandleChallenge(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "echo-this", rec.Body.String())
}

func TestHandleChallenge_Missing(t *testing.T) {
	h := NewWebhookHandler(testHubSecret, &fakeEventStore{}, &fakeGuildLister{}, nil, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/webhooks/youtube", nil)
	rec := httptest.NewRecorder()

	err := h.HandleChallenge(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestVerifySignature(t *testing.T) {
	h := NewWebhookHandler(testHubSecret, &fakeEventStore{}, &fakeGuildLister{}, nil, nil)
	body := []byte("<feed></feed>")

	mac := hmac.New(sha1.New, []byte(testHubSecret))
	mac.Write(body)
	digest := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, h.verifySignature("sha1="+digest, body))
	assert.True(t, h.verifySignature("sha1="+strings.ToUpper(digest), body))
	assert.False(t, h.verifySignature(digest, body))
	assert.False(t, h.verifySignature("sha1=0000", body))
	assert.False(t, h.verifySignature("", body))
}

const feedBody = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <yt:videoId>vid123</yt:videoId>
    <yt:channelId>UC42</yt:channelId>
    <title>Going live soon</title>
    <updated>2025-06-01T20:00:00+00:00</updated>
  </entry>
</feed>`

func postFeed(h *WebhookHandler, body, signature string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/youtube", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/atom+xml")
	req.Header.Set("X-Hub-Signature", signature)
	rec := httptest.NewRecorder()
	return rec, h.HandleNotification(e.NewContext(req, rec))
}

func TestHandleNotification_BadSignature(t *testing.T) {
	store := &fakeEventStore{}
	h := NewWebhookHandler(testHubSecret, store, &fakeGuildLister{}, offlineClient(), nil)

	rec, err := postFeed(h, feedBody, "sha1=ffffffff")

	// The hub is acknowledged so it stops retrying, but nothing is recorded.
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.recordedEvents())
}

func TestHandleNotification_RecordsEntry(t *testing.T) {
	store := &fakeEventStore{}
	h := NewWebhookHandler(testHubSecret, store, &fakeGuildLister{}, offlineClient(), nil)

	rec, err := postFeed(h, feedBody, signFeed(feedBody))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	events := store.recordedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "vid123:2025-06-01T20:00:00+00:00", events[0].EventID)
	assert.Equal(t, domain.PlatformYouTube, events[0].Platform)
	assert.Equal(t, "feed.updated", events[0].EventType)
	assert.Equal(t, "UC42", events[0].BroadcasterID)
}

func TestHandleNotification_Duplicate(t *testing.T) {
	store := &fakeEventStore{recordErr: domain.ErrDuplicateWebhookEvent}
	h := NewWebhookHandler(testHubSecret, store, &fakeGuildLister{}, offlineClient(), nil)

	rec, err := postFeed(h, feedBody, signFeed(feedBody))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.recordedEvents())
}

func TestHandleNotification_SkipsEntriesWithoutVideoID(t *testing.T) {
	store := &fakeEventStore{}
	h := NewWebhookHandler(testHubSecret, store, &fakeGuildLister{}, offlineClient(), nil)

	body := `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><entry><title>deleted</title></entry></feed>`
	rec, err := postFeed(h, body, signFeed(body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.recordedEvents())
}

func TestHandleNotification_MalformedFeed(t *testing.T) {
	h := NewWebhookHandler(testHubSecret, &fakeEventStore{}, &fakeGuildLister{}, offlineClient(), nil)

	body := `this is not xml`
	_, err := postFeed(h, body, signFeed(body))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
