package youtube

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acosmic/acosmibot-api/internal/domain"
)

type fakeSubStore struct {
	subs []domain.StreamSubscription
}

func (s *fakeSubStore) AddGuild(_ context.Context, _, _, _ string, _ int64) (*domain.StreamSubscription, error) {
	return nil, nil
}

func (s *fakeSubStore) RemoveGuild(_ context.Context, _, _ string, _ int64) (*domain.StreamSubscription, error) {
	return nil, domain.ErrStreamSubNotFound
}

func (s *fakeSubStore) SetUpstreamIDs(_ context.Context, _, _, _, _ string) error {
	return nil
}

func (s *fakeSubStore) ListByPlatform(_ context.Context, _ string) ([]domain.StreamSubscription, error) {
	return s.subs, nil
}

type recordingTransport struct {
	mu       sync.Mutex
	requests []url.Values
	notify   chan struct{}
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{notify: make(chan struct{}, 16)}
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	form, _ := url.ParseQuery(string(body))

	t.mu.Lock()
	t.requests = append(t.requests, form)
	t.mu.Unlock()
	t.notify <- struct{}{}

	return &http.Response{
		StatusCode: http.StatusAccepted,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func (t *recordingTransport) forms() []url.Values {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]url.Values(nil), t.requests...)
}

type scriptedGate struct {
	mu      sync.Mutex
	answers []bool
	asked   chan struct{}
}

func (g *scriptedGate) AcquireOrRenew(context.Context) (bool, error) {
	g.mu.Lock()
	answer := true
	if len(g.answers) > 0 {
		answer, g.answers = g.answers[0], g.answers[1:]
	}
	g.mu.Unlock()
	g.asked <- struct{}{}
	return answer, nil
}

func hubClient(transport *recordingTransport) *Client {
	return &Client{
		apiKey:        "test-key",
		callbackURL:   "https://api.example.com/api/webhooks/youtube",
		webhookSecret: "hub-secret",
		httpClient:    &http.Client{Transport: transport},
	}
}

func TestRenewAll(t *testing.T) {
	transport := newRecordingTransport()
	store := &fakeSubStore{subs: []domain.StreamSubscription{
		{Platform: domain.PlatformYouTube, BroadcasterID: "UC1"},
		{Platform: domain.PlatformYouTube, BroadcasterID: "UC2"},
	}}
	m := NewManager(hubClient(transport), store)

	m.RenewAll(context.Background())

	forms := transport.forms()
	require.Len(t, forms, 2)
	assert.Equal(t, "subscribe", forms[0].Get("hub.mode"))
	assert.Equal(t, topicURL("UC1"), forms[0].Get("hub.topic"))
	assert.Equal(t, topicURL("UC2"), forms[1].Get("hub.topic"))
	assert.Equal(t, "https://api.example.com/api/webhooks/youtube", forms[0].Get("hub.callback"))
}

func TestRunLeaseRenewal_TicksRenew(t *testing.T) {
	transport := newRecordingTransport()
	store := &fakeSubStore{subs: []domain.StreamSubscription{
		{Platform: domain.PlatformYouTube, BroadcasterID: "UC1"},
	}}
	clock := clockwork.NewFakeClock()
	m := NewManagerWithClock(hubClient(transport), store, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.RunLeaseRenewal(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	clock.Advance(renewInterval)

	select {
	case <-transport.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("renewal never reached the hub")
	}

	cancel()
	<-done
	require.Len(t, transport.forms(), 1)
}

func TestRunLeaseRenewal_GateBlocksFollowers(t *testing.T) {
	transport := newRecordingTransport()
	store := &fakeSubStore{subs: []domain.StreamSubscription{
		{Platform: domain.PlatformYouTube, BroadcasterID: "UC1"},
	}}
	clock := clockwork.NewFakeClock()
	m := NewManagerWithClock(hubClient(transport), store, clock)

	gate := &scriptedGate{answers: []bool{false, true}, asked: make(chan struct{}, 16)}
	m.SetRenewalGate(gate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.RunLeaseRenewal(ctx)
		close(done)
	}()

	clock.BlockUntil(1)

	// First tick: not leader, no renewal.
	clock.Advance(renewInterval)
	<-gate.asked
	assert.Empty(t, transport.forms())

	// Second tick: leadership acquired, renewal runs.
	clock.Advance(renewInterval)
	<-gate.asked
	select {
	case <-transport.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("leader renewal never reached the hub")
	}

	cancel()
	<-done
	require.Len(t, transport.forms(), 1)
}

// refcountStore hands back the stored upstream id so a second tracker
// sees the subscription the first one created.
type refcountStore struct {
	mu       sync.Mutex
	onlineID string
}

func (s *refcountStore) AddGuild(_ context.Context, platform, broadcasterID, _ string, _ int64) (*domain.StreamSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.StreamSubscription{
		Platform:             platform,
		BroadcasterID:        broadcasterID,
		OnlineSubscriptionID: s.onlineID,
	}, nil
}

func (s *refcountStore) RemoveGuild(_ context.Context, _, _ string, _ int64) (*domain.StreamSubscription, error) {
	return nil, domain.ErrStreamSubNotFound
}

func (s *refcountStore) SetUpstreamIDs(_ context.Context, _, _, onlineID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onlineID = onlineID
	return nil
}

func (s *refcountStore) ListByPlatform(_ context.Context, _ string) ([]domain.StreamSubscription, error) {
	return nil, nil
}

// trackTransport answers channel lookups and counts hub subscribes.
type trackTransport struct {
	mu       sync.Mutex
	hubPosts int
}

func (t *trackTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet {
		body := `{"items":[{"id":"UCabcdefghijklmnopqrstuv","snippet":{"title":"Streamer"}}]}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
	t.mu.Lock()
	t.hubPosts++
	t.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusAccepted,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func (t *trackTransport) posts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hubPosts
}

func TestTrack_ConcurrentFirstTrackersSubscribeOnce(t *testing.T) {
	transport := &trackTransport{}
	client := &Client{
		apiKey:        "test-key",
		callbackURL:   "https://api.example.com/api/webhooks/youtube",
		webhookSecret: "hub-secret",
		httpClient:    &http.Client{Transport: transport},
	}
	m := NewManager(client, &refcountStore{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(guildID int64) {
			defer wg.Done()
			_, err := m.Track(context.Background(), guildID, "@somechannel")
			assert.NoError(t, err)
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, transport.posts())
}
