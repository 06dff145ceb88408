package youtube

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiTransport serves canned Data API responses keyed by request path.
type apiTransport struct {
	responses map[string]string
}

func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, ok := t.responses[req.URL.Path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(`{"items":[]}`)),
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func apiClient(responses map[string]string) *Client {
	return &Client{
		apiKey:     "test-key",
		httpClient: &http.Client{Transport: &apiTransport{responses: responses}},
	}
}

func TestCheckLive_Live(t *testing.T) {
	client := apiClient(map[string]string{
		"/youtube/v3/search": `{"items":[{"id":{"videoId":"vid123"}}]}`,
		"/youtube/v3/videos": `{"items":[{
			"id":"vid123",
			"snippet":{
				"channelId":"UC1",
				"channelTitle":"Streamer",
				"title":"Live Now",
				"liveBroadcastContent":"live",
				"thumbnails":{"high":{"url":"https://i.ytimg.com/hi.jpg"}}
			},
			"liveStreamingDetails":{
				"actualStartTime":"2025-06-01T20:00:00Z",
				"concurrentViewers":"42"
			}
		}]}`,
	})

	video, err := client.CheckLive(context.Background(), "UC1")
	require.NoError(t, err)
	require.NotNil(t, video)
	assert.True(t, video.IsLive)
	assert.Equal(t, "vid123", video.ID)
	assert.Equal(t, "Live Now", video.Title)
	assert.Equal(t, "https://i.ytimg.com/hi.jpg", video.Thumbnail)
	assert.Equal(t, 42, video.ConcurrentViewers)
}

func TestCheckLive_NotLive(t *testing.T) {
	client := apiClient(map[string]string{
		"/youtube/v3/search": `{"items":[]}`,
	})

	video, err := client.CheckLive(context.Background(), "UC1")
	require.NoError(t, err)
	assert.Nil(t, video)
}

func TestGetVideo_Missing(t *testing.T) {
	client := apiClient(map[string]string{
		"/youtube/v3/videos": `{"items":[]}`,
	})

	video, err := client.GetVideo(context.Background(), "gone")
	require.NoError(t, err)
	assert.Nil(t, video)
}
