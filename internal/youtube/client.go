package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	hubEndpoint = "https://pubsubhubbub.appspot.com/subscribe"
	apiBase     = "https://www.googleapis.com/youtube/v3"

	// leaseSeconds is the WebSub lease we request. Subscriptions are
	// renewed by the background loop well before this expires.
	leaseSeconds = 864000 // 10 days
)

// topicURL is the WebSub topic for a channel's video feed.
func topicURL(channelID string) string {
	return "https://www.youtube.com/xml/feeds/videos.xml?channel_id=" + channelID
}

// Channel is a YouTube channel resolved from a handle or channel id.
type Channel struct {
	ID        string
	Title     string
	Thumbnail string
}

// Video is the live-broadcast view of a video from the Data API.
type Video struct {
	ID                string
	ChannelID         string
	ChannelTitle      string
	Title             string
	Thumbnail         string
	ConcurrentViewers int
	ActualStartTime   time.Time
	ActualEndTime     time.Time
	IsLive            bool
}

// Client calls the YouTube Data API and the WebSub hub.
type Client struct {
	apiKey        string
	callbackURL   string
	webhookSecret string
	httpClient    *http.Client
}

func NewClient(apiKey, callbackURL, webhookSecret string) *Client {
	return &Client{
		apiKey:        apiKey,
		callbackURL:   callbackURL,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build youtube request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("youtube request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("youtube %s returned %d: %s", path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode youtube response: %w", err)
	}
	return nil
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// ResolveChannel accepts a channel id (UC...) or an @handle.
func (c *Client) ResolveChannel(ctx context.Context, handleOrID string) (*Channel, error) {
	query := url.Values{"part": {"snippet"}}
	if strings.HasPrefix(handleOrID, "UC") && len(handleOrID) == 24 {
		query.Set("id", handleOrID)
	} else {
		query.Set("forHandle", strings.TrimPrefix(handleOrID, "@"))
	}

	var out channelListResponse
	if err := c.getJSON(ctx, "/channels", query, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("youtube channel %q not found", handleOrID)
	}

	item := out.Items[0]
	return &Channel{
		ID:        item.ID,
		Title:     item.Snippet.Title,
		Thumbnail: item.Snippet.Thumbnails.High.URL,
	}, nil
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			ChannelID            string `json:"channelId"`
			ChannelTitle         string `json:"channelTitle"`
			Title                string `json:"title"`
			LiveBroadcastContent string `json:"liveBroadcastContent"`
			Thumbnails           struct {
				Maxres struct {
					URL string `json:"url"`
				} `json:"maxres"`
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		LiveStreamingDetails struct {
			ActualStartTime   string `json:"actualStartTime"`
			ActualEndTime     string `json:"actualEndTime"`
			ConcurrentViewers string `json:"concurrentViewers"`
		} `json:"liveStreamingDetails"`
	} `json:"items"`
}

// GetVideo fetches a video's snippet and live-streaming details. Returns
// nil when the video does not exist (deleted before we processed it).
func (c *Client) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	var out videoListResponse
	query := url.Values{"part": {"snippet,liveStreamingDetails"}, "id": {videoID}}
	if err := c.getJSON(ctx, "/videos", query, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	item := out.Items[0]
	video := &Video{
		ID:           item.ID,
		ChannelID:    item.Snippet.ChannelID,
		ChannelTitle: item.Snippet.ChannelTitle,
		Title:        item.Snippet.Title,
		Thumbnail:    item.Snippet.Thumbnails.Maxres.URL,
		IsLive:       item.Snippet.LiveBroadcastContent == "live",
	}
	if video.Thumbnail == "" {
		video.Thumbnail = item.Snippet.Thumbnails.High.URL
	}
	if t, err := time.Parse(time.RFC3339, item.LiveStreamingDetails.ActualStartTime); err == nil {
		video.ActualStartTime = t
	}
	if t, err := time.Parse(time.RFC3339, item.LiveStreamingDetails.ActualEndTime); err == nil {
		video.ActualEndTime = t
	}
	if viewers, err := strconv.Atoi(item.LiveStreamingDetails.ConcurrentViewers); err == nil {
		video.ConcurrentViewers = viewers
	}
	return video, nil
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// CheckLive looks for an active live broadcast on the channel. Returns
// nil when the channel is not live.
func (c *Client) CheckLive(ctx context.Context, channelID string) (*Video, error) {
	query := url.Values{
		"part":       {"id"},
		"channelId":  {channelID},
		"eventType":  {"live"},
		"type":       {"video"},
		"maxResults": {"1"},
	}
	var out searchListResponse
	if err := c.getJSON(ctx, "/search", query, &out); err != nil {
		return nil, err
	}
	if len(out.Items) == 0 || out.Items[0].ID.VideoID == "" {
		return nil, nil
	}
	return c.GetVideo(ctx, out.Items[0].ID.VideoID)
}

// Subscribe registers the WebSub callback for the channel's feed. The hub
// verifies asynchronously by calling the webhook with a challenge.
func (c *Client) Subscribe(ctx context.Context, channelID string) error {
	return c.hubRequest(ctx, "subscribe", channelID)
}

// Unsubscribe removes the WebSub subscription.
func (c *Client) Unsubscribe(ctx context.Context, channelID string) error {
	return c.hubRequest(ctx, "unsubscribe", channelID)
}

func (c *Client) hubRequest(ctx context.Context, mode, channelID string) error {
	form := url.Values{}
	form.Set("hub.mode", mode)
	form.Set("hub.topic", topicURL(channelID))
	form.Set("hub.callback", c.callbackURL)
	form.Set("hub.secret", c.webhookSecret)
	form.Set("hub.verify", "async")
	form.Set("hub.lease_seconds", strconv.Itoa(leaseSeconds))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hubEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("websub %s request failed: %w", mode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("websub %s returned %d: %s", mode, resp.StatusCode, body)
	}
	return nil
}
