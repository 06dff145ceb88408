package kick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
)

const (
	tokenEndpoint = "https://id.kick.com/oauth/token"
	apiBase       = "https://api.kick.com/public/v1"

	// EventLivestreamStatusUpdated covers both stream start and stop.
	EventLivestreamStatusUpdated = "livestream.status.updated"
)

// Channel is a Kick channel resolved from a slug.
type Channel struct {
	BroadcasterID string
	Slug          string
	ProfileImage  string
}

// Client is an app-token Kick API client.
type Client struct {
	mu           sync.Mutex
	clientID     string
	clientSecret string
	callbackURL  string
	httpClient   *http.Client
	token        string
	tokenExpiry  time.Time
}

func NewClient(clientID, clientSecret, callbackURL string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		callbackURL:  callbackURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ensureToken refreshes the client-credentials token when it is missing
// or within a minute of expiring. Callers must hold mu.
func (c *Client) ensureToken(ctx context.Context) error {
	if time.Until(c.tokenExpiry) > time.Minute {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build kick token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kick token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("kick token request returned %d: %s", resp.StatusCode, body)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("failed to decode kick token response: %w", err)
	}

	c.token = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal kick request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build kick request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kick request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("kick %s %s returned %d: %s", method, path, resp.StatusCode, data)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode kick response: %w", err)
		}
	}
	return nil
}

type channelResponse struct {
	Data []struct {
		BroadcasterUserID int64  `json:"broadcaster_user_id"`
		Slug              string `json:"slug"`
		StreamTitle       string `json:"stream_title"`
		BannerPicture     string `json:"banner_picture"`
		Category          struct {
			Name string `json:"name"`
		} `json:"category"`
		Stream struct {
			IsLive      bool   `json:"is_live"`
			ViewerCount int    `json:"viewer_count"`
			StartTime   string `json:"start_time"`
			Thumbnail   string `json:"thumbnail"`
		} `json:"stream"`
	} `json:"data"`
}

// ResolveChannel looks a channel slug up.
func (c *Client) ResolveChannel(ctx context.Context, slug string) (*Channel, error) {
	var out channelResponse
	if err := c.doJSON(ctx, http.MethodGet, "/channels?slug="+url.QueryEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("kick channel %q not found", slug)
	}

	ch := out.Data[0]
	return &Channel{
		BroadcasterID: strconv.FormatInt(ch.BroadcasterUserID, 10),
		Slug:          ch.Slug,
		ProfileImage:  ch.BannerPicture,
	}, nil
}

// GetStream fetches live-stream metadata for the channel, or nil when
// the channel is offline.
func (c *Client) GetStream(ctx context.Context, slug string) (*domain.StreamInfo, error) {
	var out channelResponse
	if err := c.doJSON(ctx, http.MethodGet, "/channels?slug="+url.QueryEscape(slug), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("kick channel %q not found", slug)
	}

	ch := out.Data[0]
	if !ch.Stream.IsLive {
		return nil, nil
	}

	startedAt, _ := time.Parse(time.RFC3339, ch.Stream.StartTime)
	return &domain.StreamInfo{
		Title:        ch.StreamTitle,
		GameName:     ch.Category.Name,
		ViewerCount:  ch.Stream.ViewerCount,
		ThumbnailURL: ch.Stream.Thumbnail,
		StartedAt:    startedAt,
		URL:          "https://kick.com/" + ch.Slug,
	}, nil
}

type subscribeRequest struct {
	BroadcasterUserID int64  `json:"broadcaster_user_id"`
	Method            string `json:"method"`
	Events            []struct {
		Name    string `json:"name"`
		Version int    `json:"version"`
	} `json:"events"`
}

type subscribeResponse struct {
	Data []struct {
		SubscriptionID string `json:"subscription_id"`
		Name           string `json:"name"`
		Error          string `json:"error"`
	} `json:"data"`
}

// CreateSubscription subscribes to livestream status updates for the
// broadcaster.
func (c *Client) CreateSubscription(ctx context.Context, broadcasterID string) (string, error) {
	id, err := strconv.ParseInt(broadcasterID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid kick broadcaster id %q: %w", broadcasterID, err)
	}

	req := subscribeRequest{BroadcasterUserID: id, Method: "webhook"}
	req.Events = append(req.Events, struct {
		Name    string `json:"name"`
		Version int    `json:"version"`
	}{Name: EventLivestreamStatusUpdated, Version: 1})

	var out subscribeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/events/subscriptions", req, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("kick subscription create returned no data")
	}
	if out.Data[0].Error != "" {
		return "", fmt.Errorf("kick subscription create failed: %s", out.Data[0].Error)
	}
	return out.Data[0].SubscriptionID, nil
}

// DeleteSubscription removes the event subscription.
func (c *Client) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/events/subscriptions?id="+url.QueryEscape(subscriptionID), nil, nil)
}
