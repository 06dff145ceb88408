package twitch

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/nicklaw5/helix/v2"
)

// Streamer is a Twitch user resolved from a login name.
type Streamer struct {
	ID           string
	Login        string
	DisplayName  string
	ProfileImage string
}

// Client wraps a Helix client holding an app access token, refreshed
// before expiry.
type Client struct {
	mu            sync.Mutex
	helix         *helix.Client
	tokenExpiry   time.Time
	callbackURL   string
	webhookSecret string
}

func NewClient(clientID, clientSecret, callbackURL, webhookSecret string) (*Client, error) {
	hc, err := helix.NewClient(&helix.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create helix client: %w", err)
	}
	return &Client{helix: hc, callbackURL: callbackURL, webhookSecret: webhookSecret}, nil
}

// ensureToken requests a fresh app access token when the held one is
// missing or within a minute of expiring. Callers must hold mu.
func (c *Client) ensureToken() error {
	if time.Until(c.tokenExpiry) > time.Minute {
		return nil
	}

	resp, err := c.helix.RequestAppAccessToken(nil)
	if err != nil {
		return fmt.Errorf("failed to request app access token: %w", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("app access token request returned %d: %s", resp.StatusCode, resp.ErrorMessage)
	}

	c.helix.SetAppAccessToken(resp.Data.AccessToken)
	c.tokenExpiry = time.Now().Add(time.Duration(resp.Data.ExpiresIn) * time.Second)
	return nil
}

// ResolveStreamer looks a login name up, returning the canonical user.
func (c *Client) ResolveStreamer(login string) (*Streamer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureToken(); err != nil {
		return nil, err
	}

	resp, err := c.helix.GetUsers(&helix.UsersParams{Logins: []string{login}})
	if err != nil {
		return nil, fmt.Errorf("failed to look up twitch user: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("twitch user lookup returned %d: %s", resp.StatusCode, resp.ErrorMessage)
	}
	if len(resp.Data.Users) == 0 {
		return nil, fmt.Errorf("twitch user %q not found", login)
	}

	u := resp.Data.Users[0]
	return &Streamer{
		ID:           u.ID,
		Login:        u.Login,
		DisplayName:  u.DisplayName,
		ProfileImage: u.ProfileImageURL,
	}, nil
}

// GetStream fetches live-stream metadata, or nil when offline.
func (c *Client) GetStream(broadcasterID string) (*domain.StreamInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureToken(); err != nil {
		return nil, err
	}

	resp, err := c.helix.GetStreams(&helix.StreamsParams{UserIDs: []string{broadcasterID}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stream: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("stream lookup returned %d: %s", resp.StatusCode, resp.ErrorMessage)
	}
	if len(resp.Data.Streams) == 0 {
		return nil, nil
	}

	s := resp.Data.Streams[0]
	thumbnail := strings.NewReplacer("{width}", "1280", "{height}", "720").Replace(s.ThumbnailURL)
	return &domain.StreamInfo{
		StreamID:     s.ID,
		Title:        s.Title,
		GameName:     s.GameName,
		ViewerCount:  s.ViewerCount,
		ThumbnailURL: thumbnail,
		StartedAt:    s.StartedAt,
		URL:          "https://twitch.tv/" + s.UserLogin,
	}, nil
}

// CreateSubscription registers a webhook EventSub subscription of the
// given type for the broadcaster.
func (c *Client) CreateSubscription(subscriptionType, broadcasterID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureToken(); err != nil {
		return "", err
	}

	resp, err := c.helix.CreateEventSubSubscription(&helix.EventSubSubscription{
		Type:    subscriptionType,
		Version: "1",
		Condition: helix.EventSubCondition{
			BroadcasterUserID: broadcasterID,
		},
		Transport: helix.EventSubTransport{
			Method:   "webhook",
			Callback: c.callbackURL,
			Secret:   c.webhookSecret,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create eventsub subscription: %w", err)
	}
	if resp.StatusCode != 202 {
		return "", fmt.Errorf("eventsub create returned %d: %s", resp.StatusCode, resp.ErrorMessage)
	}
	if len(resp.Data.EventSubSubscriptions) == 0 {
		return "", fmt.Errorf("eventsub create returned no subscription")
	}
	return resp.Data.EventSubSubscriptions[0].ID, nil
}

// DeleteSubscription removes an EventSub subscription. A 404 from Twitch
// is treated as success: the subscription is already gone.
func (c *Client) DeleteSubscription(subscriptionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureToken(); err != nil {
		return err
	}

	resp, err := c.helix.RemoveEventSubSubscription(subscriptionID)
	if err != nil {
		return fmt.Errorf("failed to delete eventsub subscription: %w", err)
	}
	if resp.StatusCode != 204 && resp.StatusCode != 404 {
		return fmt.Errorf("eventsub delete returned %d: %s", resp.StatusCode, resp.ErrorMessage)
	}
	return nil
}
