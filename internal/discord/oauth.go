package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	tokenEndpoint     = "https://discord.com/api/oauth2/token"
	authorizeEndpoint = "https://discord.com/api/oauth2/authorize"
)

// OAuthClient drives the authorization-code flow for dashboard logins.
type OAuthClient struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

func NewOAuthClient(clientID, clientSecret, redirectURI string) *OAuthClient {
	return &OAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeURL builds the Discord consent page URL for the given state.
func (o *OAuthClient) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", o.clientID)
	q.Set("redirect_uri", o.redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "identify guilds")
	q.Set("state", state)
	return authorizeEndpoint + "?" + q.Encode()
}

// ExchangeCode trades the authorization code for a user access token.
func (o *OAuthClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", o.redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	observe("oauth_token", err)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, body)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token exchange returned empty access token")
	}
	return token.AccessToken, nil
}

// Identity is the logged-in Discord user as reported by /users/@me.
type Identity struct {
	ID         int64
	Username   string
	GlobalName string
	AvatarURL  string
}

// FetchIdentity reads the user behind the access token.
func (o *OAuthClient) FetchIdentity(accessToken string) (*Identity, error) {
	session, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bearer session: %w", err)
	}

	user, err := session.User("@me")
	observe("oauth_identity", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user identity: %w", err)
	}

	id, err := parseSnowflake(user.ID)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:         id,
		Username:   user.Username,
		GlobalName: user.GlobalName,
		AvatarURL:  user.AvatarURL(""),
	}, nil
}

// UserGuild is a guild the logged-in user can manage.
type UserGuild struct {
	ID      int64  `json:"id,string"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
	Owner   bool   `json:"owner"`
}

// FetchManageableGuilds lists the user's guilds, filtered to those where
// the user holds ADMINISTRATOR or MANAGE_GUILD.
func (o *OAuthClient) FetchManageableGuilds(accessToken string) ([]UserGuild, error) {
	session, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bearer session: %w", err)
	}

	guilds, err := session.UserGuilds(200, "", "", false)
	observe("oauth_guilds", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user guilds: %w", err)
	}

	var manageable []UserGuild
	for _, g := range guilds {
		if !g.Owner && g.Permissions&dashboardPermissions == 0 {
			continue
		}
		id, err := parseSnowflake(g.ID)
		if err != nil {
			continue
		}
		manageable = append(manageable, UserGuild{
			ID:      id,
			Name:    g.Name,
			IconURL: guildIconURL(g.ID, g.Icon),
			Owner:   g.Owner,
		})
	}
	return manageable, nil
}

func guildIconURL(guildID, iconHash string) string {
	if iconHash == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/icons/%s/%s.png", guildID, iconHash)
}
