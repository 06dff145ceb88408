package domain

import (
	"fmt"
	"time"
)

// User is a Discord user known to the bot, keyed by Discord snowflake ID.
type User struct {
	ID             int64
	Username       string
	GlobalName     string
	AvatarURL      string
	GlobalLevel    int
	GlobalExp      int64
	TotalCurrency  int64
	TotalMessages  int64
	TotalReactions int64
	AccountCreated *time.Time
	FirstSeen      *time.Time
	LastSeen       *time.Time
}

// Avatar returns the stored avatar URL, falling back to one of Discord's
// five default embed avatars derived from the user ID.
func (u *User) Avatar() string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	return fmt.Sprintf("https://cdn.discordapp.com/embed/avatars/%d.png", u.ID%5)
}

// GuildUser is a user's per-guild membership row with activity stats.
type GuildUser struct {
	GuildID      int64
	UserID       int64
	Nickname     string
	Level        int
	Exp          int64
	Currency     int64
	MessagesSent int64
	IsActive     bool
	JoinedAt     *time.Time
	LastActive   *time.Time
}

// LeaderboardEntry is a single row of a ranked listing.
type LeaderboardEntry struct {
	Rank     int   `json:"rank"`
	UserID   int64 `json:"user_id,string"`
	Username string `json:"username"`
	Value    int64 `json:"value"`
}

// GuildMembership is a user's membership summary across guilds the bot
// shares with them.
type GuildMembership struct {
	GuildID      int64  `json:"guild_id,string"`
	GuildName    string `json:"guild_name"`
	Level        int    `json:"level"`
	Exp          int64  `json:"exp"`
	Currency     int64  `json:"currency"`
	MessagesSent int64  `json:"messages_sent"`
}

// PortalListing is a guild advertising its cross-server portal.
type PortalListing struct {
	GuildID     int64  `json:"guild_id,string"`
	GuildName   string `json:"guild_name"`
	DisplayName string `json:"display_name"`
	PortalCost  int    `json:"portal_cost"`
	MemberCount int    `json:"member_count"`
}
