package domain

import "time"

// Subscription tiers a guild can hold.
const (
	TierFree        = "free"
	TierPremium     = "premium"
	TierPremiumPlus = "premium_plus_ai"
)

// Guild is a Discord server row with its settings blob and billing columns.
type Guild struct {
	ID                 int64
	Name               string
	OwnerID            int64
	MemberCount        int
	Settings           *GuildSettings
	SubscriptionTier   string
	SubscriptionStatus string
	CreatedAt          time.Time
	LastActive         *time.Time
}

// Tier returns the guild's subscription tier, defaulting to free.
func (g *Guild) Tier() string {
	if g.SubscriptionTier == "" {
		return TierFree
	}
	return g.SubscriptionTier
}

// MaxTrackedStreamers returns the streamer limit for the guild's tier.
func MaxTrackedStreamers(tier string) int {
	switch tier {
	case TierPremium, TierPremiumPlus:
		return 10
	default:
		return 2
	}
}

// MaxCustomCommands returns the custom command limit for the guild's tier.
func MaxCustomCommands(tier string) int {
	switch tier {
	case TierPremium, TierPremiumPlus:
		return 25
	default:
		return 1
	}
}

// GuildStats aggregates per-guild activity numbers for the dashboard.
type GuildStats struct {
	GuildID             int64      `json:"guild_id,string"`
	GuildName           string     `json:"guild_name"`
	MemberCount         int        `json:"member_count"`
	TotalActiveMembers  int        `json:"total_active_members"`
	TotalMessages       int64      `json:"total_messages"`
	TotalExpDistributed int64      `json:"total_exp_distributed"`
	HighestLevel        int        `json:"highest_level"`
	AvgLevel            float64    `json:"avg_level"`
	LastActivity        *time.Time `json:"last_activity"`
}
