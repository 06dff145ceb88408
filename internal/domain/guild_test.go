package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuild_Tier(t *testing.T) {
	assert.Equal(t, TierFree, (&Guild{}).Tier())
	assert.Equal(t, TierPremium, (&Guild{SubscriptionTier: TierPremium}).Tier())
}

func TestTierLimits(t *testing.T) {
	assert.Equal(t, 2, MaxTrackedStreamers(TierFree))
	assert.Equal(t, 10, MaxTrackedStreamers(TierPremium))
	assert.Equal(t, 10, MaxTrackedStreamers(TierPremiumPlus))
	assert.Equal(t, 2, MaxTrackedStreamers("unknown"))

	assert.Equal(t, 1, MaxCustomCommands(TierFree))
	assert.Equal(t, 25, MaxCustomCommands(TierPremium))
	assert.Equal(t, 25, MaxCustomCommands(TierPremiumPlus))
}

func TestUser_Avatar(t *testing.T) {
	u := &User{ID: 123, AvatarURL: "https://cdn.discordapp.com/avatars/123/abc.png"}
	assert.Equal(t, u.AvatarURL, u.Avatar())

	u = &User{ID: 7}
	assert.Equal(t, "https://cdn.discordapp.com/embed/avatars/2.png", u.Avatar())
}

func TestSubscription_IsActive(t *testing.T) {
	assert.True(t, (&Subscription{Status: SubscriptionStatusActive}).IsActive())
	assert.False(t, (&Subscription{Status: SubscriptionStatusPastDue}).IsActive())
	assert.False(t, (&Subscription{Status: SubscriptionStatusCanceled}).IsActive())
}

func TestAnnouncement_Duration(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := &Announcement{StreamStartedAt: start}
	assert.Equal(t, 90*time.Minute, a.Duration(start.Add(90*time.Minute)))
}

func TestAdminUser_IsSuperAdmin(t *testing.T) {
	assert.True(t, (&AdminUser{Role: AdminRoleSuperAdmin}).IsSuperAdmin())
	assert.False(t, (&AdminUser{Role: AdminRoleAdmin}).IsSuperAdmin())
}

func TestStreamSubscription_GuildCount(t *testing.T) {
	assert.Equal(t, 0, (&StreamSubscription{}).GuildCount())
	assert.Equal(t, 3, (&StreamSubscription{GuildIDs: []int64{1, 2, 3}}).GuildCount())
}
