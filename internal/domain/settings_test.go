package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings_Valid(t *testing.T) {
	settings := DefaultSettings()
	assert.NoError(t, settings.Validate(TierFree))
}

func TestValidate_MissingSections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GuildSettings)
	}{
		{"leveling", func(s *GuildSettings) { s.Leveling = nil }},
		{"roles", func(s *GuildSettings) { s.Roles = nil }},
		{"ai", func(s *GuildSettings) { s.AI = nil }},
		{"games", func(s *GuildSettings) { s.Games = nil }},
		{"cross_server_portal", func(s *GuildSettings) { s.CrossServerPortal = nil }},
		{"streaming", func(s *GuildSettings) { s.Streaming = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.mutate(settings)
			err := settings.Validate(TierFree)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}

func TestValidate_RoleMode(t *testing.T) {
	settings := DefaultSettings()

	for _, mode := range []string{"progressive", "single", "cumulative"} {
		settings.Roles.Mode = mode
		assert.NoError(t, settings.Validate(TierFree), mode)
	}

	settings.Roles.Mode = "stacked"
	assert.Error(t, settings.Validate(TierFree))
}

func TestValidate_StreamerLimitByTier(t *testing.T) {
	streamers := func(n int) []TrackedStreamer {
		out := make([]TrackedStreamer, n)
		for i := range out {
			out[i] = TrackedStreamer{Platform: PlatformTwitch, Username: "streamer"}
		}
		return out
	}

	settings := DefaultSettings()
	settings.Streaming.Enabled = true

	settings.Streaming.TrackedStreamers = streamers(2)
	assert.NoError(t, settings.Validate(TierFree))

	settings.Streaming.TrackedStreamers = streamers(3)
	assert.Error(t, settings.Validate(TierFree))
	assert.NoError(t, settings.Validate(TierPremium))

	settings.Streaming.TrackedStreamers = streamers(11)
	assert.Error(t, settings.Validate(TierPremium))
	assert.Error(t, settings.Validate(TierPremiumPlus))
}

func TestValidate_StreamerLimitIgnoredWhenDisabled(t *testing.T) {
	settings := DefaultSettings()
	settings.Streaming.Enabled = false
	settings.Streaming.TrackedStreamers = make([]TrackedStreamer, 50)

	assert.NoError(t, settings.Validate(TierFree))
}

func TestValidate_StreamerRequiresUsername(t *testing.T) {
	settings := DefaultSettings()
	settings.Streaming.Enabled = true
	settings.Streaming.TrackedStreamers = []TrackedStreamer{{Platform: PlatformTwitch}}

	assert.Error(t, settings.Validate(TierFree))
}

func TestValidate_SlotsConfig(t *testing.T) {
	on := true
	base := func() *SlotsConfig {
		return &SlotsConfig{Enabled: &on}
	}

	tests := []struct {
		name    string
		mutate  func(*SlotsConfig)
		wantErr bool
	}{
		{"minimal valid", func(sc *SlotsConfig) {}, false},
		{"symbols wrong count", func(sc *SlotsConfig) { sc.Symbols = []string{"🍒"} }, true},
		{"match two too high", func(sc *SlotsConfig) { v := 11; sc.MatchTwoMultiplier = &v }, true},
		{"match three in range", func(sc *SlotsConfig) { v := 50; sc.MatchThreeMultiplier = &v }, false},
		{"max below min", func(sc *SlotsConfig) {
			min, max := 100, 50
			sc.MinBet, sc.MaxBet = &min, &max
		}, true},
		{"empty bet options", func(sc *SlotsConfig) { sc.BetOptions = []int{} }, true},
		{"negative bet option", func(sc *SlotsConfig) { sc.BetOptions = []int{10, -5} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			sc := base()
			tt.mutate(sc)
			settings.Games.Slots = sc

			err := settings.Validate(TierFree)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_PortalSettings(t *testing.T) {
	on := true
	settings := DefaultSettings()
	settings.CrossServerPortal.Enabled = &on

	cost := 50
	settings.CrossServerPortal.PortalCost = &cost
	assert.Error(t, settings.Validate(TierFree))

	cost = 500
	assert.NoError(t, settings.Validate(TierFree))

	settings.CrossServerPortal.DisplayName = string(make([]byte, 51))
	assert.Error(t, settings.Validate(TierFree))
}

func TestFindStreamer_CaseInsensitive(t *testing.T) {
	s := &StreamingSettings{
		TrackedStreamers: []TrackedStreamer{
			{Platform: PlatformTwitch, Username: "Acosmic", Mention: "@everyone"},
			{Platform: PlatformKick, Username: "acosmic"},
		},
	}

	found := s.FindStreamer(PlatformTwitch, "ACOSMIC")
	require.NotNil(t, found)
	assert.Equal(t, "@everyone", found.Mention)

	assert.Nil(t, s.FindStreamer(PlatformYouTube, "acosmic"))
	assert.Nil(t, s.FindStreamer(PlatformTwitch, "someone_else"))
}
