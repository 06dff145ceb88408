package domain

import (
	"fmt"
	"strings"
)

// GuildSettings is the settings JSON blob stored on the Guilds row.
// Pointer fields distinguish "absent" from zero values during validation.
type GuildSettings struct {
	Leveling          *LevelingSettings  `json:"leveling"`
	Roles             *RoleSettings      `json:"roles"`
	AI                *AISettings        `json:"ai"`
	Games             *GameSettings      `json:"games"`
	CrossServerPortal *PortalSettings    `json:"cross_server_portal"`
	Streaming         *StreamingSettings `json:"streaming"`
}

type LevelingSettings struct {
	Enabled                   *bool  `json:"enabled"`
	ExpPerMessage             int    `json:"exp_per_message,omitempty"`
	ExpCooldownSeconds        int    `json:"exp_cooldown_seconds,omitempty"`
	LevelUpAnnouncements      *bool  `json:"level_up_announcements"`
	DailyAnnouncementsEnabled *bool  `json:"daily_announcements_enabled"`
	AnnouncementChannelID     string `json:"announcement_channel_id,omitempty"`
}

type RoleSettings struct {
	Mode         string              `json:"mode"`
	RoleMappings map[string][]string `json:"role_mappings,omitempty"`
}

type AISettings struct {
	Enabled      *bool  `json:"enabled"`
	Instructions string `json:"instructions,omitempty"`
	Model        string `json:"model,omitempty"`
	DailyLimit   int    `json:"daily_limit,omitempty"`
}

type GameSettings struct {
	Slots *SlotsConfig `json:"slots-config,omitempty"`
}

type SlotsConfig struct {
	Enabled              *bool    `json:"enabled"`
	Symbols              []string `json:"symbols,omitempty"`
	MatchTwoMultiplier   *int     `json:"match_two_multiplier,omitempty"`
	MatchThreeMultiplier *int     `json:"match_three_multiplier,omitempty"`
	MinBet               *int     `json:"min_bet,omitempty"`
	MaxBet               *int     `json:"max_bet,omitempty"`
	BetOptions           []int    `json:"bet_options,omitempty"`
}

type PortalSettings struct {
	Enabled     *bool  `json:"enabled"`
	PortalCost  *int   `json:"portal_cost,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type StreamingSettings struct {
	Enabled               bool                 `json:"enabled"`
	AnnouncementChannelID string               `json:"announcement_channel_id,omitempty"`
	TrackedStreamers      []TrackedStreamer    `json:"tracked_streamers,omitempty"`
	Announcement          AnnouncementSettings `json:"announcement_settings,omitempty"`
}

type TrackedStreamer struct {
	Platform       string   `json:"platform"`
	Username       string   `json:"username"`
	Mention        string   `json:"mention,omitempty"`
	MentionRoleIDs []string `json:"mention_role_ids,omitempty"`
	CustomMessage  string   `json:"custom_message,omitempty"`
}

type AnnouncementSettings struct {
	IncludeThumbnail   *bool  `json:"include_thumbnail,omitempty"`
	IncludeGame        *bool  `json:"include_game,omitempty"`
	IncludeViewerCount *bool  `json:"include_viewer_count,omitempty"`
	IncludeStartTime   *bool  `json:"include_start_time,omitempty"`
	TwitchColor        string `json:"twitch_color,omitempty"`
	KickColor          string `json:"kick_color,omitempty"`
	YouTubeColor       string `json:"youtube_color,omitempty"`
}

var validRoleModes = map[string]bool{
	"progressive": true,
	"single":      true,
	"cumulative":  true,
}

// Validate checks a full settings document as submitted by the dashboard.
// tier determines limits such as the tracked-streamer cap.
func (s *GuildSettings) Validate(tier string) error {
	if s.Leveling == nil {
		return fmt.Errorf("missing required settings section: leveling")
	}
	if s.Roles == nil {
		return fmt.Errorf("missing required settings section: roles")
	}
	if s.AI == nil {
		return fmt.Errorf("missing required settings section: ai")
	}
	if s.Games == nil {
		return fmt.Errorf("missing required settings section: games")
	}
	if s.CrossServerPortal == nil {
		return fmt.Errorf("missing required settings section: cross_server_portal")
	}
	if s.Streaming == nil {
		return fmt.Errorf("missing required settings section: streaming")
	}

	if s.Leveling.Enabled == nil {
		return fmt.Errorf("missing required leveling field: enabled")
	}
	if s.Leveling.LevelUpAnnouncements == nil {
		return fmt.Errorf("missing required leveling field: level_up_announcements")
	}
	if s.Leveling.DailyAnnouncementsEnabled == nil {
		return fmt.Errorf("missing required leveling field: daily_announcements_enabled")
	}

	if !validRoleModes[s.Roles.Mode] {
		return fmt.Errorf("roles.mode must be one of: progressive, single, cumulative")
	}

	if s.Streaming.Enabled {
		limit := MaxTrackedStreamers(tier)
		if len(s.Streaming.TrackedStreamers) > limit {
			return fmt.Errorf("maximum %d streamers allowed (upgrade to premium for more)", limit)
		}
		for _, streamer := range s.Streaming.TrackedStreamers {
			if streamer.Username == "" {
				return fmt.Errorf("each streamer must have a username")
			}
		}
	}

	if s.Games.Slots != nil {
		if err := s.Games.Slots.validate(); err != nil {
			return err
		}
	}

	return s.CrossServerPortal.validate()
}

func (sc *SlotsConfig) validate() error {
	if sc.Enabled == nil {
		return fmt.Errorf("missing required games.slots-config field: enabled")
	}
	if sc.Symbols != nil && len(sc.Symbols) != 12 {
		return fmt.Errorf("games.slots-config.symbols must contain exactly 12 emojis")
	}
	if sc.MatchTwoMultiplier != nil {
		if *sc.MatchTwoMultiplier < 1 || *sc.MatchTwoMultiplier > 10 {
			return fmt.Errorf("games.slots-config.match_two_multiplier must be between 1 and 10")
		}
	}
	if sc.MatchThreeMultiplier != nil {
		if *sc.MatchThreeMultiplier < 1 || *sc.MatchThreeMultiplier > 100 {
			return fmt.Errorf("games.slots-config.match_three_multiplier must be between 1 and 100")
		}
	}
	minBet := 1
	if sc.MinBet != nil {
		if *sc.MinBet < 1 || *sc.MinBet > 10000 {
			return fmt.Errorf("games.slots-config.min_bet must be between 1 and 10000")
		}
		minBet = *sc.MinBet
	}
	if sc.MaxBet != nil {
		if *sc.MaxBet < minBet || *sc.MaxBet > 1000000 {
			return fmt.Errorf("games.slots-config.max_bet must be between min_bet and 1000000")
		}
	}
	if sc.BetOptions != nil {
		if len(sc.BetOptions) == 0 {
			return fmt.Errorf("games.slots-config.bet_options cannot be empty")
		}
		for _, opt := range sc.BetOptions {
			if opt < 1 {
				return fmt.Errorf("all bet_options must be positive integers")
			}
		}
	}
	return nil
}

func (p *PortalSettings) validate() error {
	if p.Enabled == nil {
		return fmt.Errorf("missing required cross_server_portal field: enabled")
	}
	if !*p.Enabled {
		return nil
	}
	if p.PortalCost != nil {
		if *p.PortalCost < 100 || *p.PortalCost > 100000 {
			return fmt.Errorf("cross_server_portal.portal_cost must be between 100 and 100000")
		}
	}
	if len(p.DisplayName) > 50 {
		return fmt.Errorf("cross_server_portal.display_name must be 50 characters or less")
	}
	return nil
}

// DefaultSettings returns the settings document applied to guilds with no
// stored configuration.
func DefaultSettings() *GuildSettings {
	on := true
	off := false
	return &GuildSettings{
		Leveling: &LevelingSettings{
			Enabled:                   &on,
			ExpPerMessage:             10,
			ExpCooldownSeconds:        60,
			LevelUpAnnouncements:      &on,
			DailyAnnouncementsEnabled: &off,
		},
		Roles: &RoleSettings{Mode: "progressive"},
		AI:    &AISettings{Enabled: &off, DailyLimit: 10},
		Games: &GameSettings{
			Slots: &SlotsConfig{
				Enabled: &on,
				Symbols: []string{"🍒", "🍋", "🍊", "🍇", "🍎", "🍌", "⭐", "🔔", "💎", "🎰", "🍀", "❤️"},
			},
		},
		CrossServerPortal: &PortalSettings{Enabled: &off},
		Streaming:         &StreamingSettings{Enabled: false},
	}
}

// FindStreamer returns the tracked-streamer config for a platform/username
// pair, matching the username case-insensitively.
func (s *StreamingSettings) FindStreamer(platform, username string) *TrackedStreamer {
	for i := range s.TrackedStreamers {
		t := &s.TrackedStreamers[i]
		if t.Platform == platform && strings.EqualFold(t.Username, username) {
			return t
		}
	}
	return nil
}
