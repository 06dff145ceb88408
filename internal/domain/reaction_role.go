package domain

import (
	"fmt"
	"time"
)

// Reaction role interaction styles.
const (
	ReactionStyleEmoji    = "emoji"
	ReactionStyleButton   = "button"
	ReactionStyleDropdown = "dropdown"
)

// ReactionRole is a role-assignment message configuration with its
// draft/sent workflow state.
type ReactionRole struct {
	ID        int64
	GuildID   int64
	Name      string
	ChannelID int64
	Style     string
	Embed     *EmbedConfig
	Mappings  []RoleMapping
	Exclusive bool // only one role from the set at a time
	Status    string
	MessageID int64
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
	SentAt    *time.Time
}

// RoleMapping binds an emoji (or button/dropdown entry) to a role.
type RoleMapping struct {
	Emoji       string `json:"emoji"`
	RoleID      string `json:"role_id"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate checks the reaction role document as submitted by the dashboard.
func (r *ReactionRole) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("reaction role name cannot be empty")
	}
	switch r.Style {
	case ReactionStyleEmoji, ReactionStyleButton, ReactionStyleDropdown:
	default:
		return fmt.Errorf("style must be one of: emoji, button, dropdown")
	}
	if len(r.Mappings) == 0 {
		return fmt.Errorf("at least one role mapping is required")
	}
	if len(r.Mappings) > 20 {
		return fmt.Errorf("maximum 20 role mappings allowed")
	}
	seen := make(map[string]bool, len(r.Mappings))
	for i, m := range r.Mappings {
		if m.RoleID == "" {
			return fmt.Errorf("mapping %d must have a role_id", i+1)
		}
		if r.Style == ReactionStyleEmoji && m.Emoji == "" {
			return fmt.Errorf("mapping %d must have an emoji", i+1)
		}
		if m.Emoji != "" && seen[m.Emoji] {
			return fmt.Errorf("duplicate emoji in mapping %d", i+1)
		}
		seen[m.Emoji] = true
	}
	return r.Embed.Validate()
}
