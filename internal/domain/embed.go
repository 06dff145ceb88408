package domain

import (
	"fmt"
	"regexp"
	"time"
)

var hexColorPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// EmbedConfig is the dashboard's embed document, stored as JSON and
// converted to a Discord embed when sent.
type EmbedConfig struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       string       `json:"color,omitempty"`
	AuthorName  string       `json:"author_name,omitempty"`
	AuthorIcon  string       `json:"author_icon,omitempty"`
	AuthorURL   string       `json:"author_url,omitempty"`
	Thumbnail   string       `json:"thumbnail,omitempty"`
	Image       string       `json:"image,omitempty"`
	Footer      string       `json:"footer,omitempty"`
	FooterIcon  string       `json:"footer_icon,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Validate checks the embed document as submitted by the dashboard.
func (e *EmbedConfig) Validate() error {
	if e == nil {
		return fmt.Errorf("embed configuration cannot be empty")
	}
	if e.Title == "" && e.Description == "" {
		return fmt.Errorf("embed must have at least a title or description")
	}
	if e.Color != "" && !hexColorPattern.MatchString(e.Color) {
		return fmt.Errorf("color must be a valid hex code (e.g., #5865F2)")
	}
	for i, field := range e.Fields {
		if field.Name == "" || field.Value == "" {
			return fmt.Errorf("field %d must have 'name' and 'value'", i+1)
		}
	}
	return nil
}

// Embed statuses for the draft/sent workflow.
const (
	EmbedStatusDraft = "draft"
	EmbedStatusSent  = "sent"
)

// Embed is a stored dashboard embed with its send state.
type Embed struct {
	ID        int64
	GuildID   int64
	Name      string
	ChannelID int64
	Config    *EmbedConfig
	Status    string
	MessageID int64
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
	SentAt    *time.Time
}
