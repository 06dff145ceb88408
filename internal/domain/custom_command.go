package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var commandNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// reservedCommandNames cannot be claimed by guild custom commands.
var reservedCommandNames = map[string]bool{
	"help": true, "info": true, "ping": true, "stats": true,
	"settings": true, "config": true, "setup": true,
	"admin": true, "mod": true, "moderator": true,
}

// CustomCommand is a guild-defined bot command. Response is either plain
// text or an embed document, never both.
type CustomCommand struct {
	ID           int64
	GuildID      int64
	Name         string
	Description  string
	ResponseText string
	ResponseType string // "text" or "embed"
	Embed        *EmbedConfig
	Enabled      bool
	UsageCount   int64
	CreatedBy    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateCommandName checks the name format and reserved-word list.
func ValidateCommandName(name string) error {
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("command name must be 100 characters or less")
	}
	if !commandNamePattern.MatchString(name) {
		return fmt.Errorf("command name can only contain letters, numbers, hyphens, and underscores")
	}
	if reservedCommandNames[strings.ToLower(name)] {
		return fmt.Errorf("command name '%s' is reserved", name)
	}
	return nil
}

// Validate checks the whole command document.
func (c *CustomCommand) Validate() error {
	if err := ValidateCommandName(c.Name); err != nil {
		return err
	}
	switch c.ResponseType {
	case "text":
		if c.ResponseText == "" {
			return fmt.Errorf("text commands must have a response")
		}
	case "embed":
		if err := c.Embed.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("response_type must be 'text' or 'embed'")
	}
	return nil
}
