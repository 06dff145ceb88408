package discord

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/acosmic/acosmibot-api/internal/metrics"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/singleflight"
)

// dashboardPermissions are the permission bits that grant dashboard
// access: ADMINISTRATOR or MANAGE_GUILD.
const dashboardPermissions = discordgo.PermissionAdministrator | discordgo.PermissionManageServer

// Client is a bot-token Discord REST client. Concurrent lookups for the
// same guild are collapsed into one upstream call, which matters when a
// dashboard page fans out into several requests at once.
type Client struct {
	session *discordgo.Session
	lookups singleflight.Group
}

// NewClient creates a REST-only client. No gateway connection is opened;
// the API never needs one.
func NewClient(botToken string) (*Client, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &Client{session: session}, nil
}

func observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.DiscordAPICallsTotal.WithLabelValues(operation, status).Inc()
}

// Guild fetches guild metadata including the approximate member count.
func (c *Client) Guild(guildID int64) (*discordgo.Guild, error) {
	v, err, _ := c.lookups.Do("guild:"+strconv.FormatInt(guildID, 10), func() (any, error) {
		guild, err := c.session.GuildWithCounts(strconv.FormatInt(guildID, 10))
		observe("guild", err)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild %d: %w", guildID, err)
		}
		return guild, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*discordgo.Guild), nil
}

// Member fetches a guild member, including their role ids.
func (c *Client) Member(guildID, userID int64) (*discordgo.Member, error) {
	member, err := c.session.GuildMember(strconv.FormatInt(guildID, 10), strconv.FormatInt(userID, 10))
	observe("guild_member", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member %d in guild %d: %w", userID, guildID, err)
	}
	return member, nil
}

// Roles returns the guild's roles sorted by position descending, matching
// how Discord's own UI lists them.
func (c *Client) Roles(guildID int64) ([]*discordgo.Role, error) {
	v, err, _ := c.lookups.Do("roles:"+strconv.FormatInt(guildID, 10), func() (any, error) {
		roles, err := c.session.GuildRoles(strconv.FormatInt(guildID, 10))
		observe("guild_roles", err)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch roles for guild %d: %w", guildID, err)
		}
		sort.Slice(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })
		return roles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*discordgo.Role), nil
}

// TextChannels returns the guild's text and announcement channels.
func (c *Client) TextChannels(guildID int64) ([]*discordgo.Channel, error) {
	v, err, _ := c.lookups.Do("channels:"+strconv.FormatInt(guildID, 10), func() (any, error) {
		channels, err := c.session.GuildChannels(strconv.FormatInt(guildID, 10))
		observe("guild_channels", err)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch channels for guild %d: %w", guildID, err)
		}

		var text []*discordgo.Channel
		for _, ch := range channels {
			if ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews {
				text = append(text, ch)
			}
		}
		sort.Slice(text, func(i, j int) bool { return text[i].Position < text[j].Position })
		return text, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*discordgo.Channel), nil
}

// Emojis returns the guild's custom emojis.
func (c *Client) Emojis(guildID int64) ([]*discordgo.Emoji, error) {
	v, err, _ := c.lookups.Do("emojis:"+strconv.FormatInt(guildID, 10), func() (any, error) {
		emojis, err := c.session.GuildEmojis(strconv.FormatInt(guildID, 10))
		observe("guild_emojis", err)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch emojis for guild %d: %w", guildID, err)
		}
		return emojis, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*discordgo.Emoji), nil
}

// HasDashboardAccess reports whether the user may manage the guild from
// the dashboard: guild owner, or any role carrying ADMINISTRATOR or
// MANAGE_GUILD.
func (c *Client) HasDashboardAccess(guildID, userID int64) (bool, error) {
	guild, err := c.Guild(guildID)
	if err != nil {
		return false, err
	}
	if guild.OwnerID == strconv.FormatInt(userID, 10) {
		return true, nil
	}

	member, err := c.Member(guildID, userID)
	if err != nil {
		return false, err
	}
	roles, err := c.Roles(guildID)
	if err != nil {
		return false, err
	}

	byID := make(map[string]*discordgo.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}

	var permissions int64
	for _, roleID := range member.Roles {
		if role, ok := byID[roleID]; ok {
			permissions |= role.Permissions
		}
	}
	return permissions&dashboardPermissions != 0, nil
}

// SendMessage posts a message to a channel. User and role mentions in the
// content ping normally; @everyone and @here never do.
func (c *Client) SendMessage(channelID int64, content string, embed *discordgo.MessageEmbed) (int64, error) {
	send := &discordgo.MessageSend{
		Content: content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers, discordgo.AllowedMentionTypeRoles},
		},
	}
	if embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{embed}
	}

	msg, err := c.session.ChannelMessageSendComplex(strconv.FormatInt(channelID, 10), send)
	observe("send_message", err)
	if err != nil {
		return 0, fmt.Errorf("failed to send message to channel %d: %w", channelID, err)
	}
	return parseSnowflake(msg.ID)
}

// EditMessage replaces a previously posted message's content and embed.
func (c *Client) EditMessage(channelID, messageID int64, content string, embed *discordgo.MessageEmbed) error {
	edit := discordgo.NewMessageEdit(strconv.FormatInt(channelID, 10), strconv.FormatInt(messageID, 10))
	edit.SetContent(content)
	if embed != nil {
		edit.SetEmbeds([]*discordgo.MessageEmbed{embed})
	}

	_, err := c.session.ChannelMessageEditComplex(edit)
	observe("edit_message", err)
	if err != nil {
		return fmt.Errorf("failed to edit message %d in channel %d: %w", messageID, channelID, err)
	}
	return nil
}

// AddReaction seeds an emoji reaction on a message, used when publishing
// emoji-style reaction role messages.
func (c *Client) AddReaction(channelID, messageID int64, emoji string) error {
	err := c.session.MessageReactionAdd(
		strconv.FormatInt(channelID, 10), strconv.FormatInt(messageID, 10), emoji)
	observe("add_reaction", err)
	if err != nil {
		return fmt.Errorf("failed to add reaction to message %d: %w", messageID, err)
	}
	return nil
}

func parseSnowflake(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	return n, nil
}
