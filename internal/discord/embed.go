package discord

import (
	"strconv"
	"strings"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/bwmarrin/discordgo"
)

// defaultEmbedColor is Discord blurple, used when no color is configured.
const defaultEmbedColor = 0x5865F2

// BuildEmbed converts a stored embed document to a Discord embed.
func BuildEmbed(cfg *domain.EmbedConfig) *discordgo.MessageEmbed {
	if cfg == nil {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       cfg.Title,
		Description: cfg.Description,
		Color:       ParseHexColor(cfg.Color),
	}

	if cfg.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    cfg.AuthorName,
			IconURL: cfg.AuthorIcon,
			URL:     cfg.AuthorURL,
		}
	}
	if cfg.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cfg.Thumbnail}
	}
	if cfg.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: cfg.Image}
	}
	if cfg.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    cfg.Footer,
			IconURL: cfg.FooterIcon,
		}
	}
	for _, f := range cfg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return embed
}

// ParseHexColor converts "#RRGGBB" (hash optional) to a Discord color
// int, falling back to blurple on empty or malformed input.
func ParseHexColor(hex string) int {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return defaultEmbedColor
	}
	value, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return defaultEmbedColor
	}
	return int(value)
}
