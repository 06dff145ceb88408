package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbedConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		embed   *EmbedConfig
		wantErr bool
	}{
		{"nil", nil, true},
		{"empty", &EmbedConfig{}, true},
		{"title only", &EmbedConfig{Title: "Welcome"}, false},
		{"description only", &EmbedConfig{Description: "Read the rules"}, false},
		{"valid color", &EmbedConfig{Title: "x", Color: "#5865F2"}, false},
		{"color without hash", &EmbedConfig{Title: "x", Color: "5865F2"}, false},
		{"bad color", &EmbedConfig{Title: "x", Color: "#zzzzzz"}, true},
		{"short color", &EmbedConfig{Title: "x", Color: "#fff"}, true},
		{
			"field missing value",
			&EmbedConfig{Title: "x", Fields: []EmbedField{{Name: "a"}}},
			true,
		},
		{
			"complete field",
			&EmbedConfig{Title: "x", Fields: []EmbedField{{Name: "a", Value: "b", Inline: true}}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.embed.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReactionRole_Validate(t *testing.T) {
	valid := func() *ReactionRole {
		return &ReactionRole{
			Name:  "colors",
			Style: ReactionStyleEmoji,
			Embed: &EmbedConfig{Title: "Pick a color"},
			Mappings: []RoleMapping{
				{Emoji: "🔴", RoleID: "111"},
				{Emoji: "🔵", RoleID: "222"},
			},
		}
	}

	assert.NoError(t, valid().Validate())

	rr := valid()
	rr.Name = ""
	assert.Error(t, rr.Validate())

	rr = valid()
	rr.Style = "toggle"
	assert.Error(t, rr.Validate())

	rr = valid()
	rr.Mappings = nil
	assert.Error(t, rr.Validate())

	rr = valid()
	rr.Mappings = make([]RoleMapping, 21)
	assert.Error(t, rr.Validate())

	rr = valid()
	rr.Mappings[1].Emoji = "🔴"
	assert.Error(t, rr.Validate(), "duplicate emoji")

	rr = valid()
	rr.Mappings[0].RoleID = ""
	assert.Error(t, rr.Validate())

	// Button style mappings may omit the emoji.
	rr = valid()
	rr.Style = ReactionStyleButton
	rr.Mappings = []RoleMapping{{RoleID: "111", Label: "Red"}}
	assert.NoError(t, rr.Validate())

	rr = valid()
	rr.Embed = nil
	assert.Error(t, rr.Validate())
}
