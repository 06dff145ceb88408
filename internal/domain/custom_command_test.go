package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCommandName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "greet", false},
		{"with digits and dashes", "rule-34_check", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 101), true},
		{"spaces", "my command", true},
		{"unicode", "héllo", true},
		{"reserved", "help", true},
		{"reserved mixed case", "Config", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommandName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCustomCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CustomCommand
		wantErr bool
	}{
		{
			"text command",
			CustomCommand{Name: "greet", ResponseType: "text", ResponseText: "hello"},
			false,
		},
		{
			"text command without response",
			CustomCommand{Name: "greet", ResponseType: "text"},
			true,
		},
		{
			"embed command",
			CustomCommand{Name: "rules", ResponseType: "embed", Embed: &EmbedConfig{Title: "Rules"}},
			false,
		},
		{
			"embed command without embed",
			CustomCommand{Name: "rules", ResponseType: "embed"},
			true,
		},
		{
			"unknown response type",
			CustomCommand{Name: "greet", ResponseType: "image", ResponseText: "x"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
