package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSSLMode(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"explicit require", "postgres://u:p@localhost:5432/db?sslmode=require", "require"},
		{"explicit disable", "postgres://u:p@localhost:5432/db?sslmode=disable", "disable"},
		{"uppercase normalized", "postgres://u:p@localhost:5432/db?sslmode=REQUIRE", "require"},
		{"absent", "postgres://u:p@localhost:5432/db", "prefer (default)"},
		{"unparseable", "://not-a-url", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSSLMode(tt.url))
		})
	}
}

func TestExtractQueryName(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected string
	}{
		{"select", "SELECT id FROM guilds", "SELECT"},
		{"insert with newline", "INSERT\nINTO guilds VALUES ($1)", "INSERT"},
		{"empty", "", "unknown"},
		{"single word", "COMMIT", "COMMIT"},
		{"long single token truncated", "ThisIsOneVeryLongTokenWithoutAnySpaces", "ThisIsOneVeryLongTok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractQueryName(tt.sql))
		})
	}
}
