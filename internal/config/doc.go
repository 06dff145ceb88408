// Package config provides environment-based configuration.
//
// Loads all settings from environment variables, validates required fields,
// and exposes per-integration enablement checks (Twitch, Kick, YouTube, Stripe).
package config
