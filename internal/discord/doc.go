// Package discord wraps the bot-token Discord REST client used to proxy
// guild metadata, check dashboard permissions, and post messages, plus
// the OAuth2 flow used for dashboard logins.
package discord
