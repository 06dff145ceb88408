// Package domain holds the core types shared across the API: guilds, users,
// guild settings, custom commands, reaction roles, embeds, subscriptions,
// streaming bookkeeping, and the sentinel errors repositories translate to.
package domain
