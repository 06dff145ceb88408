// Package twitch integrates with the Twitch Helix API and EventSub
// webhooks: resolving streamers, managing refcounted stream.online and
// stream.offline subscriptions, and relaying notifications into Discord
// announcements.
package twitch
