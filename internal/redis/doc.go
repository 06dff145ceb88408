// Package redis wraps go-redis for the two coordination concerns shared
// with the bot process: cache invalidation fan-out and short-lived OAuth
// state tokens.
package redis
