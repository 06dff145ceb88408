package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

// invalidationChannel is where the bot process listens for guild config
// changes. After a dashboard write the API publishes here so the bot
// reloads its in-memory settings for that guild.
const invalidationChannel = "guild_config_invalidate"

// InvalidationMessage is the payload published on config changes.
type InvalidationMessage struct {
	GuildID string `json:"guild_id"`
	Reason  string `json:"reason,omitempty"`
}

// Invalidator publishes cache invalidation messages for the bot.
type Invalidator struct {
	rdb *goredis.Client
}

// NewInvalidator creates a new Invalidator on the shared client.
func NewInvalidator(client *Client) *Invalidator {
	return &Invalidator{rdb: client.rdb}
}

// PublishGuildConfig notifies the bot that the guild's settings changed.
// Failures are logged, not returned: the write already committed and the
// bot falls back to its periodic reload.
func (i *Invalidator) PublishGuildConfig(ctx context.Context, guildID int64, reason string) {
	msg := InvalidationMessage{GuildID: strconv.FormatInt(guildID, 10), Reason: reason}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal invalidation message", "error", err)
		return
	}
	if err := i.rdb.Publish(ctx, invalidationChannel, data).Err(); err != nil {
		slog.Warn("failed to publish config invalidation", "guild_id", guildID, "error", err)
	}
}

// Subscription is an active invalidation subscription.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan InvalidationMessage
	cancel context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// Subscribe listens for invalidation messages. Used by integration tests
// and by auxiliary consumers; the bot process has its own subscriber.
func (i *Invalidator) Subscribe(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := i.rdb.Subscribe(ctx, invalidationChannel)
	ch := make(chan InvalidationMessage, 16)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub.Channel():
				if !ok {
					return
				}
				var msg InvalidationMessage
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					slog.Warn("dropping malformed invalidation message", "error", err)
					continue
				}
				select {
				case ch <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{sub: sub, Ch: ch, cancel: cancel}
}
