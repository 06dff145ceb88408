package kick

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
)

type subscriptionStore interface {
	AddGuild(ctx context.Context, platform, broadcasterID, username string, guildID int64) (*domain.StreamSubscription, error)
	RemoveGuild(ctx context.Context, platform, broadcasterID string, guildID int64) (*domain.StreamSubscription, error)
	SetUpstreamIDs(ctx context.Context, platform, broadcasterID, onlineID, offlineID string) error
}

// Manager maintains refcounted Kick event subscriptions. Kick has a
// single status event, so only the online subscription slot is used.
type Manager struct {
	client *Client
	store  subscriptionStore

	// mu serializes refcount changes with the upstream subscription
	// calls: two concurrent first trackers must not both subscribe.
	mu sync.Mutex
}

func NewManager(client *Client, store subscriptionStore) *Manager {
	return &Manager{client: client, store: store}
}

// Resolve looks a channel up by slug without changing tracking state.
func (m *Manager) Resolve(ctx context.Context, slug string) (*Channel, error) {
	return m.client.ResolveChannel(ctx, slug)
}

// Stream fetches live-stream metadata for the channel, or nil when the
// channel is offline.
func (m *Manager) Stream(ctx context.Context, slug string) (*domain.StreamInfo, error) {
	return m.client.GetStream(ctx, slug)
}

// Track registers the guild as tracking the channel, subscribing
// upstream on first use.
func (m *Manager) Track(ctx context.Context, guildID int64, slug string) (*Channel, error) {
	channel, err := m.client.ResolveChannel(ctx, slug)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, err := m.store.AddGuild(ctx, domain.PlatformKick, channel.BroadcasterID, channel.Slug, guildID)
	if err != nil {
		return nil, err
	}

	if sub.OnlineSubscriptionID != "" {
		return channel, nil
	}

	subscriptionID, err := m.client.CreateSubscription(ctx, channel.BroadcasterID)
	if err != nil {
		if _, rbErr := m.store.RemoveGuild(ctx, domain.PlatformKick, channel.BroadcasterID, guildID); rbErr != nil &&
			!errors.Is(rbErr, domain.ErrStreamSubNotFound) {
			logging.Logger.Warn("failed to roll back kick subscription", "broadcaster_id", channel.BroadcasterID, "error", rbErr)
		}
		return nil, fmt.Errorf("failed to subscribe to kick events: %w", err)
	}

	if err := m.store.SetUpstreamIDs(ctx, domain.PlatformKick, channel.BroadcasterID, subscriptionID, ""); err != nil {
		return nil, err
	}
	return channel, nil
}

// Untrack removes the guild, deleting the upstream subscription when no
// guilds remain.
func (m *Manager) Untrack(ctx context.Context, guildID int64, slug string) error {
	channel, err := m.client.ResolveChannel(ctx, slug)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, err := m.store.RemoveGuild(ctx, domain.PlatformKick, channel.BroadcasterID, guildID)
	if errors.Is(err, domain.ErrStreamSubNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if sub.GuildCount() > 0 || sub.OnlineSubscriptionID == "" {
		return nil
	}
	if err := m.client.DeleteSubscription(ctx, sub.OnlineSubscriptionID); err != nil {
		logging.Logger.Warn("failed to delete kick subscription", "subscription_id", sub.OnlineSubscriptionID, "error", err)
	}
	return nil
}
