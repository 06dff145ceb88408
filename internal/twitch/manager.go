package twitch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/nicklaw5/helix/v2"
)

type subscriptionStore interface {
	AddGuild(ctx context.Context, platform, broadcasterID, username string, guildID int64) (*domain.StreamSubscription, error)
	RemoveGuild(ctx context.Context, platform, broadcasterID string, guildID int64) (*domain.StreamSubscription, error)
	GetByBroadcaster(ctx context.Context, platform, broadcasterID string) (*domain.StreamSubscription, error)
	SetUpstreamIDs(ctx context.Context, platform, broadcasterID, onlineID, offlineID string) error
}

// Manager maintains the refcounted EventSub subscriptions: upstream
// subscriptions are created when the first guild tracks a streamer and
// deleted when the last guild stops.
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

// Resolve looks a streamer up by login without changing tracking state.
func (m *Manager) Resolve(login string) (*Streamer, error) {
	return m.client.ResolveStreamer(login)
}

// Track registers the guild as tracking the streamer, creating the
// stream.online and stream.offline subscriptions on first use.
func (m *Manager) Track(ctx context.Context, guildID int64, login string) (*Streamer, error) {
	streamer, err := m.client.ResolveStreamer(login)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, err := m.store.AddGuild(ctx, domain.PlatformTwitch, streamer.ID, streamer.Login, guildID)
	if err != nil {
		return nil, err
	}

	if sub.OnlineSubscriptionID != "" {
		return streamer, nil
	}

	onlineID, err := m.client.CreateSubscription(helix.EventSubTypeStreamOnline, streamer.ID)
	if err != nil {
		m.rollback(ctx, streamer.ID, guildID)
		return nil, fmt.Errorf("failed to subscribe to stream.online: %w", err)
	}

	offlineID, err := m.client.CreateSubscription(helix.EventSubTypeStreamOffline, streamer.ID)
	if err != nil {
		if delErr := m.client.DeleteSubscription(onlineID); delErr != nil {
			logging.Logger.Warn("failed to clean up online subscription", "subscription_id", onlineID, "error", delErr)
		}
		m.rollback(ctx, streamer.ID, guildID)
		return nil, fmt.Errorf("failed to subscribe to stream.offline: %w", err)
	}

	if err := m.store.SetUpstreamIDs(ctx, domain.PlatformTwitch, streamer.ID, onlineID, offlineID); err != nil {
		return nil, err
	}
	return streamer, nil
}

func (m *Manager) rollback(ctx context.Context, broadcasterID string, guildID int64) {
	if _, err := m.store.RemoveGuild(ctx, domain.PlatformTwitch, broadcasterID, guildID); err != nil &&
		!errors.Is(err, domain.ErrStreamSubNotFound) {
		logging.Logger.Warn("failed to roll back stream subscription", "broadcaster_id", broadcasterID, "error", err)
	}
}

// Untrack removes the guild from the streamer's trackers and tears the
// upstream subscriptions down when no guilds remain.
func (m *Manager) Untrack(ctx context.Context, guildID int64, login string) error {
	streamer, err := m.client.ResolveStreamer(login)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, err := m.store.RemoveGuild(ctx, domain.PlatformTwitch, streamer.ID, guildID)
	if errors.Is(err, domain.ErrStreamSubNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if sub.GuildCount() > 0 {
		return nil
	}

	for _, id := range []string{sub.OnlineSubscriptionID, sub.OfflineSubscriptionID} {
		if id == "" {
			continue
		}
		if err := m.client.DeleteSubscription(id); err != nil {
			logging.Logger.Warn("failed to delete eventsub subscription", "subscription_id", id, "error", err)
		}
	}
	return nil
}
