package youtube

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/acosmic/acosmibot-api/internal/domain"
	"github.com/acosmic/acosmibot-api/internal/logging"
	"github.com/jonboulle/clockwork"
)

type subscriptionStore interface {
	AddGuild(ctx context.Context, platform, broadcasterID, username string, guildID int64) (*domain.StreamSubscription, error)
	RemoveGuild(ctx context.Context, platform, broadcasterID string, guildID int64) (*domain.StreamSubscription, error)
	SetUpstreamIDs(ctx context.Context, platform, broadcasterID, onlineID, offlineID string) error
	ListByPlatform(ctx context.Context, platform string) ([]domain.StreamSubscription, error)
}

// renewInterval keeps WebSub leases alive: well under the 10-day lease.
const renewInterval = 4 * 24 * time.Hour

// renewalGate restricts lease renewal to one replica of the fleet.
type renewalGate interface {
	AcquireOrRenew(ctx context.Context) (bool, error)
}

// Manager maintains refcounted WebSub subscriptions. Unlike EventSub,
// WebSub leases expire, so RunLeaseRenewal must run in the background.
type Manager struct {
	client *Client
	store  subscriptionStore
	clock  clockwork.Clock
	gate   renewalGate

	// mu serializes refcount changes with the hub subscribe/unsubscribe
	// calls: two concurrent first trackers must not both subscribe.
	mu sync.Mutex
}

func NewManager(client *Client, store subscriptionStore) *Manager {
	return &Manager{client: client, store: store, clock: clockwork.NewRealClock()}
}

// NewManagerWithClock is used by tests to drive the renewal loop.
func NewManagerWithClock(client *Client, store subscriptionStore, clock clockwork.Clock) *Manager {
	return &Manager{client: client, store: store, clock: clock}
}

// SetRenewalGate installs a leader-election gate so that only one replica
// renews leases. Without a gate every replica renews, which is harmless
// but wasteful.
func (m *Manager) SetRenewalGate(gate renewalGate) {
	m.gate = gate
}

// Resolve looks a channel up without changing tracking state.
func (m *Manager) Resolve(ctx context.Context, handleOrID string) (*Channel, error) {
	return m.client.ResolveChannel(ctx, handleOrID)
}

// CheckLive reports the channel's active live broadcast, or nil when it
// is not live.
func (m *Manager) CheckLive(ctx context.Context, channelID string) (*Video, error) {
	return m.client.CheckLive(ctx, channelID)
}

// Track registers the guild as tracking the channel, establishing the
// WebSub lease on first use.
func (m *Manager) Track(ctx context.Context, guildID int64, handleOrID string) (*Channel, error) {
	channel, err := m.client.ResolveChannel(ctx, handleOrID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, err := m.store.AddGuild(ctx, domain.PlatformYouTube, channel.ID, channel.Title, guildID)
	if err != nil {
		return nil, err
	}

	if sub.OnlineSubscriptionID != "" {
		return channel, nil
	}

	if err := m.client.Subscribe(ctx, channel.ID); err != nil {
		if _, rbErr := m.store.RemoveGuild(ctx, domain.PlatformYouTube, channel.ID, guildID); rbErr != nil &&
			!errors.Is(rbErr, domain.ErrStreamSubNotFound) {
			logging.Logger.Warn("failed to roll back youtube subscription", "channel_id", channel.ID, "error", rbErr)
		}
		return nil, fmt.Errorf("failed to subscribe to channel feed: %w", err)
	}

	// WebSub has no subscription id; the topic URL is the identity.
	if err := m.store.SetUpstreamIDs(ctx, domain.PlatformYouTube, channel.ID, topicURL(channel.ID), ""); err != nil {
		return nil, err
	}
	return channel, nil
}

// Untrack removes the guild, dropping the WebSub lease when no guilds
// remain.
func (m *Manager) Untrack(ctx context.Context, guildID int64, handleOrID string) error {
	channel, err := m.client.ResolveChannel(ctx, handleOrID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, err := m.store.RemoveGuild(ctx, domain.PlatformYouTube, channel.ID, guildID)
	if errors.Is(err, domain.ErrStreamSubNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if sub.GuildCount() > 0 {
		return nil
	}
	if err := m.client.Unsubscribe(ctx, channel.ID); err != nil {
		logging.Logger.Warn("failed to unsubscribe from channel feed", "channel_id", channel.ID, "error", err)
	}
	return nil
}

// RenewAll re-subscribes every tracked channel, refreshing hub leases.
func (m *Manager) RenewAll(ctx context.Context) {
	subs, err := m.store.ListByPlatform(ctx, domain.PlatformYouTube)
	if err != nil {
		logging.Logger.Error("failed to list youtube subscriptions for renewal", "error", err)
		return
	}

	for _, sub := range subs {
		if err := m.client.Subscribe(ctx, sub.BroadcasterID); err != nil {
			logging.Logger.Warn("failed to renew websub lease", "channel_id", sub.BroadcasterID, "error", err)
		}
	}
	if len(subs) > 0 {
		logging.Logger.Info("renewed websub leases", "count", len(subs))
	}
}

// RunLeaseRenewal renews leases on a ticker until the context ends.
func (m *Manager) RunLeaseRenewal(ctx context.Context) {
	ticker := m.clock.NewTicker(renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if m.gate != nil {
				leader, err := m.gate.AcquireOrRenew(ctx)
				if err != nil {
					logging.Logger.Warn("leader election check failed", "error", err)
					continue
				}
				if !leader {
					continue
				}
			}
			m.RenewAll(ctx)
		}
	}
}
