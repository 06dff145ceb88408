// Package coordination elects a single leader among API replicas using a
// Redis key with a TTL. Background jobs that must run once per fleet,
// such as WebSub lease renewal, run only on the current leader.
package coordination

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotLeader is returned by RenewLease when leadership was lost.
var ErrNotLeader = errors.New("not leader")

// LeaderElection holds a Redis key naming the current leader. The key
// expires if the leader stops renewing, letting another replica take over.
type LeaderElection struct {
	rdb        *redis.Client
	instanceID string
	key        string
	ttl        time.Duration
}

// NewLeaderElection creates an election on the given key, e.g.
// "leader:websub_renewal". instanceID must be unique per replica.
func NewLeaderElection(rdb *redis.Client, instanceID, key string, ttl time.Duration) *LeaderElection {
	return &LeaderElection{rdb: rdb, instanceID: instanceID, key: key, ttl: ttl}
}

// TryBecomeLeader attempts to claim leadership. Returns true when this
// replica now holds the key.
func (l *LeaderElection) TryBecomeLeader(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.instanceID, l.ttl).Result()
}

// renewScript extends the TTL only while this replica still owns the key.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("EXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`)

// RenewLease extends the leader TTL. Returns ErrNotLeader if some other
// replica holds the key now.
func (l *LeaderElection) RenewLease(ctx context.Context) error {
	result, err := renewScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID, int(l.ttl.Seconds())).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return ErrNotLeader
	}
	return nil
}

// AcquireOrRenew claims leadership if the key is free, or extends the
// lease when already held. Returns true when this replica is the leader
// afterwards. Intended to be called at the top of each job tick.
func (l *LeaderElection) AcquireOrRenew(ctx context.Context) (bool, error) {
	acquired, err := l.TryBecomeLeader(ctx)
	if err != nil {
		return false, err
	}
	if acquired {
		return true, nil
	}

	err = l.RenewLease(ctx)
	if errors.Is(err, ErrNotLeader) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsLeader reports whether this replica currently holds the key.
func (l *LeaderElection) IsLeader(ctx context.Context) (bool, error) {
	current, err := l.rdb.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == l.instanceID, nil
}

// releaseScript deletes the key only while this replica still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// ReleaseLease gives leadership up voluntarily, for graceful shutdown.
func (l *LeaderElection) ReleaseLease(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.key}, l.instanceID).Err()
}
