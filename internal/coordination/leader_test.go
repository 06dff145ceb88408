package coordination

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func electionPair(t *testing.T, ttl time.Duration) (*LeaderElection, *LeaderElection, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a := NewLeaderElection(rdb, "replica-a", "leader:test", ttl)
	b := NewLeaderElection(rdb, "replica-b", "leader:test", ttl)
	return a, b, mr
}

func TestAcquireOrRenew_FirstReplicaWins(t *testing.T) {
	a, b, _ := electionPair(t, time.Minute)
	ctx := context.Background()

	leader, err := a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	assert.True(t, leader)

	leader, err = b.AcquireOrRenew(ctx)
	require.NoError(t, err)
	assert.False(t, leader)
}

func TestAcquireOrRenew_HolderKeepsLeadership(t *testing.T) {
	a, _, mr := electionPair(t, time.Minute)
	ctx := context.Background()

	leader, err := a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	require.True(t, leader)

	// Renewing close to expiry resets the TTL.
	mr.FastForward(50 * time.Second)
	leader, err = a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	assert.True(t, leader)

	mr.FastForward(50 * time.Second)
	held, err := a.IsLeader(ctx)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestAcquireOrRenew_ExpiredLeaseIsStolen(t *testing.T) {
	a, b, mr := electionPair(t, time.Minute)
	ctx := context.Background()

	leader, err := a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	require.True(t, leader)

	mr.FastForward(2 * time.Minute)

	leader, err = b.AcquireOrRenew(ctx)
	require.NoError(t, err)
	assert.True(t, leader)

	// The old leader is out until the new lease expires.
	leader, err = a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	assert.False(t, leader)
}

func TestRenewLease_NotLeader(t *testing.T) {
	a, b, _ := electionPair(t, time.Minute)
	ctx := context.Background()

	leader, err := a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	require.True(t, leader)

	assert.ErrorIs(t, b.RenewLease(ctx), ErrNotLeader)
}

func TestReleaseLease_FreesKey(t *testing.T) {
	a, b, _ := electionPair(t, time.Minute)
	ctx := context.Background()

	leader, err := a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	require.True(t, leader)

	require.NoError(t, a.ReleaseLease(ctx))

	leader, err = b.AcquireOrRenew(ctx)
	require.NoError(t, err)
	assert.True(t, leader)
}

func TestReleaseLease_OnlyOwnerReleases(t *testing.T) {
	a, b, _ := electionPair(t, time.Minute)
	ctx := context.Background()

	leader, err := a.AcquireOrRenew(ctx)
	require.NoError(t, err)
	require.True(t, leader)

	// A non-owner release is a no-op.
	require.NoError(t, b.ReleaseLease(ctx))
	held, err := a.IsLeader(ctx)
	require.NoError(t, err)
	assert.True(t, held)
}
