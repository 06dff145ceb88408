package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrStateNotFound means the OAuth state was never issued, already
// consumed, or expired.
var ErrStateNotFound = errors.New("oauth state not found")

const stateTTL = 10 * time.Minute

// StateStore issues and consumes single-use OAuth state tokens, shared
// across API replicas through Redis.
type StateStore struct {
	rdb *goredis.Client
}

// NewStateStore creates a new StateStore on the shared client.
func NewStateStore(client *Client) *StateStore {
	return &StateStore{rdb: client.rdb}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

// Issue creates a fresh state token bound to the given redirect target.
func (s *StateStore) Issue(ctx context.Context, redirectTo string) (string, error) {
	state := uuid.NewString()
	if err := s.rdb.Set(ctx, stateKey(state), redirectTo, stateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return state, nil
}

// Consume atomically retrieves and deletes the state, returning the bound
// redirect target. A second consume of the same state fails.
func (s *StateStore) Consume(ctx context.Context, state string) (string, error) {
	redirectTo, err := s.rdb.GetDel(ctx, stateKey(state)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrStateNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return redirectTo, nil
}
