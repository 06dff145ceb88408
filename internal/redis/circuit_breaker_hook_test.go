package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processCmd() goredis.Cmder {
	return goredis.NewStringCmd(context.Background(), "get", "some-key")
}

func TestCircuitBreakerHook_StartsClosed(t *testing.T) {
	h := NewCircuitBreakerHook()
	assert.Equal(t, circuitbreaker.ClosedState, h.State())
}

func TestCircuitBreakerHook_OpensAfterFailures(t *testing.T) {
	h := NewCircuitBreakerHook()
	boom := errors.New("connection refused")

	hook := h.ProcessHook(func(_ context.Context, _ goredis.Cmder) error {
		return boom
	})

	for i := 0; i < 10; i++ {
		err := hook(context.Background(), processCmd())
		require.Error(t, err)
	}
	assert.Equal(t, circuitbreaker.OpenState, h.State())

	// Open breaker fails fast without reaching the client.
	called := false
	failFast := h.ProcessHook(func(_ context.Context, _ goredis.Cmder) error {
		called = true
		return nil
	})
	err := failFast(context.Background(), processCmd())
	require.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreakerHook_MissingKeyIsNotFailure(t *testing.T) {
	h := NewCircuitBreakerHook()

	hook := h.ProcessHook(func(_ context.Context, _ goredis.Cmder) error {
		return goredis.Nil
	})

	for i := 0; i < 10; i++ {
		err := hook(context.Background(), processCmd())
		require.ErrorIs(t, err, goredis.Nil)
	}
	assert.Equal(t, circuitbreaker.ClosedState, h.State())
}

func TestCircuitBreakerHook_SuccessKeepsClosed(t *testing.T) {
	h := NewCircuitBreakerHook()

	hook := h.ProcessHook(func(_ context.Context, _ goredis.Cmder) error {
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, hook(context.Background(), processCmd()))
	}
	assert.Equal(t, circuitbreaker.ClosedState, h.State())
}
