package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/backend/pkg/logger"
)

func newTestBreaker(failureThreshold, successThreshold uint, retryTimeout time.Duration) *CircuitBreaker {
	logConfig := logger.DefaultConfig()
	logConfig.Level = "error"

	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: failureThreshold,
		SuccessThreshold: successThreshold,
		RetryTimeout:     retryTimeout,
	}, logger.New(logConfig))
}

func TestCircuitBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := newTestBreaker(3, 1, time.Minute)

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(func() error { return nil }))
	}

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(3, 1, time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	}

	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := newTestBreaker(3, 1, time.Minute)
	boom := errors.New("boom")

	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })

	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := newTestBreaker(1, 2, 20*time.Millisecond)
	boom := errors.New("boom")

	require.Error(t, cb.Execute(func() error { return boom }))
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.GetState())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := newTestBreaker(1, 2, 20*time.Millisecond)
	boom := errors.New("boom")

	require.Error(t, cb.Execute(func() error { return boom }))
	time.Sleep(30 * time.Millisecond)

	require.Error(t, cb.Execute(func() error { return boom }))

	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreakerMetricsSnapshot(t *testing.T) {
	cb := newTestBreaker(3, 1, time.Minute)

	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errors.New("boom") })

	metrics := cb.GetMetrics()

	assert.Equal(t, "test", metrics["name"])
	assert.EqualValues(t, 2, metrics["total_requests"])
	assert.EqualValues(t, 1, metrics["total_failures"])
	assert.EqualValues(t, 1, metrics["total_successes"])
}
