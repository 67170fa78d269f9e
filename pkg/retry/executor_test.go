package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type statusError struct {
	retry bool
}

func (e *statusError) Error() string   { return "status error" }
func (e *statusError) Retryable() bool { return e.retry }

func fastPolicy(attempts int32) *Policy {
	return NewPolicy(
		WithInitialInterval(time.Millisecond),
		WithMaximumInterval(2*time.Millisecond),
		WithMaxAttempts(attempts),
	)
}

func TestExecuteRetriesTransportErrors(t *testing.T) {
	calls := 0
	err := NewExecutor(fastPolicy(3)).Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	transport := errors.New("dial tcp: timeout")
	err := NewExecutor(fastPolicy(2)).Execute(context.Background(), func() error {
		calls++
		return transport
	})

	assert.ErrorIs(t, err, transport)
	assert.Equal(t, 2, calls)
}

func TestExecuteDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	permanent := &statusError{retry: false}
	err := NewExecutor(fastPolicy(5)).Execute(context.Background(), func() error {
		calls++
		return permanent
	})

	var se *statusError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, 1, calls)
}

func TestExecuteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := NewExecutor(fastPolicy(5)).Execute(ctx, func() error {
		calls++
		return errors.New("transport")
	})

	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(&statusError{retry: false}))
	assert.True(t, IsRetryable(&statusError{retry: true}))
	assert.True(t, IsRetryable(errors.New("EOF")))
}

func TestPolicyOptionsRoundTrip(t *testing.T) {
	p := fastPolicy(4)
	assert.Equal(t, *p, *NewPolicy(p.Options()...))
}

func TestExecuteDoesNotRetryContextErrors(t *testing.T) {
	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		t.Run(ctxErr.Error(), func(t *testing.T) {
			calls := 0
			err := NewExecutor(fastPolicy(5)).Execute(context.Background(), func() error {
				calls++
				return fmt.Errorf("request: %w", ctxErr)
			})

			assert.ErrorIs(t, err, ctxErr)
			assert.Equal(t, 1, calls)
		})
	}
}
