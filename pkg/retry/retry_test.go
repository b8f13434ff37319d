package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 200*time.Millisecond, p.Delay(3))
	assert.Equal(t, 300*time.Millisecond, p.Delay(4), "capped at max delay")
	assert.Equal(t, 300*time.Millisecond, p.Delay(5))
}

func TestDoStopsOnSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	last := errors.New("still failing")
	err := p.Do(context.Background(), func() error {
		calls++
		return last
	})

	assert.Equal(t, 3, calls)
	assert.Equal(t, last, err)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
