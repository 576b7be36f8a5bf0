package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleepForCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := SleepFor(ctx, 10*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "取消后立即返回")
}

func TestSleepForZeroDuration(t *testing.T) {
	assert.NoError(t, SleepFor(context.Background(), 0))
	assert.NoError(t, SleepFor(context.Background(), -time.Second))
}

func TestSleepCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, 1, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepZeroRange(t *testing.T) {
	start := time.Now()
	require.NoError(t, Sleep(context.Background(), 0, 0))
	assert.Less(t, time.Since(start), time.Second)
}
