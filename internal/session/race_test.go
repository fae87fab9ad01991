package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstOfWaitWins(t *testing.T) {
	v, timedOut, err := firstOf(context.Background(), time.Second, func() (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.False(t, timedOut)
	assert.Equal(t, 7, v)
}

func TestFirstOfTimerWins(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	v, timedOut, err := firstOf(context.Background(), 20*time.Millisecond, func() (int, error) {
		<-block
		return 7, nil
	})
	require.NoError(t, err)
	assert.True(t, timedOut)
	assert.Zero(t, v)
}

func TestFirstOfDriverTimeout(t *testing.T) {
	driverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, timedOut, err := firstOf(context.Background(), time.Second, func() (struct{}, error) {
		<-driverCtx.Done()
		return struct{}{}, driverCtx.Err()
	})
	require.NoError(t, err)
	assert.True(t, timedOut)
}

func TestFirstOfOtherError(t *testing.T) {
	boom := errors.New("boom")
	_, timedOut, err := firstOf(context.Background(), time.Second, func() (int, error) {
		return 0, boom
	})
	assert.False(t, timedOut)
	assert.ErrorIs(t, err, boom)
}

func TestFirstOfCallerCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	block := make(chan struct{})
	defer close(block)

	_, timedOut, err := firstOf(ctx, time.Second, func() (int, error) {
		<-block
		return 0, nil
	})
	assert.False(t, timedOut)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSleep(t *testing.T) {
	require.NoError(t, sleep(context.Background(), 0))
	require.NoError(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}
