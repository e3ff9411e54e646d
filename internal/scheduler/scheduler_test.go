package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Retry(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestScheduler_DisabledDoesNothing(t *testing.T) {
	r := &countingRefresher{}
	s := New(r, 0, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.False(t, s.Enabled())
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, r.calls.Load())
}

func TestScheduler_RefreshesPeriodically(t *testing.T) {
	r := &countingRefresher{err: errors.New("gateway boundary failure")}
	s := New(r, time.Second, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}
