package janitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingEvicter struct {
	calls atomic.Int32
	ran   chan struct{}
}

func (c *countingEvicter) EvictIdle(context.Context) int {
	c.calls.Add(1)
	select {
	case c.ran <- struct{}{}:
	default:
	}
	return 1
}

func TestSweepCallsEvicter(t *testing.T) {
	ev := &countingEvicter{ran: make(chan struct{}, 1)}
	j, err := New(ev, "", zap.NewNop())
	require.NoError(t, err)

	j.Sweep()
	assert.Equal(t, int32(1), ev.calls.Load())
}

func TestScheduledSweep(t *testing.T) {
	ev := &countingEvicter{ran: make(chan struct{}, 1)}
	j, err := New(ev, "@every 1s", zap.NewNop())
	require.NoError(t, err)

	j.Start()
	defer j.Stop(context.Background())

	select {
	case <-ev.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep never ran")
	}
}

func TestRejectsBadSchedule(t *testing.T) {
	_, err := New(&countingEvicter{}, "not a schedule", zap.NewNop())
	assert.Error(t, err)
}
