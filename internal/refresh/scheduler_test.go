package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRebuilder struct {
	mu    sync.Mutex
	runs  int
	runCh chan struct{}
}

func newCountingRebuilder() *countingRebuilder {
	return &countingRebuilder{runCh: make(chan struct{}, 16)}
}

func (r *countingRebuilder) Rebuild(context.Context) error {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	r.runCh <- struct{}{}
	return nil
}

func (r *countingRebuilder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func waitForRun(t *testing.T, r *countingRebuilder) {
	t.Helper()
	select {
	case <-r.runCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a rebuild run")
	}
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	r := newCountingRebuilder()
	s := NewScheduler(r, time.Hour)
	require.NoError(t, s.Start())
	defer s.Stop()

	// The initial rebuild happens synchronously in Start.
	waitForRun(t, r)
	assert.Equal(t, 1, r.count())
}

func TestScheduler_KickTriggersRebuild(t *testing.T) {
	r := newCountingRebuilder()
	s := NewScheduler(r, time.Hour)
	require.NoError(t, s.Start())
	defer s.Stop()
	waitForRun(t, r) // initial

	s.Kick()
	waitForRun(t, r)
	assert.Equal(t, 2, r.count())
}

func TestScheduler_KicksCollapse(t *testing.T) {
	r := newCountingRebuilder()
	s := NewScheduler(r, time.Hour)

	// Before Start nothing listens: repeated kicks collapse into the one
	// pending slot instead of blocking.
	for i := 0; i < 10; i++ {
		s.Kick()
	}

	require.NoError(t, s.Start())
	defer s.Stop()
	waitForRun(t, r) // initial run
	waitForRun(t, r) // the single pending kick

	// No more runs follow.
	select {
	case <-r.runCh:
		t.Fatal("collapsed kicks must produce one rebuild")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 2, r.count())
}

func TestScheduler_StopHaltsKicks(t *testing.T) {
	r := newCountingRebuilder()
	s := NewScheduler(r, time.Hour)
	require.NoError(t, s.Start())
	waitForRun(t, r)

	s.Stop()
	s.Kick()

	select {
	case <-r.runCh:
		t.Fatal("kick after Stop must not rebuild")
	case <-time.After(100 * time.Millisecond):
	}

	// Stop is idempotent.
	s.Stop()
}

func TestScheduler_StartTwice(t *testing.T) {
	r := newCountingRebuilder()
	s := NewScheduler(r, time.Hour)
	require.NoError(t, s.Start())
	defer s.Stop()
	waitForRun(t, r)

	// A second Start is a no-op, not a second cron entry.
	require.NoError(t, s.Start())
	select {
	case <-r.runCh:
		t.Fatal("second Start must not rebuild again")
	case <-time.After(100 * time.Millisecond):
	}
}
