package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu        sync.Mutex
	delivered []Notification
	failOn    string
	signal    chan string
}

func newCaptureSender() *captureSender {
	return &captureSender{signal: make(chan string, 16)}
}

func (s *captureSender) Notify(_ context.Context, n Notification) error {
	if n.Template == s.failOn {
		s.signal <- n.Template
		return errors.New("delivery refused")
	}
	s.mu.Lock()
	s.delivered = append(s.delivered, n)
	s.mu.Unlock()
	s.signal <- n.Template
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func waitFor(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("delivered %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestDispatcher_DeliversEnqueued(t *testing.T) {
	sender := newCaptureSender()
	d := NewDispatcher(sender, 8)
	d.Start()
	defer d.Stop()

	d.Enqueue(Notification{Template: TemplateEventScheduled})
	waitFor(t, sender.signal, TemplateEventScheduled)
	assert.Equal(t, 1, sender.count())
}

func TestDispatcher_DelayedDelivery(t *testing.T) {
	sender := newCaptureSender()
	d := NewDispatcher(sender, 8)
	d.Start()
	defer d.Stop()

	start := time.Now()
	d.Enqueue(Notification{
		Template: TemplateEventAboutToStart,
		SendAt:   start.Add(80 * time.Millisecond),
	})
	waitFor(t, sender.signal, TemplateEventAboutToStart)
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestDispatcher_FailureDoesNotBlockOthers(t *testing.T) {
	sender := newCaptureSender()
	sender.failOn = TemplateEventUnscheduled
	d := NewDispatcher(sender, 8)
	d.Start()
	defer d.Stop()

	d.Enqueue(Notification{Template: TemplateEventUnscheduled})
	d.Enqueue(Notification{Template: TemplateRegistrationConfirmed})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case tpl := <-sender.signal:
			seen[tpl] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, seen: %v", seen)
		}
	}
	assert.True(t, seen[TemplateRegistrationConfirmed])
	// Only the healthy notification landed.
	assert.Equal(t, 1, sender.count())
}

func TestDispatcher_StopAbandonsPendingDelayed(t *testing.T) {
	sender := newCaptureSender()
	d := NewDispatcher(sender, 8)
	d.Start()

	d.Enqueue(Notification{
		Template: TemplateEventAboutToStart,
		SendAt:   time.Now().Add(time.Hour),
	})
	// Give the worker a moment to pick the notification up.
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return with a pending delayed notification")
	}
	assert.Equal(t, 0, sender.count())
}

func TestDispatcher_Now_BypassesQueue(t *testing.T) {
	sender := newCaptureSender()
	d := NewDispatcher(sender, 8)
	// No Start: the synchronous path must still work.

	err := d.Now(context.Background(), Notification{Template: TemplateRegistrationCancelled})
	require.NoError(t, err)
	assert.Equal(t, 1, sender.count())

	sender.failOn = TemplateRegistrationCancelled
	err = d.Now(context.Background(), Notification{Template: TemplateRegistrationCancelled})
	assert.Error(t, err)
}
