package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

// Notification templates used by the booking core.
const (
	TemplateRegistrationConfirmed = "registration_confirmed"
	TemplateRegistrationCancelled = "registration_cancelled"
	TemplateEventScheduled        = "event_scheduled"
	TemplateEventUnscheduled      = "event_unscheduled"
	TemplateEventCancellation     = "event_cancellation"
	TemplateEventAboutToStart     = "event_about_to_start"
)

// Notification is a template id plus the context needed to render it.
// SendAt in the future requests delayed delivery.
type Notification struct {
	Template string
	Context  map[string]any
	SendAt   time.Time
}

// Sender delivers a single notification.
type Sender interface {
	Notify(ctx context.Context, n Notification) error
}

// Queue is what the services depend on: fire-and-forget enqueueing plus a
// synchronous path for content that must go out before its source rows are
// deleted.
type Queue interface {
	Enqueue(n Notification)
	Now(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the process log. Stands in for the
// real delivery channel, which is outside the booking core.
type LogSender struct{}

func (LogSender) Notify(_ context.Context, n Notification) error {
	log.Printf("notify: template=%s context=%v", n.Template, n.Context)
	return nil
}

// Dispatcher delivers notifications asynchronously, at-least-once and
// best-effort: each send runs in its own goroutine so one failing delivery
// can not poison the others, and failures are logged, never propagated to
// the caller.
type Dispatcher struct {
	sender Sender
	queue  chan Notification
	stop   chan struct{}
	wg     sync.WaitGroup

	once sync.Once
}

func NewDispatcher(sender Sender, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		sender: sender,
		queue:  make(chan Notification, queueSize),
		stop:   make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case n := <-d.queue:
				d.wg.Add(1)
				go func(n Notification) {
					defer d.wg.Done()
					d.deliver(n)
				}(n)
			case <-d.stop:
				return
			}
		}
	}()
}

// Enqueue queues a notification for delivery. Never blocks: when the queue
// is full the notification is dropped with a log line.
func (d *Dispatcher) Enqueue(n Notification) {
	select {
	case d.queue <- n:
	default:
		log.Printf("notify: queue full, dropping template=%s", n.Template)
	}
}

// Now delivers synchronously, bypassing the queue.
func (d *Dispatcher) Now(ctx context.Context, n Notification) error {
	return d.sender.Notify(ctx, n)
}

// Stop prevents further deliveries and waits for in-flight sends. Pending
// delayed notifications are abandoned; delivery is at-least-once only while
// the process lives.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stop) })
	d.wg.Wait()
}

func (d *Dispatcher) deliver(n Notification) {
	if wait := time.Until(n.SendAt); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-d.stop:
			return
		}
	}
	if err := d.sender.Notify(context.Background(), n); err != nil {
		log.Printf("notify: send %s failed: %v", n.Template, err)
	}
}
