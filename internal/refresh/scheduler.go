package refresh

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Rebuilder recomputes the next-event projection from scratch.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// Scheduler runs the projection rebuild on a fixed interval and accepts
// opportunistic kicks after writes that may change the answer. The rebuild
// is a full, idempotent recomputation, so skipped or delayed runs are fine.
type Scheduler struct {
	cron      *cron.Cron
	rebuilder Rebuilder
	interval  time.Duration

	kick chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex // serializes rebuild runs
	started bool
}

func NewScheduler(rebuilder Rebuilder, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		cron:      cron.New(),
		rebuilder: rebuilder,
		interval:  interval,
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
}

// Start runs an initial rebuild, then schedules periodic ones and the
// kick listener.
func (s *Scheduler) Start() error {
	if s.started {
		return nil
	}
	s.started = true

	s.run()

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.run); err != nil {
		return err
	}
	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.kick:
				s.run()
			case <-s.stop:
				return
			}
		}
	}()
	return nil
}

// Kick requests an out-of-band rebuild. Non-blocking; collapses into an
// already pending kick.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Stop halts periodic and kicked rebuilds and waits for an in-flight run.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
}

func (s *Scheduler) run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rebuilder.Rebuild(context.Background()); err != nil {
		log.Printf("refresh: rebuild next events: %v", err)
	}
}
