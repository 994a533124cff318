package scheduler

import (
	"context"
	"time"

	"github.com/jmhodges/clock"
	"github.com/rmonteiro-pa/ciap-agenda/internal/notify"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	log "github.com/sirupsen/logrus"
)

const DefaultInterval = 15 * time.Second

// ComputeNewlyDue scans an event snapshot and returns, in snapshot order,
// the ids whose reminder window is open at now: active events with a
// positive reminder lead, not yet notified, with
// now in [start - reminderMinutes, start).
func ComputeNewlyDue(events []storage.Event, now time.Time, notified func(string) bool) []string {
	var due []string
	for _, e := range events {
		if !e.ReminderEligible() || notified(e.ID) {
			continue
		}
		trigger := e.ReminderTriggerTime()
		if !now.Before(trigger) && now.Before(e.StartTime) {
			due = append(due, e.ID)
		}
	}
	return due
}

type Config struct {
	IntervalSeconds int
}

// Scheduler polls the event store on a fixed cadence and feeds newly due
// reminders into the notification queue. It never touches the notified set;
// that belongs to the acknowledgment path.
type Scheduler struct {
	storage  storage.Storage
	queue    *notify.Queue
	clk      clock.Clock
	interval time.Duration
}

func New(config Config, stor storage.Storage, queue *notify.Queue, clk clock.Clock) *Scheduler {
	interval := DefaultInterval
	if config.IntervalSeconds > 0 {
		interval = time.Duration(config.IntervalSeconds) * time.Second
	}
	return &Scheduler{storage: stor, queue: queue, clk: clk, interval: interval}
}

// Run blocks until ctx is done, ticking at the configured interval. Each
// tick reads a full snapshot, so detection can lag by at most one interval
// and concurrent store mutations are never seen half-applied.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick is one scheduler pass, separated from the timer for tests.
func (s *Scheduler) Tick(ctx context.Context) {
	events, err := s.storage.ListEvents(ctx)
	if err != nil {
		log.Errorf("scheduler failed to read events: %v", err)
		return
	}
	due := ComputeNewlyDue(events, s.clk.Now(), s.queue.Notified)
	if len(due) == 0 {
		return
	}
	log.Debugf("reminders due: %v", due)
	s.queue.Enqueue(due)
}
