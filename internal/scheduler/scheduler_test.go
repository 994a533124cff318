package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/rmonteiro-pa/ciap-agenda/internal/notify"
	"github.com/rmonteiro-pa/ciap-agenda/internal/scheduler"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	memorystorage "github.com/rmonteiro-pa/ciap-agenda/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func activeEvent(id string, start time.Time, reminderMinutes int) storage.Event {
	return storage.Event{
		ID:              id,
		Title:           "test " + id,
		Responsible:     "Gabinete",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		Type:            storage.TypeMeeting,
		Status:          storage.StatusActive,
		ReminderMinutes: reminderMinutes,
	}
}

func neverNotified(string) bool { return false }

func TestComputeNewlyDue(t *testing.T) {
	start := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	events := []storage.Event{activeEvent("e1", start, 60)}

	t.Run("window boundaries", func(t *testing.T) {
		cases := []struct {
			name string
			now  time.Time
			due  bool
		}{
			{"before window", start.Add(-61 * time.Minute), false},
			{"window opens", start.Add(-60 * time.Minute), true},
			{"inside window", start.Add(-5 * time.Minute), true},
			{"just before start", start.Add(-time.Millisecond), true},
			{"at start", start, false},
			{"after start", start.Add(time.Minute), false},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				due := scheduler.ComputeNewlyDue(events, c.now, neverNotified)
				if c.due {
					require.Equal(t, []string{"e1"}, due)
				} else {
					require.Empty(t, due)
				}
			})
		}
	})

	t.Run("ineligible statuses", func(t *testing.T) {
		inWindow := start.Add(-10 * time.Minute)
		for _, status := range []storage.EventStatus{
			storage.StatusCancelled,
			storage.StatusCompleted,
			storage.StatusRescheduled,
			storage.StatusPending,
		} {
			e := activeEvent("e1", start, 60)
			e.Status = status
			require.Empty(t, scheduler.ComputeNewlyDue([]storage.Event{e}, inWindow, neverNotified),
				"status %s must not be due", status)
		}
	})

	t.Run("no reminder lead", func(t *testing.T) {
		e := activeEvent("e1", start, 0)
		require.Empty(t, scheduler.ComputeNewlyDue([]storage.Event{e}, start.Add(-time.Minute), neverNotified))
	})

	t.Run("already notified", func(t *testing.T) {
		due := scheduler.ComputeNewlyDue(events, start.Add(-10*time.Minute), func(id string) bool {
			return id == "e1"
		})
		require.Empty(t, due)
	})

	t.Run("keeps snapshot order", func(t *testing.T) {
		many := []storage.Event{
			activeEvent("a", start, 60),
			activeEvent("b", start.Add(5*time.Minute), 60),
			activeEvent("c", start, 60),
		}
		due := scheduler.ComputeNewlyDue(many, start.Add(-10*time.Minute), neverNotified)
		require.Equal(t, []string{"a", "b", "c"}, due)
	})
}

func TestSchedulerScenario(t *testing.T) {
	// Event at 15:00 with a 60 minute lead: polls at 13:30, 14:05, 14:20,
	// acknowledge, poll at 14:45.
	ctx := context.Background()
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	start := day.Add(15 * time.Hour)

	stor := memorystorage.New(memorystorage.Config{})
	require.NoError(t, stor.Connect(ctx))
	e := activeEvent("", start, 60)
	require.NoError(t, stor.AddEvent(ctx, &e))

	queue := notify.NewQueue()
	clk := clock.NewFake()
	s := scheduler.New(scheduler.Config{IntervalSeconds: 15}, stor, queue, clk)

	clk.Set(day.Add(13*time.Hour + 30*time.Minute))
	s.Tick(ctx)
	require.Empty(t, queue.Pending())

	clk.Set(day.Add(14*time.Hour + 5*time.Minute))
	s.Tick(ctx)
	require.Equal(t, []string{e.ID}, queue.Pending())

	clk.Set(day.Add(14*time.Hour + 20*time.Minute))
	s.Tick(ctx)
	require.Equal(t, []string{e.ID}, queue.Pending(), "no duplicate entry on repeated polls")

	queue.Acknowledge(e.ID)
	require.Empty(t, queue.Pending())
	require.True(t, queue.Notified(e.ID))

	clk.Set(day.Add(14*time.Hour + 45*time.Minute))
	s.Tick(ctx)
	require.Empty(t, queue.Pending(), "acknowledged event must not be re-enqueued")
}

func TestSchedulerIdempotentAfterEdit(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	stor := memorystorage.New(memorystorage.Config{})
	require.NoError(t, stor.Connect(ctx))
	e := activeEvent("", start, 60)
	require.NoError(t, stor.AddEvent(ctx, &e))

	queue := notify.NewQueue()
	clk := clock.NewFake()
	s := scheduler.New(scheduler.Config{}, stor, queue, clk)

	clk.Set(start.Add(-30 * time.Minute))
	s.Tick(ctx)
	require.Equal(t, []string{e.ID}, queue.Pending())
	queue.Acknowledge(e.ID)

	// Push the event into a fresh future window; the id stays notified.
	e.StartTime = start.Add(24 * time.Hour)
	e.EndTime = e.StartTime.Add(time.Hour)
	require.NoError(t, stor.UpdateEvent(ctx, e.ID, e))

	clk.Set(e.StartTime.Add(-30 * time.Minute))
	s.Tick(ctx)
	require.Empty(t, queue.Pending())
}
