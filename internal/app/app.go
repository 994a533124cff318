package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rmonteiro-pa/ciap-agenda/internal/notify"
	"github.com/rmonteiro-pa/ciap-agenda/internal/rabbit"
	"github.com/rmonteiro-pa/ciap-agenda/internal/smartadd"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	log "github.com/sirupsen/logrus"
)

// Publisher hands notification messages to the broker.
type Publisher interface {
	Publish(body []byte) error
}

type App struct {
	Storage   storage.Storage
	Queue     *notify.Queue
	Pipeline  *smartadd.Pipeline
	Publisher Publisher
}

type Stats struct {
	Total       int `json:"total"`
	Lectures    int `json:"lectures"`
	Meetings    int `json:"meetings"`
	Cancelled   int `json:"cancelled"`
	Completed   int `json:"completed"`
	Rescheduled int `json:"rescheduled"`
}

func New(stor storage.Storage, queue *notify.Queue, pipeline *smartadd.Pipeline, publisher Publisher) *App {
	return &App{Storage: stor, Queue: queue, Pipeline: pipeline, Publisher: publisher}
}

func (a *App) CreateEvent(ctx context.Context, e storage.Event) (string, error) {
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return "", err
	}
	return e.ID, nil
}

func (a *App) UpdateEvent(ctx context.Context, id string, e storage.Event) error {
	return a.Storage.UpdateEvent(ctx, id, e)
}

func (a *App) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	return a.Storage.GetEvent(ctx, id)
}

func (a *App) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return a.Storage.ListEvents(ctx)
}

// ToggleTask flips a task between active and completed. Events of any other
// type change status only through explicit edits.
func (a *App) ToggleTask(ctx context.Context, id string) (storage.Event, error) {
	e, err := a.Storage.GetEvent(ctx, id)
	if err != nil {
		return storage.Event{}, err
	}
	if e.Type != storage.TypeTask {
		return storage.Event{}, fmt.Errorf("event %q has type %q: %w", id, e.Type, storage.ErrNotTask)
	}
	if e.Status == storage.StatusCompleted {
		e.Status = storage.StatusActive
	} else {
		e.Status = storage.StatusCompleted
	}
	if err := a.Storage.UpdateEvent(ctx, id, e); err != nil {
		return storage.Event{}, err
	}
	return e, nil
}

// CancelEvent marks the event cancelled. There is no hard delete; a
// cancelled event stays in the agenda history.
func (a *App) CancelEvent(ctx context.Context, id string) (storage.Event, error) {
	e, err := a.Storage.GetEvent(ctx, id)
	if err != nil {
		return storage.Event{}, err
	}
	e.Status = storage.StatusCancelled
	if err := a.Storage.UpdateEvent(ctx, id, e); err != nil {
		return storage.Event{}, err
	}
	return e, nil
}

func (a *App) GetEventsForDay(ctx context.Context, date time.Time) ([]storage.Event, error) {
	return a.Storage.GetEventsForDay(ctx, date)
}

func (a *App) GetEventsForWeek(ctx context.Context, startDate time.Time) ([]storage.Event, error) {
	return a.Storage.GetEventsForWeek(ctx, startDate)
}

func (a *App) GetEventsForMonth(ctx context.Context, startDate time.Time) ([]storage.Event, error) {
	return a.Storage.GetEventsForMonth(ctx, startDate)
}

func (a *App) Stats(ctx context.Context) (Stats, error) {
	events, err := a.Storage.ListEvents(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(events)}
	for _, e := range events {
		switch e.Type {
		case storage.TypeLecture:
			stats.Lectures++
		case storage.TypeMeeting:
			stats.Meetings++
		}
		switch e.Status {
		case storage.StatusCancelled:
			stats.Cancelled++
		case storage.StatusCompleted:
			stats.Completed++
		case storage.StatusRescheduled:
			stats.Rescheduled++
		}
	}
	return stats, nil
}

func (a *App) SmartAdd(ctx context.Context, text string, referenceTime time.Time) (storage.Event, error) {
	return a.Pipeline.Add(ctx, text, referenceTime)
}

func (a *App) Operator(ctx context.Context) (storage.Operator, error) {
	return a.Storage.GetOperator(ctx)
}

func (a *App) SetOperator(ctx context.Context, op storage.Operator) error {
	if op.Role != storage.RoleChief && op.Role != storage.RoleSecretary {
		return fmt.Errorf("unknown role %q", op.Role)
	}
	return a.Storage.SetOperator(ctx, op)
}

// PendingNotifications lists the queued reminder ids in order.
func (a *App) PendingNotifications() []string {
	return a.Queue.Pending()
}

// NextNotification resolves the queue front to its event. The queue only
// surfaces one entry at a time.
func (a *App) NextNotification(ctx context.Context) (storage.Event, bool, error) {
	id, ok := a.Queue.Front()
	if !ok {
		return storage.Event{}, false, nil
	}
	e, err := a.Storage.GetEvent(ctx, id)
	if err != nil {
		return storage.Event{}, false, err
	}
	return e, true, nil
}

// ShareEvent is the notify/share action: it builds the share message,
// publishes it for delivery and acknowledges the pending reminder so the
// event is never queued again. Publishing is best effort; a broker failure
// is logged and the acknowledgment still happens.
func (a *App) ShareEvent(ctx context.Context, id string) (string, error) {
	e, err := a.Storage.GetEvent(ctx, id)
	if err != nil {
		return "", err
	}
	text := notify.BuildShareText(e)
	link := notify.ShareLink(text)

	if a.Publisher != nil {
		m := rabbit.Message{
			ID:          e.ID,
			Title:       e.Title,
			StartTime:   e.StartTime,
			Responsible: e.Responsible,
			Text:        text,
			Link:        link,
		}
		data, _ := json.Marshal(m)
		if err := a.Publisher.Publish(data); err != nil {
			log.Errorf("failed to publish share for event %q: %v", e.ID, err)
		}
	}

	a.Queue.Acknowledge(e.ID)
	return link, nil
}
