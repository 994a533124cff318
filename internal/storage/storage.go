package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicateEventID     = errors.New("event with same ID exists")
	ErrNotFoundEvent        = errors.New("event not found")
	ErrIncorrectStartDate   = errors.New("date should be a first day of requested period")
	ErrIncorrectEventTime   = errors.New("incorrect event time")
	ErrIncorrectEventType   = errors.New("unknown event type")
	ErrIncorrectEventStatus = errors.New("unknown event status")
	ErrNotTask              = errors.New("only tasks can be toggled")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	AddEvent(ctx context.Context, e *Event) error
	UpdateEvent(ctx context.Context, id string, e Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	// ListEvents returns a snapshot of all events in insertion order.
	ListEvents(ctx context.Context) ([]Event, error)
	GetEventsForDay(ctx context.Context, date time.Time) ([]Event, error)
	GetEventsForWeek(ctx context.Context, startDate time.Time) ([]Event, error)
	GetEventsForMonth(ctx context.Context, startDate time.Time) ([]Event, error)
	GetOperator(ctx context.Context) (Operator, error)
	SetOperator(ctx context.Context, op Operator) error
}

// ValidateEvent applies the write-path rules shared by all implementations:
// end must not precede start, type and status must belong to their closed
// sets, and a negative reminder lead collapses to "no reminder".
func ValidateEvent(e *Event) error {
	if e.EndTime.Before(e.StartTime) {
		return ErrIncorrectEventTime
	}
	if !ValidType(e.Type) {
		return ErrIncorrectEventType
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	if !ValidStatus(e.Status) {
		return ErrIncorrectEventStatus
	}
	if e.ReminderMinutes < 0 {
		e.ReminderMinutes = 0
	}
	return nil
}
