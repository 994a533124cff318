package smartadd

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
)

const defaultReminderMinutes = 60

var typeColors = map[storage.EventType]string{
	storage.TypeMeeting:  "from-slate-800 to-slate-950",
	storage.TypeLecture:  "from-blue-600 to-indigo-700",
	storage.TypeCeremony: "from-amber-600 to-orange-700",
	storage.TypeEvent:    "from-blue-500 to-cyan-600",
	storage.TypeTask:     "from-emerald-600 to-teal-800",
}

const fallbackColor = "from-slate-600 to-slate-800"

// Pipeline turns free text into an event through the external parser and
// appends it to the store. A failing parse leaves the store untouched, and
// only one request may be in flight at a time.
type Pipeline struct {
	parser   Parser
	storage  storage.Storage
	inFlight int32
}

func NewPipeline(parser Parser, stor storage.Storage) *Pipeline {
	return &Pipeline{parser: parser, storage: stor}
}

// Add parses text against referenceTime and stores the resulting event.
// The returned event has a fresh id, active status and the default reminder
// lead. createdBy attribution comes from the current operator profile.
func (p *Pipeline) Add(ctx context.Context, text string, referenceTime time.Time) (storage.Event, error) {
	if strings.TrimSpace(text) == "" {
		return storage.Event{}, ErrEmptyText
	}
	if !atomic.CompareAndSwapInt32(&p.inFlight, 0, 1) {
		return storage.Event{}, ErrParseInFlight
	}
	defer atomic.StoreInt32(&p.inFlight, 0)

	result, err := p.parser.Parse(ctx, text, referenceTime)
	if err != nil {
		return storage.Event{}, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	// The session may have ended while the call was suspended; a stale
	// result must not reach the store.
	if err := ctx.Err(); err != nil {
		return storage.Event{}, err
	}

	event, err := p.buildEvent(ctx, result)
	if err != nil {
		return storage.Event{}, fmt.Errorf("no event created: %w", err)
	}
	if err := p.storage.AddEvent(ctx, &event); err != nil {
		return storage.Event{}, fmt.Errorf("no event created: %w", err)
	}
	return event, nil
}

func (p *Pipeline) buildEvent(ctx context.Context, result Result) (storage.Event, error) {
	eventType := storage.EventType(result.Type)
	if !storage.ValidType(eventType) {
		return storage.Event{}, fmt.Errorf("type %q outside the closed set: %w", result.Type, ErrBadResult)
	}
	if result.Title == "" || result.Responsible == "" {
		return storage.Event{}, fmt.Errorf("missing required fields: %w", ErrBadResult)
	}
	start, err := parseTimestamp(result.Start)
	if err != nil {
		return storage.Event{}, fmt.Errorf("bad start %q: %w", result.Start, ErrBadResult)
	}
	end, err := parseTimestamp(result.End)
	if err != nil {
		return storage.Event{}, fmt.Errorf("bad end %q: %w", result.End, ErrBadResult)
	}

	operator, err := p.storage.GetOperator(ctx)
	if err != nil {
		return storage.Event{}, err
	}

	color, ok := typeColors[eventType]
	if !ok {
		color = fallbackColor
	}
	emoji := result.Emoji
	if emoji == "" {
		emoji = "📅"
	}
	participants := result.Participants
	if participants == nil {
		participants = []string{}
	}

	return storage.Event{
		ID:              uuid.NewString(),
		Title:           result.Title,
		Description:     result.Description,
		Responsible:     result.Responsible,
		Participants:    participants,
		CreatedBy:       operator.Label(),
		StartTime:       start,
		EndTime:         end,
		Type:            eventType,
		Status:          storage.StatusActive,
		ReminderMinutes: defaultReminderMinutes,
		Emoji:           emoji,
		Color:           color,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}
