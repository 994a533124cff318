package smartadd

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptyText     = errors.New("empty event description")
	ErrParseInFlight = errors.New("a parse request is already in flight")
	ErrBadResult     = errors.New("extraction service returned an unusable result")
	ErrParseFailed   = errors.New("no event created")
)

// Result is the structured answer of the external text-understanding
// service. Start and End are ISO-ish timestamp strings; Type must belong to
// the closed event-type set but arrives untrusted.
type Result struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Type         string   `json:"type"`
	Responsible  string   `json:"responsible"`
	Participants []string `json:"participants"`
	Emoji        string   `json:"emoji"`
}

// Parser is the opaque text-to-event collaborator.
type Parser interface {
	Parse(ctx context.Context, text string, referenceTime time.Time) (Result, error)
}
