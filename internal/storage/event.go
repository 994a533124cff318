package storage

import (
	"time"
)

// EventType is the closed set of agenda entry kinds.
type EventType string

const (
	TypeMeeting  EventType = "meeting"
	TypeLecture  EventType = "lecture"
	TypeEvent    EventType = "event"
	TypeTask     EventType = "task"
	TypeCeremony EventType = "ceremony"
)

// EventStatus governs reminder eligibility and rendering.
type EventStatus string

const (
	StatusActive      EventStatus = "active"
	StatusCancelled   EventStatus = "cancelled"
	StatusRescheduled EventStatus = "rescheduled"
	StatusCompleted   EventStatus = "completed"
	StatusPending     EventStatus = "pending"
)

type Event struct {
	ID              string      `json:"id" db:"id"`
	Title           string      `json:"title" db:"title"`
	Description     string      `json:"description,omitempty" db:"description"`
	Responsible     string      `json:"responsible" db:"responsible"`
	Participants    []string    `json:"participants" db:"-"`
	CreatedBy       string      `json:"createdBy" db:"created_by"`
	StartTime       time.Time   `json:"start" db:"start_timestamp"`
	EndTime         time.Time   `json:"end" db:"end_timestamp"`
	Type            EventType   `json:"type" db:"event_type"`
	Status          EventStatus `json:"status" db:"status"`
	ReminderMinutes int         `json:"reminderMinutes,omitempty" db:"reminder_minutes"`
	Emoji           string      `json:"emoji,omitempty" db:"emoji"`
	Color           string      `json:"color,omitempty" db:"color"`
}

// ReminderEligible reports whether the event may ever be queued for a
// reminder: active status and a positive lead time.
func (e Event) ReminderEligible() bool {
	return e.Status == StatusActive && e.ReminderMinutes > 0
}

// ReminderTriggerTime is the opening instant of the reminder window.
func (e Event) ReminderTriggerTime() time.Time {
	return e.StartTime.Add(-time.Duration(e.ReminderMinutes) * time.Minute)
}

func ValidType(t EventType) bool {
	switch t {
	case TypeMeeting, TypeLecture, TypeEvent, TypeTask, TypeCeremony:
		return true
	}
	return false
}

func ValidStatus(s EventStatus) bool {
	switch s {
	case StatusActive, StatusCancelled, StatusRescheduled, StatusCompleted, StatusPending:
		return true
	}
	return false
}

// Role of the person operating the agenda.
type Role string

const (
	RoleChief     Role = "chefe"
	RoleSecretary Role = "secretaria"
)

// Operator is the profile of the person currently using the system.
type Operator struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Label is the display name used when no operator name was entered.
func (o Operator) Label() string {
	if o.Name != "" {
		return o.Name
	}
	if o.Role == RoleChief {
		return "Chefe CIAP"
	}
	return "Secretária CIAP"
}
