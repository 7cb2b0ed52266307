package domain

import "time"

// Recurrence describes how an agenda event repeats.
type Recurrence string

// Recurrence rules.
const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Valid reports whether the recurrence is a known rule.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// EventType categorizes an agenda entry.
type EventType string

// Event types.
const (
	EventTypePauta    EventType = "pauta"
	EventTypeMeeting  EventType = "meeting"
	EventTypeCoverage EventType = "coverage"
	EventTypeOther    EventType = "other"
)

// Valid reports whether the event type is a known value.
func (t EventType) Valid() bool {
	switch t {
	case EventTypePauta, EventTypeMeeting, EventTypeCoverage, EventTypeOther:
		return true
	default:
		return false
	}
}

// EventStatus tracks an agenda entry through its lifecycle.
type EventStatus string

// Event statuses.
const (
	EventStatusPlanned   EventStatus = "planned"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusDone      EventStatus = "done"
	EventStatusCancelled EventStatus = "cancelled"
)

// Valid reports whether the status is a known value.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPlanned, EventStatusConfirmed, EventStatusDone, EventStatusCancelled:
		return true
	default:
		return false
	}
}

// Event is an agenda entry. StartsAt/EndsAt describe the first
// occurrence; recurring events repeat until RepeatUntil (inclusive)
// or indefinitely when RepeatUntil is nil.
type Event struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	RepeatUntil *time.Time `json:"repeat_until,omitempty"`
	ID            string      `json:"id"`
	CreatorID     string      `json:"creator_id"`
	ResponsibleID string      `json:"responsible_id,omitempty"`
	BoardID       string      `json:"board_id,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Location      string      `json:"location,omitempty"`
	Type          EventType   `json:"type"`
	Status        EventStatus `json:"status"`
	Priority      Priority    `json:"priority"`
	Recurrence    Recurrence  `json:"recurrence"`
	AttendeeIDs   []string    `json:"attendee_ids"`
}

// Occurrence is one concrete instance of an event after recurrence
// expansion.
type Occurrence struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	EventID  string    `json:"event_id"`
}

// Occurrences expands the event into concrete instances overlapping
// the half-open window [from, to). Monthly recurrence pins the day of
// month of the first occurrence and skips months without that day.
func (e *Event) Occurrences(from, to time.Time) []Occurrence {
	if !to.After(from) {
		return nil
	}
	duration := e.EndsAt.Sub(e.StartsAt)

	var out []Occurrence
	add := func(start time.Time) bool {
		if !start.Before(to) {
			return false
		}
		if e.RepeatUntil != nil && start.After(*e.RepeatUntil) {
			return false
		}
		end := start.Add(duration)
		if end.After(from) {
			out = append(out, Occurrence{EventID: e.ID, StartsAt: start, EndsAt: end})
		}
		return true
	}

	switch e.Recurrence {
	case RecurrenceDaily:
		for start := e.StartsAt; add(start); start = start.AddDate(0, 0, 1) {
		}
	case RecurrenceWeekly:
		for start := e.StartsAt; add(start); start = start.AddDate(0, 0, 7) {
		}
	case RecurrenceMonthly:
		day := e.StartsAt.Day()
		for months := 0; ; months++ {
			start := e.StartsAt.AddDate(0, months, 0)
			// AddDate normalizes Jan 31 + 1 month to Mar 3; skip
			// months that do not have the pinned day.
			if start.Day() != day {
				continue
			}
			if !add(start) {
				break
			}
		}
	default:
		add(e.StartsAt)
	}
	return out
}
