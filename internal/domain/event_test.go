package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayAt(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestOccurrencesNone(t *testing.T) {
	event := &Event{
		ID:         "evt-1",
		Recurrence: RecurrenceNone,
		StartsAt:   dayAt(2026, time.March, 10, 14),
		EndsAt:     dayAt(2026, time.March, 10, 15),
	}

	got := event.Occurrences(dayAt(2026, time.March, 1, 0), dayAt(2026, time.April, 1, 0))
	require.Len(t, got, 1)
	assert.Equal(t, event.StartsAt, got[0].StartsAt)
	assert.Equal(t, event.EndsAt, got[0].EndsAt)

	// Outside the window.
	got = event.Occurrences(dayAt(2026, time.April, 1, 0), dayAt(2026, time.May, 1, 0))
	assert.Empty(t, got)
}

func TestOccurrencesDaily(t *testing.T) {
	event := &Event{
		ID:         "evt-2",
		Recurrence: RecurrenceDaily,
		StartsAt:   dayAt(2026, time.March, 10, 9),
		EndsAt:     dayAt(2026, time.March, 10, 10),
	}

	got := event.Occurrences(dayAt(2026, time.March, 12, 0), dayAt(2026, time.March, 15, 0))
	require.Len(t, got, 3)
	assert.Equal(t, dayAt(2026, time.March, 12, 9), got[0].StartsAt)
	assert.Equal(t, dayAt(2026, time.March, 14, 9), got[2].StartsAt)
}

func TestOccurrencesWeeklyRepeatUntil(t *testing.T) {
	until := dayAt(2026, time.March, 24, 23)
	event := &Event{
		ID:          "evt-3",
		Recurrence:  RecurrenceWeekly,
		StartsAt:    dayAt(2026, time.March, 10, 9),
		EndsAt:      dayAt(2026, time.March, 10, 10),
		RepeatUntil: &until,
	}

	got := event.Occurrences(dayAt(2026, time.March, 1, 0), dayAt(2026, time.May, 1, 0))
	require.Len(t, got, 3)
	assert.Equal(t, dayAt(2026, time.March, 10, 9), got[0].StartsAt)
	assert.Equal(t, dayAt(2026, time.March, 17, 9), got[1].StartsAt)
	assert.Equal(t, dayAt(2026, time.March, 24, 9), got[2].StartsAt)
}

func TestOccurrencesMonthlySkipsShortMonths(t *testing.T) {
	event := &Event{
		ID:         "evt-4",
		Recurrence: RecurrenceMonthly,
		StartsAt:   dayAt(2026, time.January, 31, 9),
		EndsAt:     dayAt(2026, time.January, 31, 10),
	}

	got := event.Occurrences(dayAt(2026, time.January, 1, 0), dayAt(2026, time.June, 1, 0))
	require.Len(t, got, 3)
	assert.Equal(t, dayAt(2026, time.January, 31, 9), got[0].StartsAt)
	assert.Equal(t, dayAt(2026, time.March, 31, 9), got[1].StartsAt)
	assert.Equal(t, dayAt(2026, time.May, 31, 9), got[2].StartsAt)
}

func TestOccurrencesOverlapAtWindowEdge(t *testing.T) {
	event := &Event{
		ID:         "evt-5",
		Recurrence: RecurrenceNone,
		StartsAt:   dayAt(2026, time.March, 9, 23),
		EndsAt:     dayAt(2026, time.March, 10, 1),
	}

	// Starts before the window but ends inside it.
	got := event.Occurrences(dayAt(2026, time.March, 10, 0), dayAt(2026, time.March, 11, 0))
	assert.Len(t, got, 1)
}
