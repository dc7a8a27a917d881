package dateutil

import (
	"errors"
	"fmt"
	"time"
)

const (
	// ISODate is the wire format used by the upstream API for range bounds.
	ISODate = "2006-01-02"
	// LocalDateTime is the canonical local wall-clock instant format.
	LocalDateTime = "2006-01-02T15:04:05"
)

var ErrInvalidRange = errors.New("end date is before start date")

// FormatISO renders a date as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISODate)
}

// ParseISO parses a YYYY-MM-DD date in local time.
func ParseISO(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ISODate, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a date by n calendar days, keeping the wall clock.
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// Truncate drops the time-of-day component.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthBounds returns the first and last day of t's month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
	return first, last
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Chunk is one fixed-size sub-range of a requested span. Both bounds are
// inclusive days.
type Chunk struct {
	Start time.Time
	End   time.Time
}

// Label is the human-readable range shown while the chunk is in flight.
func (c Chunk) Label() string {
	return FormatISO(c.Start) + " → " + FormatISO(c.End)
}

// PlanChunks splits the inclusive span [start, end] into consecutive chunks
// of at most sizeDays days each, in ascending date order. Every day of the
// span is covered by exactly one chunk.
func PlanChunks(start, end time.Time, sizeDays int) ([]Chunk, error) {
	if sizeDays <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", sizeDays)
	}
	start = Truncate(start)
	end = Truncate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, FormatISO(start), FormatISO(end))
	}

	// Count calendar days rather than dividing durations, so DST
	// transitions inside the span cannot skew the chunk plan.
	totalDays := 0
	for d := start; d.Before(end); d = AddDays(d, 1) {
		totalDays++
	}
	chunks := make([]Chunk, 0, totalDays/sizeDays+1)
	for i := 0; i <= totalDays; i += sizeDays {
		last := i + sizeDays - 1
		if last > totalDays {
			last = totalDays
		}
		chunks = append(chunks, Chunk{
			Start: AddDays(start, i),
			End:   AddDays(start, last),
		})
	}
	return chunks, nil
}
