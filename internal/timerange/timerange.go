package timerange

import (
	"errors"
	"time"
)

var ErrInvalidTimeRange = errors.New("invalid time range")

// Window offsets around an event date. The license window is wider than the
// live window so the meeting credential is reserved for setup before the
// event and possible overrun after it.
const (
	BookBeforeEvent = 15 * time.Minute
	BookAfterEvent  = 30 * time.Minute
	LiveBeforeEvent = 10 * time.Minute
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// New creates an interval with minimal validation.
func New(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Covers reports whether t falls inside [Start, End).
func (r TimeRange) Covers(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Overlaps reports whether two half-open intervals intersect:
// a.Start < b.End && b.Start < a.End.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Live returns the window during which participants may join an event
// scheduled at date with the given tour duration.
func Live(date time.Time, duration time.Duration) TimeRange {
	return TimeRange{
		Start: date.Add(-LiveBeforeEvent),
		End:   date.Add(duration),
	}
}

// License returns the window during which the meeting license is reserved
// for an event scheduled at date with the given tour duration.
func License(date time.Time, duration time.Duration) TimeRange {
	return TimeRange{
		Start: date.Add(-BookBeforeEvent),
		End:   date.Add(duration).Add(BookAfterEvent),
	}
}
