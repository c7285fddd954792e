package domain

import (
	"errors"
	"time"
)

// ClockSkewTolerance is how far in the past a booking start may lie before
// it is rejected. Covers client/server clock drift for "book right now".
const ClockSkewTolerance = 2 * time.Minute

var ErrInvalidRange = errors.New("invalid time range")

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Validate checks that the range is well-formed and does not start in the
// past beyond ClockSkewTolerance.
func (r TimeRange) Validate(now time.Time) error {
	if !r.End.After(r.Start) {
		return ErrInvalidRange
	}

	if r.Start.Before(now.Add(-ClockSkewTolerance)) {
		return ErrInvalidRange
	}

	return nil
}

// Overlaps reports whether two half-open ranges intersect. Touching
// endpoints (a.End == b.Start) do not overlap, so back-to-back bookings
// are allowed.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// WithinOpeningHours reports whether the range fits inside a single day's
// opening window. Minutes of day are read in the range's own location, the
// offset the client booked in. An end falling exactly on midnight counts as
// minute 1440 of the starting day.
func (r TimeRange) WithinOpeningHours(opensAtMin, closesAtMin int) bool {
	startMin := r.Start.Hour()*60 + r.Start.Minute()

	end := r.End
	endMin := end.Hour()*60 + end.Minute()
	if endMin == 0 && end.Second() == 0 {
		end = end.AddDate(0, 0, -1)
		endMin = 24 * 60
	}

	if r.Start.Year() != end.Year() || r.Start.YearDay() != end.YearDay() {
		return false
	}

	return startMin >= opensAtMin && endMin <= closesAtMin
}

// FreeSlots enumerates candidate slots of the given granularity inside the
// venue's opening hours on day, minus every occupied range. day is truncated
// to midnight in its own location.
func FreeSlots(
	day time.Time,
	opensAtMin, closesAtMin int,
	granularity time.Duration,
	occupied []TimeRange,
) []TimeRange {
	if granularity <= 0 {
		granularity = time.Hour
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	open := midnight.Add(time.Duration(opensAtMin) * time.Minute)
	close := midnight.Add(time.Duration(closesAtMin) * time.Minute)

	var out []TimeRange
	for start := open; !start.Add(granularity).After(close); start = start.Add(granularity) {
		slot := TimeRange{Start: start, End: start.Add(granularity)}

		free := true
		for _, o := range occupied {
			if slot.Overlaps(o) {
				free = false
				break
			}
		}

		if free {
			out = append(out, slot)
		}
	}

	return out
}
