package domain

import "time"

// CancellationCutoff is the minimum lead time before start after which a
// cancellation is recorded as late. Late cancellations still succeed.
const CancellationCutoff = 24 * time.Hour

var transitions = map[BookingStatus]map[BookingStatus]bool{
	BookingPending: {
		BookingConfirmed: true,
		BookingCancelled: true,
	},
	BookingConfirmed: {
		BookingCancelled: true,
		BookingCompleted: true,
	},
}

// CanTransition reports whether a booking may move from one status to
// target. cancelled and completed are terminal.
func CanTransition(from, target BookingStatus) bool {
	return transitions[from][target]
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(s BookingStatus) bool {
	return s == BookingCancelled || s == BookingCompleted
}

// BookingPrice computes the total price for a range at an hourly rate,
// rounding partial hours up. The result is frozen into the booking record at
// creation time so later venue price changes never alter history.
func BookingPrice(r TimeRange, priceCentsPerHour int) int {
	d := r.Duration()
	hours := int(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}

	return hours * priceCentsPerHour
}

// IsLateCancellation reports whether cancelling at now falls inside the
// cutoff window before the booking start.
func IsLateCancellation(r TimeRange, now time.Time) bool {
	return now.After(r.Start.Add(-CancellationCutoff))
}
