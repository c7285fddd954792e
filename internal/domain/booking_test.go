package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, target BookingStatus
		want         bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingPending, false},
		{BookingCompleted, BookingCancelled, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.target); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.target, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(BookingPending) || IsTerminal(BookingConfirmed) {
		t.Error("pending/confirmed must not be terminal")
	}
	if !IsTerminal(BookingCancelled) || !IsTerminal(BookingCompleted) {
		t.Error("cancelled/completed must be terminal")
	}
}

func TestBookingPrice(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		dur   time.Duration
		price int
		want  int
	}{
		{"one hour", time.Hour, 2500, 2500},
		{"two hours", 2 * time.Hour, 2500, 5000},
		{"partial hour rounds up", 90 * time.Minute, 2500, 5000},
		{"half hour rounds up", 30 * time.Minute, 2500, 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TimeRange{Start: base, End: base.Add(tt.dur)}
			if got := BookingPrice(r, tt.price); got != tt.want {
				t.Errorf("BookingPrice = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsLateCancellation(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	r := TimeRange{Start: start, End: start.Add(time.Hour)}

	if IsLateCancellation(r, start.Add(-48*time.Hour)) {
		t.Error("cancelling 48h ahead must not be late")
	}
	if !IsLateCancellation(r, start.Add(-2*time.Hour)) {
		t.Error("cancelling 2h ahead must be late")
	}
	if !IsLateCancellation(r, start.Add(time.Minute)) {
		t.Error("cancelling after start must be late")
	}
}
