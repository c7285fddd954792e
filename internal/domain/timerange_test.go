package domain

import (
	"errors"
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end string) TimeRange {
	t.Helper()

	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatal(err)
	}

	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		t.Fatal(err)
	}

	return TimeRange{Start: s, End: e}
}

func TestTimeRangeValidate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		r       TimeRange
		wantErr bool
	}{
		{
			name: "future range",
			r:    TimeRange{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)},
		},
		{
			name:    "end equals start",
			r:       TimeRange{Start: now.Add(time.Hour), End: now.Add(time.Hour)},
			wantErr: true,
		},
		{
			name:    "end before start",
			r:       TimeRange{Start: now.Add(2 * time.Hour), End: now.Add(time.Hour)},
			wantErr: true,
		},
		{
			name: "starts slightly in the past within skew",
			r:    TimeRange{Start: now.Add(-time.Minute), End: now.Add(time.Hour)},
		},
		{
			name:    "starts in the past beyond skew",
			r:       TimeRange{Start: now.Add(-time.Hour), End: now.Add(time.Hour)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate(now)
			if tt.wantErr && !errors.Is(err, ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestTimeRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{
			name: "disjoint",
			a:    mustRange(t, "2026-03-10T14:00:00Z", "2026-03-10T15:00:00Z"),
			b:    mustRange(t, "2026-03-10T16:00:00Z", "2026-03-10T17:00:00Z"),
			want: false,
		},
		{
			name: "partial overlap",
			a:    mustRange(t, "2026-03-10T14:00:00Z", "2026-03-10T15:00:00Z"),
			b:    mustRange(t, "2026-03-10T14:30:00Z", "2026-03-10T15:30:00Z"),
			want: true,
		},
		{
			name: "contained",
			a:    mustRange(t, "2026-03-10T14:00:00Z", "2026-03-10T17:00:00Z"),
			b:    mustRange(t, "2026-03-10T15:00:00Z", "2026-03-10T16:00:00Z"),
			want: true,
		},
		{
			name: "identical",
			a:    mustRange(t, "2026-03-10T14:00:00Z", "2026-03-10T15:00:00Z"),
			b:    mustRange(t, "2026-03-10T14:00:00Z", "2026-03-10T15:00:00Z"),
			want: true,
		},
		{
			// Back-to-back bookings must not conflict.
			name: "touching endpoints",
			a:    mustRange(t, "2026-03-10T14:00:00Z", "2026-03-10T15:00:00Z"),
			b:    mustRange(t, "2026-03-10T15:00:00Z", "2026-03-10T16:00:00Z"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("a.Overlaps(b) = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("b.Overlaps(a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithinOpeningHours(t *testing.T) {
	// Window 08:00-22:00 unless a case says otherwise.
	tests := []struct {
		name         string
		r            TimeRange
		opens, close int
		want         bool
	}{
		{
			name:  "inside window",
			r:     mustRange(t, "2026-03-10T10:00:00Z", "2026-03-10T12:00:00Z"),
			opens: 8 * 60, close: 22 * 60,
			want: true,
		},
		{
			name:  "starts before opening",
			r:     mustRange(t, "2026-03-10T07:30:00Z", "2026-03-10T09:00:00Z"),
			opens: 8 * 60, close: 22 * 60,
			want: false,
		},
		{
			name:  "ends after closing",
			r:     mustRange(t, "2026-03-10T21:00:00Z", "2026-03-10T22:30:00Z"),
			opens: 8 * 60, close: 22 * 60,
			want: false,
		},
		{
			name:  "ends exactly at closing",
			r:     mustRange(t, "2026-03-10T20:00:00Z", "2026-03-10T22:00:00Z"),
			opens: 8 * 60, close: 22 * 60,
			want: true,
		},
		{
			name:  "starts exactly at opening",
			r:     mustRange(t, "2026-03-10T08:00:00Z", "2026-03-10T09:00:00Z"),
			opens: 8 * 60, close: 22 * 60,
			want: true,
		},
		{
			name:  "spans midnight",
			r:     mustRange(t, "2026-03-10T21:00:00Z", "2026-03-11T09:00:00Z"),
			opens: 8 * 60, close: 22 * 60,
			want: false,
		},
		{
			name:  "ends at midnight with round-the-clock venue",
			r:     mustRange(t, "2026-03-10T22:00:00Z", "2026-03-11T00:00:00Z"),
			opens: 0, close: 24 * 60,
			want: true,
		},
		{
			name:  "ends at midnight but venue closes earlier",
			r:     mustRange(t, "2026-03-10T22:00:00Z", "2026-03-11T00:00:00Z"),
			opens: 8 * 60, close: 22 * 60,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.WithinOpeningHours(tt.opens, tt.close); got != tt.want {
				t.Errorf("WithinOpeningHours(%d, %d) = %v, want %v", tt.opens, tt.close, got, tt.want)
			}
		})
	}
}

func TestFreeSlots(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Open 10:00-14:00, one booking 11:00-12:00.
	occupied := []TimeRange{
		mustRange(t, "2026-03-10T11:00:00Z", "2026-03-10T12:00:00Z"),
	}

	got := FreeSlots(day, 10*60, 14*60, time.Hour, occupied)

	want := []TimeRange{
		mustRange(t, "2026-03-10T10:00:00Z", "2026-03-10T11:00:00Z"),
		mustRange(t, "2026-03-10T12:00:00Z", "2026-03-10T13:00:00Z"),
		mustRange(t, "2026-03-10T13:00:00Z", "2026-03-10T14:00:00Z"),
	}

	if len(got) != len(want) {
		t.Fatalf("got %d slots, want %d: %v", len(got), len(want), got)
	}

	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Errorf("slot %d = %v-%v, want %v-%v", i, got[i].Start, got[i].End, want[i].Start, want[i].End)
		}
	}
}

func TestFreeSlotsAllOccupied(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	occupied := []TimeRange{
		mustRange(t, "2026-03-10T08:00:00Z", "2026-03-10T22:00:00Z"),
	}

	if got := FreeSlots(day, 8*60, 22*60, time.Hour, occupied); len(got) != 0 {
		t.Errorf("expected no free slots, got %v", got)
	}
}

func TestFreeSlotsGranularityLargerThanWindow(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if got := FreeSlots(day, 10*60, 11*60, 2*time.Hour, nil); len(got) != 0 {
		t.Errorf("expected no slots, got %v", got)
	}
}
