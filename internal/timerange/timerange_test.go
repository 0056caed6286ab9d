package timerange

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func TestNew_Validation(t *testing.T) {
	if _, err := New(base, base.Add(time.Hour)); err != nil {
		t.Fatalf("expected valid range, got %v", err)
	}
	if _, err := New(base, base); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for empty range, got %v", err)
	}
	if _, err := New(base.Add(time.Hour), base); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for inverted range, got %v", err)
	}
	if _, err := New(time.Time{}, base); err != ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange for zero start, got %v", err)
	}
}

func TestCovers_HalfOpen(t *testing.T) {
	r := TimeRange{Start: base, End: base.Add(time.Hour)}

	if !r.Covers(base) {
		t.Fatalf("start must be covered")
	}
	if !r.Covers(base.Add(59 * time.Minute)) {
		t.Fatalf("interior point must be covered")
	}
	if r.Covers(base.Add(time.Hour)) {
		t.Fatalf("end must not be covered (half-open)")
	}
	if r.Covers(base.Add(-time.Nanosecond)) {
		t.Fatalf("point before start must not be covered")
	}
}

func TestOverlaps(t *testing.T) {
	a := TimeRange{Start: base, End: base.Add(time.Hour)}

	cases := []struct {
		name string
		b    TimeRange
		want bool
	}{
		{"identical", a, true},
		{"contained", TimeRange{base.Add(10 * time.Minute), base.Add(20 * time.Minute)}, true},
		{"overlaps start", TimeRange{base.Add(-30 * time.Minute), base.Add(30 * time.Minute)}, true},
		{"overlaps end", TimeRange{base.Add(30 * time.Minute), base.Add(90 * time.Minute)}, true},
		{"touching end", TimeRange{base.Add(time.Hour), base.Add(2 * time.Hour)}, false},
		{"touching start", TimeRange{base.Add(-time.Hour), base}, false},
		{"disjoint", TimeRange{base.Add(2 * time.Hour), base.Add(3 * time.Hour)}, false},
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%s: Overlaps=%v, want %v", tc.name, got, tc.want)
		}
		if got := tc.b.Overlaps(a); got != tc.want {
			t.Errorf("%s (reversed): Overlaps=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestLiveWindow(t *testing.T) {
	r := Live(base, time.Hour)
	if !r.Start.Equal(base.Add(-LiveBeforeEvent)) {
		t.Fatalf("live start = %v, want %v", r.Start, base.Add(-LiveBeforeEvent))
	}
	if !r.End.Equal(base.Add(time.Hour)) {
		t.Fatalf("live end = %v, want %v", r.End, base.Add(time.Hour))
	}
}

func TestLicenseWindow(t *testing.T) {
	r := License(base, time.Hour)
	if !r.Start.Equal(base.Add(-BookBeforeEvent)) {
		t.Fatalf("license start = %v, want %v", r.Start, base.Add(-BookBeforeEvent))
	}
	if !r.End.Equal(base.Add(time.Hour + BookAfterEvent)) {
		t.Fatalf("license end = %v, want %v", r.End, base.Add(time.Hour+BookAfterEvent))
	}

	// The license window always contains the live window.
	live := Live(base, time.Hour)
	if !r.Covers(live.Start) || r.End.Before(live.End) {
		t.Fatalf("license window %v..%v must contain live window %v..%v",
			r.Start, r.End, live.Start, live.End)
	}
}

func TestDuration(t *testing.T) {
	r := TimeRange{Start: base, End: base.Add(90 * time.Minute)}
	if r.Duration() != 90*time.Minute {
		t.Fatalf("duration = %v", r.Duration())
	}
	if !(TimeRange{}).IsZero() {
		t.Fatalf("zero value must report IsZero")
	}
}
