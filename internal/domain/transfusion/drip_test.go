package transfusion

import (
	"testing"
	"time"
)

func TestPlannedDuration(t *testing.T) {
	// 500 ml at drop factor 15 and 30 drops/min: 7500 drops / 30 = 250 min.
	d, err := PlannedDuration(500, 15, 30)
	if err != nil {
		t.Fatalf("PlannedDuration failed: %v", err)
	}
	if d != 250*time.Minute {
		t.Errorf("Expected 250m, got %s", d)
	}
	if d.Milliseconds() != 15000000 {
		t.Errorf("Expected 15000000 ms, got %d", d.Milliseconds())
	}
}

func TestPlannedDurationFractionalMinutes(t *testing.T) {
	// 350 ml * 20 / 60 = 116.666 min.
	d, err := PlannedDuration(350, 20, 60)
	if err != nil {
		t.Fatalf("PlannedDuration failed: %v", err)
	}
	want := time.Duration(350.0 * 20.0 / 60.0 * float64(time.Minute))
	if d != want {
		t.Errorf("Expected %s, got %s", want, d)
	}
}

func TestPlannedDurationInvalidRate(t *testing.T) {
	if _, err := PlannedDuration(500, 15, 0); err != ErrInvalidRate {
		t.Errorf("Expected ErrInvalidRate, got %v", err)
	}
	if _, err := PlannedDuration(500, 15, -5); err != ErrInvalidRate {
		t.Errorf("Expected ErrInvalidRate, got %v", err)
	}
}

func TestProjectedEnd(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := ProjectedEnd(start, 250*time.Minute, 0)
	if !end.Equal(start.Add(250 * time.Minute)) {
		t.Errorf("Expected end 250m after start, got %s", end)
	}

	// A 15-minute pause shifts the projection by exactly 15 minutes.
	shifted := ProjectedEnd(start, 250*time.Minute, 15*time.Minute)
	if !shifted.Equal(end.Add(15 * time.Minute)) {
		t.Errorf("Expected shifted end, got %s", shifted)
	}
}

func TestProgressPercentClamped(t *testing.T) {
	planned := 250 * time.Minute

	if got := ProgressPercent(0, planned); got != 0 {
		t.Errorf("Expected 0%% at start, got %f", got)
	}
	if got := ProgressPercent(125*time.Minute, planned); got != 50 {
		t.Errorf("Expected 50%%, got %f", got)
	}
	if got := ProgressPercent(250*time.Minute, planned); got != 100 {
		t.Errorf("Expected 100%%, got %f", got)
	}
	if got := ProgressPercent(400*time.Minute, planned); got != 100 {
		t.Errorf("Expected clamp to 100%%, got %f", got)
	}
	if got := ProgressPercent(10*time.Minute, 0); got != 0 {
		t.Errorf("Expected 0%% for zero plan, got %f", got)
	}
}

func TestProgressPercentMonotonic(t *testing.T) {
	planned := 250 * time.Minute
	prev := -1.0
	for elapsed := time.Duration(0); elapsed <= 300*time.Minute; elapsed += 10 * time.Minute {
		pct := ProgressPercent(elapsed, planned)
		if pct < prev {
			t.Fatalf("Progress decreased from %f to %f at %s", prev, pct, elapsed)
		}
		prev = pct
	}
}
