package transfusion

import "time"

// Drip arithmetic for an intravenous infusion. All functions are pure.
//
// The plan for an episode is fixed at start: a pouch of pouchVolumeMl is
// delivered at dropRatePerMinute through an instrument giving dropFactor
// drops per ml. Paused intervals stop the infusion clock, so cumulative
// pause time shifts the projected end forward without changing the planned
// active duration.

// PlannedDuration returns the planned active infusion time.
// Total drops = volume * dropFactor; minutes = drops / rate.
// The service enforces the 20-100 rate bound at the boundary; a
// non-positive rate here still fails with ErrInvalidRate.
func PlannedDuration(pouchVolumeMl, dropFactor, dropRatePerMinute int) (time.Duration, error) {
	if dropRatePerMinute <= 0 {
		return 0, ErrInvalidRate
	}
	totalDrops := float64(pouchVolumeMl) * float64(dropFactor)
	minutes := totalDrops / float64(dropRatePerMinute)
	return time.Duration(minutes * float64(time.Minute)), nil
}

// ProjectedEnd returns the expected completion time: start plus the planned
// active duration plus all time spent paused so far.
func ProjectedEnd(start time.Time, planned time.Duration, cumulativePause time.Duration) time.Time {
	return start.Add(planned).Add(cumulativePause)
}

// ProgressPercent returns completion as a percentage of the planned active
// duration, clamped to [0, 100]. elapsedActive must exclude paused
// intervals; values past the plan report 100, never more.
func ProgressPercent(elapsedActive, planned time.Duration) float64 {
	if planned <= 0 || elapsedActive <= 0 {
		return 0
	}
	pct := 100 * float64(elapsedActive) / float64(planned)
	if pct > 100 {
		return 100
	}
	return pct
}
