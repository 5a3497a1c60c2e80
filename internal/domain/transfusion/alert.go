package transfusion

import (
	"fmt"
	"time"
)

// Alert types emitted by the deviation policy.
const (
	AlertTypeOverrun       = "OVERRUN"
	AlertTypeRateDeviation = "RATE_DEVIATION"
)

// DefaultAlertThresholdMinutes is the overrun grace period applied when a
// transfusion is started without an explicit threshold.
const DefaultAlertThresholdMinutes = 15

// rateDeviationTolerance is the fraction by which the implied drop rate may
// differ from the configured rate before a deviation is flagged.
const rateDeviationTolerance = 0.20

// Deviation classifies one way an infusion has strayed from plan.
type Deviation struct {
	Type    string
	Message string
}

// AlertPolicy evaluates whether an infusion deviates from its plan. It only
// classifies. Persisting an alert or stopping the transfusion is up to the
// caller.
type AlertPolicy struct{}

// Evaluate returns the deviations present given the elapsed active time,
// the planned duration, the overrun threshold, the configured drop rate and
// the drops administered so far. A zero threshold means the default.
func (AlertPolicy) Evaluate(elapsedActive, planned time.Duration, thresholdMinutes int, dropRatePerMinute, dropsAdministered int) []Deviation {
	if thresholdMinutes <= 0 {
		thresholdMinutes = DefaultAlertThresholdMinutes
	}

	var out []Deviation

	grace := time.Duration(thresholdMinutes) * time.Minute
	if elapsedActive > planned+grace {
		over := elapsedActive - planned
		out = append(out, Deviation{
			Type:    AlertTypeOverrun,
			Message: fmt.Sprintf("infusion running %s past planned duration (threshold %dm)", over.Round(time.Second), thresholdMinutes),
		})
	}

	if dropRatePerMinute > 0 && dropsAdministered > 0 && elapsedActive > 0 {
		implied := float64(dropsAdministered) / elapsedActive.Minutes()
		configured := float64(dropRatePerMinute)
		diff := implied - configured
		if diff < 0 {
			diff = -diff
		}
		if diff > configured*rateDeviationTolerance {
			out = append(out, Deviation{
				Type:    AlertTypeRateDeviation,
				Message: fmt.Sprintf("implied drop rate %.1f/min deviates from configured %d/min", implied, dropRatePerMinute),
			})
		}
	}

	return out
}
