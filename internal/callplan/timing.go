package callplan

import (
	"fmt"
	"time"
)

// TimingStatus compares elapsed call time to a stage's recommended window.
type TimingStatus string

const (
	TimingNotStarted   TimingStatus = "not_started"
	TimingOnTime       TimingStatus = "on_time"
	TimingSlightlyLate TimingStatus = "slightly_late"
	TimingVeryLate     TimingStatus = "very_late"
)

// LateGrace is how far past a stage's end the call may run before it counts as very late.
const LateGrace = 120 * time.Second

// Timing returns the status and a short human readable message for stage at elapsed.
func Timing(stage Stage, elapsed time.Duration) (TimingStatus, string) {
	start, end := stage.Start(), stage.End()
	switch {
	case elapsed < start:
		mins := int((start - elapsed).Minutes())
		return TimingNotStarted, fmt.Sprintf("Starts in %d min", mins)
	case elapsed <= end:
		return TimingOnTime, "On track"
	case elapsed <= end+LateGrace:
		return TimingSlightlyLate, "Slightly behind"
	default:
		mins := int((elapsed - end).Minutes())
		return TimingVeryLate, fmt.Sprintf("%d min behind", mins)
	}
}
