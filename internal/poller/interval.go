package poller

import (
	"time"

	"evlogger/internal/models"
)

// Intervals holds the four configured poll cadences.
type Intervals struct {
	EngineRunning time.Duration
	DCCharge      time.Duration
	ACCharge      time.Duration
	CarOff        time.Duration
}

// NextPollInterval maps the current vehicle state to the next poll interval.
// Priority: engine running (and not charging) beats charging beats car off.
// "Engine running" on an EV means the contact is set and the car is ready to
// drive; it is also reported in utility mode.
func NextPollInterval(engineRunning, charging bool, chargeType models.ChargeType, iv Intervals) time.Duration {
	switch {
	case engineRunning && !charging:
		return iv.EngineRunning
	case charging && chargeType == models.ChargeTypeDC:
		return iv.DCCharge
	case charging:
		// AC and UNKNOWN share the AC cadence
		return iv.ACCharge
	default:
		return iv.CarOff
	}
}
