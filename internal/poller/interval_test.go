package poller

import (
	"testing"
	"time"

	"evlogger/internal/models"
)

var testIntervals = Intervals{
	EngineRunning: 10 * time.Minute,
	DCCharge:      30 * time.Minute,
	ACCharge:      30 * time.Minute,
	CarOff:        4 * time.Hour,
}

func TestNextPollIntervalAllStates(t *testing.T) {
	cases := []struct {
		name          string
		engineRunning bool
		charging      bool
		chargeType    models.ChargeType
		expected      time.Duration
	}{
		{"engine running, not charging", true, false, models.ChargeTypeUnknown, testIntervals.EngineRunning},
		{"charging dc", false, true, models.ChargeTypeDC, testIntervals.DCCharge},
		{"charging ac", false, true, models.ChargeTypeAC, testIntervals.ACCharge},
		{"charging unknown type", false, true, models.ChargeTypeUnknown, testIntervals.ACCharge},
		{"car off", false, false, models.ChargeTypeUnknown, testIntervals.CarOff},
		{"car off with stale dc type", false, false, models.ChargeTypeDC, testIntervals.CarOff},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextPollInterval(tc.engineRunning, tc.charging, tc.chargeType, testIntervals)
			if got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestNextPollIntervalPriority(t *testing.T) {
	// engine running and charging at once: charging wins because the
	// engine branch requires not-charging
	got := NextPollInterval(true, true, models.ChargeTypeDC, testIntervals)
	if got != testIntervals.DCCharge {
		t.Fatalf("expected charging interval %s, got %s", testIntervals.DCCharge, got)
	}

	iv := Intervals{
		EngineRunning: time.Minute,
		DCCharge:      2 * time.Minute,
		ACCharge:      3 * time.Minute,
		CarOff:        4 * time.Minute,
	}
	seen := make(map[time.Duration]bool)
	for _, engine := range []bool{true, false} {
		for _, charging := range []bool{true, false} {
			for _, ct := range []models.ChargeType{models.ChargeTypeDC, models.ChargeTypeAC, models.ChargeTypeUnknown} {
				d := NextPollInterval(engine, charging, ct, iv)
				if d != iv.EngineRunning && d != iv.DCCharge && d != iv.ACCharge && d != iv.CarOff {
					t.Fatalf("unexpected interval %s for engine=%v charging=%v type=%s", d, engine, charging, ct)
				}
				seen[d] = true
			}
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected all four intervals reachable, got %d", len(seen))
	}
}
