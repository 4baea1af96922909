package poller

import (
	"testing"

	"evlogger/internal/models"
)

const testCapacityKWh = 70

func TestEstimateNotCharging(t *testing.T) {
	snap := &models.VehicleSnapshot{BatteryPct: 50, Charging: false, EstChargeMinutes: 120}
	est := EstimateChargingPower(snap, testCapacityKWh)
	if est.Kilowatts != 0 {
		t.Fatalf("expected 0 kW, got %v", est.Kilowatts)
	}
	if est.ChargeType != models.ChargeTypeUnknown {
		t.Fatalf("expected UNKNOWN charge type, got %s", est.ChargeType)
	}
}

func TestEstimateZeroMinutesRemaining(t *testing.T) {
	snap := &models.VehicleSnapshot{BatteryPct: 50, Charging: true, EstChargeMinutes: 0}
	est := EstimateChargingPower(snap, testCapacityKWh)
	if est.Kilowatts != 0 {
		t.Fatalf("expected 0 kW with no estimated duration, got %v", est.Kilowatts)
	}
}

func TestEstimateACUncapped(t *testing.T) {
	// 90% SOC, 60 minutes remaining: 70*0.10/1h = 7 kW, below the DC
	// threshold, so AC with the raw formula value
	snap := &models.VehicleSnapshot{
		BatteryPct:       90,
		Charging:         true,
		EstChargeMinutes: 60,
		ACChargeLimitPct: 100,
		DCChargeLimitPct: 100,
	}
	est := EstimateChargingPower(snap, testCapacityKWh)
	if est.ChargeType != models.ChargeTypeAC {
		t.Fatalf("expected AC classification, got %s", est.ChargeType)
	}
	if est.Kilowatts != 7 {
		t.Fatalf("expected 7 kW, got %v", est.Kilowatts)
	}
}

func TestEstimateDCTaperNearFull(t *testing.T) {
	// raw formula yields far more than 5 kW but at 96% SOC the taper
	// caps DC charging
	// ac limit above 100 is not plausible vendor data but exercises the
	// taper at a SOC the classifier gate would otherwise exclude
	snap := &models.VehicleSnapshot{
		BatteryPct:       96,
		Charging:         true,
		EstChargeMinutes: 2,
		ACChargeLimitPct: 112,
		DCChargeLimitPct: 100,
	}
	est := EstimateChargingPower(snap, testCapacityKWh)
	if est.ChargeType != models.ChargeTypeDC {
		t.Fatalf("expected DC classification, got %s", est.ChargeType)
	}
	if est.Kilowatts > 5 {
		t.Fatalf("expected taper cap at 5 kW, got %v", est.Kilowatts)
	}
}

func TestEstimateDCClassification(t *testing.T) {
	// 40% SOC, 30 minutes to the 80% DC limit: raw power is high and the
	// AC limit gap is wide, so classify DC and recompute against the limit
	snap := &models.VehicleSnapshot{
		BatteryPct:       40,
		Charging:         true,
		EstChargeMinutes: 30,
		ACChargeLimitPct: 100,
		DCChargeLimitPct: 80,
	}
	est := EstimateChargingPower(snap, testCapacityKWh)
	if est.ChargeType != models.ChargeTypeDC {
		t.Fatalf("expected DC classification, got %s", est.ChargeType)
	}
	// 70 * 0.40 / 0.5h = 56 kW, below the 70 kW cap for the >40% band
	if est.Kilowatts != 56 {
		t.Fatalf("expected 56 kW, got %v", est.Kilowatts)
	}
}

func TestEstimateNeverNegative(t *testing.T) {
	// battery above the DC limit would make the recomputed remaining
	// energy negative
	snap := &models.VehicleSnapshot{
		BatteryPct:       30,
		Charging:         true,
		EstChargeMinutes: 10,
		ACChargeLimitPct: 100,
		DCChargeLimitPct: 20,
	}
	est := EstimateChargingPower(snap, testCapacityKWh)
	if est.Kilowatts < 0 {
		t.Fatalf("estimate must never be negative, got %v", est.Kilowatts)
	}
}
