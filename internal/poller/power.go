package poller

import (
	"math"

	"evlogger/internal/models"
)

// PowerEstimate is the output of the charging power estimator.
type PowerEstimate struct {
	Kilowatts  float64
	ChargeType models.ChargeType
}

// dcTaperStep caps DC charging power above a battery percentage threshold,
// emulating the pack's charge curve. Steps are ordered high SOC first and
// only ever lower the estimate.
type dcTaperStep struct {
	abovePct int
	maxKW    float64
}

var dcTaper = []dcTaperStep{
	{95, 5},
	{90, 10},
	{80, 20},
	{75, 35},
	{55, 55},
	{40, 70},
	{27, 77},
}

// EstimateChargingPower roughly estimates the instantaneous charging power
// from the SOC, the charge limits and the vendor's estimated time to full.
// capacityKWh is the pack's total energy including charger losses.
//
// The vendor's estimated charge duration accounts for charge limits while
// the naive kWh-remaining formula does not, so the raw value overshoots on
// AC. A raw estimate above the onboard charger's ceiling combined with a
// wide gap to the AC limit is taken as DC charging and recomputed against
// the DC limit.
func EstimateChargingPower(snap *models.VehicleSnapshot, capacityKWh float64) PowerEstimate {
	if !snap.Charging {
		return PowerEstimate{Kilowatts: 0, ChargeType: models.ChargeTypeUnknown}
	}
	if snap.EstChargeMinutes <= 0 {
		return PowerEstimate{Kilowatts: 0, ChargeType: models.ChargeTypeUnknown}
	}

	hoursRemaining := float64(snap.EstChargeMinutes) / 60
	kwhRemaining := capacityKWh * float64(100-snap.BatteryPct) / 100
	power := kwhRemaining / hoursRemaining

	chargeType := models.ChargeTypeAC
	if power > 8 && snap.ACChargeLimitPct-snap.BatteryPct > 15 {
		chargeType = models.ChargeTypeDC
		kwhRemaining = capacityKWh * float64(snap.DCChargeLimitPct-snap.BatteryPct) / 100
		power = kwhRemaining / hoursRemaining

		for _, step := range dcTaper {
			if snap.BatteryPct > step.abovePct {
				power = math.Min(step.maxKW, power)
				break
			}
		}
	}

	if power < 0 {
		power = 0
	}
	return PowerEstimate{
		Kilowatts:  math.Round(power*10) / 10,
		ChargeType: chargeType,
	}
}
