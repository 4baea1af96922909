package models

import (
	"encoding/json"
	"time"
)

// ChargeType classifies an active charging session.
type ChargeType string

// Charge type values.
const (
	ChargeTypeDC      ChargeType = "DC"
	ChargeTypeAC      ChargeType = "AC"
	ChargeTypeUnknown ChargeType = "UNKNOWN"
)

// VehicleSnapshot is the in-memory vehicle state for one refresh cycle.
type VehicleSnapshot struct {
	BatteryPct        int             `json:"battery_percentage"`
	AuxBatteryPct     int             `json:"accessory_battery_percentage"`
	RangeKm           float64         `json:"estimated_range_km"`
	Odometer          float64         `json:"odometer"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	Charging          bool            `json:"charging"`
	EngineRunning     bool            `json:"engine_is_running"`
	ACChargeLimitPct  int             `json:"ac_charge_limit_percent"`
	DCChargeLimitPct  int             `json:"dc_charge_limit_percent"`
	TargetTempC       float64         `json:"target_climate_temperature"`
	EstChargeMinutes  int             `json:"estimated_charge_minutes"`
	StateUpdatedAt    time.Time       `json:"state_updated_at"`
	LocationUpdatedAt time.Time       `json:"location_updated_at"`
	Raw               json.RawMessage `json:"-"`
}

// LastUpdate is the single definition of "most recent vendor update":
// the later of the state and location timestamps.
func (s *VehicleSnapshot) LastUpdate() time.Time {
	if s.LocationUpdatedAt.After(s.StateUpdatedAt) {
		return s.LocationUpdatedAt
	}
	return s.StateUpdatedAt
}

// DailyDrivingStat is one raw per-day aggregate from the driving info feed.
// Energy values are in watt-hours as delivered by the vendor.
type DailyDrivingStat struct {
	Date            time.Time `json:"date"`
	TotalConsumedWh float64   `json:"total_consumed_wh"`
	EngineWh        float64   `json:"engine_wh"`
	ClimateWh       float64   `json:"climate_wh"`
	ElectronicsWh   float64   `json:"electronics_wh"`
	BatteryCareWh   float64   `json:"battery_care_wh"`
	RegeneratedWh   float64   `json:"regenerated_wh"`
	DistanceKm      float64   `json:"distance_km"`
}

// MonthTripInfo lists the days with recorded trips in one month.
type MonthTripInfo struct {
	YYYYMM string    `json:"yyyymm"`
	Days   []TripDay `json:"days"`
}

// TripDay is one day entry of a month trip summary.
type TripDay struct {
	YYYYMMDD string `json:"yyyymmdd"`
}

// DayTripInfo holds the trips recorded on one day, newest first as
// delivered by the vendor.
type DayTripInfo struct {
	YYYYMMDD string       `json:"yyyymmdd"`
	Trips    []TripDetail `json:"trips"`
}

// TripDetail is one drive segment as delivered by the vendor. HHMMSS is the
// trip start expressed as an offset from the day's reference date.
type TripDetail struct {
	HHMMSS       string `json:"hhmmss"`
	DriveMinutes int    `json:"drive_minutes"`
	IdleMinutes  int    `json:"idle_minutes"`
	DistanceKm   int    `json:"distance_km"`
	AvgSpeedKmh  int    `json:"avg_speed_kmh"`
	MaxSpeedKmh  int    `json:"max_speed_kmh"`
}
