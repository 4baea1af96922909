package models

import (
	"encoding/json"
	"time"
)

// LogEntry is a persisted copy of a VehicleSnapshot plus derived values.
// Append-only; identified by its capture timestamp.
type LogEntry struct {
	CapturedAt       time.Time       `db:"captured_at" json:"captured_at"`
	VehicleUpdatedAt time.Time       `db:"vehicle_updated_at" json:"vehicle_updated_at"`
	BatteryPct       int             `db:"battery_percentage" json:"battery_percentage"`
	AuxBatteryPct    int             `db:"accessory_battery_percentage" json:"accessory_battery_percentage"`
	RangeKm          float64         `db:"estimated_range_km" json:"estimated_range_km"`
	Latitude         float64         `db:"latitude" json:"latitude"`
	Longitude        float64         `db:"longitude" json:"longitude"`
	Odometer         float64         `db:"odometer" json:"odometer"`
	Charging         bool            `db:"charging" json:"charging"`
	EngineRunning    bool            `db:"engine_is_running" json:"engine_is_running"`
	ChargePowerKW    float64         `db:"rough_charging_power_estimate_kw" json:"rough_charging_power_estimate_kw"`
	ACChargeLimitPct int             `db:"ac_charge_limit_percent" json:"ac_charge_limit_percent"`
	DCChargeLimitPct int             `db:"dc_charge_limit_percent" json:"dc_charge_limit_percent"`
	TargetTempC      float64         `db:"target_climate_temperature" json:"target_climate_temperature"`
	Raw              json.RawMessage `db:"raw_api_data" json:"-"`
}

// DailyStat is the persisted per-calendar-day aggregate. Energy values are
// in kilowatt-hours. A stat for the current day is never persisted.
type DailyStat struct {
	Date          string  `db:"date" json:"date"`
	UnixTimestamp int64   `db:"unix_timestamp" json:"unix_timestamp"`
	TotalKWh      float64 `db:"total_consumed_kwh" json:"total_consumed_kwh"`
	EngineKWh     float64 `db:"engine_consumption_kwh" json:"engine_consumption_kwh"`
	ClimateKWh    float64 `db:"climate_consumption_kwh" json:"climate_consumption_kwh"`
	ElectronicsKW float64 `db:"onboard_electronics_consumption_kwh" json:"onboard_electronics_consumption_kwh"`
	BatteryCareKW float64 `db:"battery_care_consumption_kwh" json:"battery_care_consumption_kwh"`
	RegenKWh      float64 `db:"regenerated_energy_kwh" json:"regenerated_energy_kwh"`
	DistanceKm    float64 `db:"distance" json:"distance"`
	AvgKWh        float64 `db:"average_consumption_kwh" json:"average_consumption_kwh"`
	AvgNetKWh     float64 `db:"average_consumption_regen_deducted_kwh" json:"average_consumption_regen_deducted_kwh"`
}

// Trip is one persisted drive segment, identified by its absolute timestamp.
type Trip struct {
	Timestamp    time.Time `db:"date" json:"timestamp"`
	DriveMinutes int       `db:"driving_time_minutes" json:"driving_time_minutes"`
	IdleMinutes  int       `db:"idle_time_minutes" json:"idle_time_minutes"`
	DistanceKm   int       `db:"distance_km" json:"distance_km"`
	AvgSpeedKmh  int       `db:"avg_speed_kmh" json:"avg_speed_kmh"`
	MaxSpeedKmh  int       `db:"max_speed_kmh" json:"max_speed_kmh"`
}

// ErrorRecord is an append-only audit entry for a classified failure.
type ErrorRecord struct {
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	Kind       string    `db:"kind" json:"kind"`
	Detail     string    `db:"detail" json:"detail"`
}
