package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"evlogger/internal/models"
)

// LogRepository handles persistence of vehicle state log entries.
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository returns repository.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Insert appends a log entry.
func (r *LogRepository) Insert(ctx context.Context, entry *models.LogEntry) error {
	const query = `
		INSERT INTO log (
			captured_at, unix_timestamp,
			vehicle_updated_at, unix_vehicle_update_timestamp,
			battery_percentage, accessory_battery_percentage, estimated_range_km,
			latitude, longitude, odometer, charging, engine_is_running,
			rough_charging_power_estimate_kw,
			ac_charge_limit_percent, dc_charge_limit_percent,
			target_climate_temperature, raw_api_data
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	raw := entry.Raw
	if len(raw) == 0 {
		raw = []byte("null")
	}
	_, err := r.db.ExecContext(ctx, query,
		entry.CapturedAt,
		entry.CapturedAt.Unix(),
		entry.VehicleUpdatedAt,
		entry.VehicleUpdatedAt.Unix(),
		entry.BatteryPct,
		entry.AuxBatteryPct,
		entry.RangeKm,
		entry.Latitude,
		entry.Longitude,
		entry.Odometer,
		entry.Charging,
		entry.EngineRunning,
		entry.ChargePowerKW,
		entry.ACChargeLimitPct,
		entry.DCChargeLimitPct,
		entry.TargetTempC,
		raw,
	)
	return err
}

// LastTimestamp returns the most recent persisted vehicle update timestamp.
// The second return is false when no log entry exists yet.
func (r *LogRepository) LastTimestamp(ctx context.Context) (time.Time, bool, error) {
	const query = `SELECT MAX(vehicle_updated_at) FROM log`
	var ts sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return ts.Time, true, nil
}

// LastOdometer returns the highest persisted odometer reading.
func (r *LogRepository) LastOdometer(ctx context.Context) (float64, bool, error) {
	const query = `SELECT MAX(odometer) FROM log`
	var odo sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query).Scan(&odo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !odo.Valid {
		return 0, false, nil
	}
	return odo.Float64, true, nil
}
