package repository

import (
	"context"
	"database/sql"

	"evlogger/internal/models"
)

// StatsRepository handles the per-day aggregates table.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository returns repository.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Insert writes one daily stat. Persisted days are immutable: conflicts on
// the date key are ignored, never updated.
func (r *StatsRepository) Insert(ctx context.Context, stat *models.DailyStat) error {
	const query = `
		INSERT INTO stats_per_day (
			date, unix_timestamp,
			total_consumed_kwh, engine_consumption_kwh, climate_consumption_kwh,
			onboard_electronics_consumption_kwh, battery_care_consumption_kwh,
			regenerated_energy_kwh, distance,
			average_consumption_kwh, average_consumption_regen_deducted_kwh
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (date) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		stat.Date,
		stat.UnixTimestamp,
		stat.TotalKWh,
		stat.EngineKWh,
		stat.ClimateKWh,
		stat.ElectronicsKW,
		stat.BatteryCareKW,
		stat.RegenKWh,
		stat.DistanceKm,
		stat.AvgKWh,
		stat.AvgNetKWh,
	)
	return err
}

// SavedDates returns the set of calendar dates already persisted,
// keyed by YYYY-MM-DD string.
func (r *StatsRepository) SavedDates(ctx context.Context) (map[string]bool, error) {
	const query = `SELECT to_char(date, 'YYYY-MM-DD') FROM stats_per_day`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make(map[string]bool)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates[date] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}
