package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"evlogger/internal/models"
)

// TripRepository handles the trips table.
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository returns repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

// InsertIfAbsent writes a trip unless one with the same absolute timestamp
// already exists. Returns true when a row was inserted.
func (r *TripRepository) InsertIfAbsent(ctx context.Context, trip *models.Trip) (bool, error) {
	const query = `
		INSERT INTO trips (
			unix_timestamp, date,
			driving_time_minutes, idle_time_minutes,
			distance_km, avg_speed_kmh, max_speed_kmh
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (unix_timestamp) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		trip.Timestamp.Unix(),
		trip.Timestamp,
		trip.DriveMinutes,
		trip.IdleMinutes,
		trip.DistanceKm,
		trip.AvgSpeedKmh,
		trip.MaxSpeedKmh,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MostRecentTimestamp returns the newest persisted trip timestamp.
func (r *TripRepository) MostRecentTimestamp(ctx context.Context) (time.Time, bool, error) {
	const query = `SELECT MAX(unix_timestamp) FROM trips`
	var unix sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query).Scan(&unix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	if !unix.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(unix.Int64, 0), true, nil
}
