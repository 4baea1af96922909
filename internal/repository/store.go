package repository

import (
	"context"
	"database/sql"
	"time"

	"evlogger/internal/models"
)

// Store aggregates the per-table repositories behind the single persistence
// contract the poller depends on.
type Store struct {
	logs   *LogRepository
	stats  *StatsRepository
	trips  *TripRepository
	errors *ErrorRepository
}

// NewStore builds the aggregate store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		logs:   NewLogRepository(db),
		stats:  NewStatsRepository(db),
		trips:  NewTripRepository(db),
		errors: NewErrorRepository(db),
	}
}

// LastLogTimestamp returns the newest persisted vehicle update timestamp.
func (s *Store) LastLogTimestamp(ctx context.Context) (time.Time, bool, error) {
	return s.logs.LastTimestamp(ctx)
}

// LastLogOdometer returns the highest persisted odometer reading.
func (s *Store) LastLogOdometer(ctx context.Context) (float64, bool, error) {
	return s.logs.LastOdometer(ctx)
}

// MostRecentTripTimestamp returns the newest persisted trip timestamp.
func (s *Store) MostRecentTripTimestamp(ctx context.Context) (time.Time, bool, error) {
	return s.trips.MostRecentTimestamp(ctx)
}

// SavedStatDates returns persisted daily stat dates keyed by YYYY-MM-DD.
func (s *Store) SavedStatDates(ctx context.Context) (map[string]bool, error) {
	return s.stats.SavedDates(ctx)
}

// InsertLog appends a log entry.
func (s *Store) InsertLog(ctx context.Context, entry *models.LogEntry) error {
	return s.logs.Insert(ctx, entry)
}

// InsertDailyStat writes a daily stat, ignoring duplicates.
func (s *Store) InsertDailyStat(ctx context.Context, stat *models.DailyStat) error {
	return s.stats.Insert(ctx, stat)
}

// InsertTripIfAbsent writes a trip unless its timestamp already exists.
func (s *Store) InsertTripIfAbsent(ctx context.Context, trip *models.Trip) (bool, error) {
	return s.trips.InsertIfAbsent(ctx, trip)
}

// InsertErrorRecord appends an audit record.
func (s *Store) InsertErrorRecord(ctx context.Context, record *models.ErrorRecord) error {
	return s.errors.Insert(ctx, record)
}
