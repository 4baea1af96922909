package vehicle

import (
	"context"

	"evlogger/internal/models"
)

// API is the contract with the vendor cloud. Implementations return a
// *Failure for every failed call so callers can branch on the kind.
type API interface {
	// CheckAndRefreshToken ensures a valid session token, logging in again
	// if needed.
	CheckAndRefreshToken(ctx context.Context) error
	// CachedState returns the vendor's last known vehicle state without
	// waking the car. Counts toward the daily rate limit.
	CachedState(ctx context.Context, vehicleID string) (*models.VehicleSnapshot, error)
	// ForceRefresh asks the car to push fresh telemetry to the vendor.
	ForceRefresh(ctx context.Context, vehicleID string) error
	// UpdateWithCachedState pulls the vendor's cached state back after a
	// refresh and returns the resulting snapshot.
	UpdateWithCachedState(ctx context.Context, vehicleID string) (*models.VehicleSnapshot, error)
	// DrivingInfo returns the per-day driving aggregates currently exposed
	// by the vendor.
	DrivingInfo(ctx context.Context, vehicleID string) ([]models.DailyDrivingStat, error)
	// MonthTripInfo returns the trip day list for a yyyymm month.
	MonthTripInfo(ctx context.Context, vehicleID, yyyymm string) (*models.MonthTripInfo, error)
	// DayTripInfo returns the trips for a yyyymmdd day, newest first.
	DayTripInfo(ctx context.Context, vehicleID, yyyymmdd string) (*models.DayTripInfo, error)
	// StartCharge and StopCharge send charge commands.
	StartCharge(ctx context.Context, vehicleID string) error
	StopCharge(ctx context.Context, vehicleID string) error
	// LastActionStatus reports the outcome of the most recent command.
	LastActionStatus(ctx context.Context, vehicleID string) (string, error)
}
