package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"evlogger/internal/models"
	"evlogger/internal/redisstore"
	"evlogger/internal/vehicle"
)

// ErrClockAnomaly is returned when the vendor update timestamp is ahead of
// the local clock. This is a clock or timezone defect and is never retried
// automatically.
var ErrClockAnomaly = errors.New("poller: negative delta between now and vehicle update")

// Store is the persistence contract the orchestrator depends on.
type Store interface {
	LastLogTimestamp(ctx context.Context) (time.Time, bool, error)
	LastLogOdometer(ctx context.Context) (float64, bool, error)
	MostRecentTripTimestamp(ctx context.Context) (time.Time, bool, error)
	SavedStatDates(ctx context.Context) (map[string]bool, error)
	InsertLog(ctx context.Context, entry *models.LogEntry) error
	InsertDailyStat(ctx context.Context, stat *models.DailyStat) error
	InsertTripIfAbsent(ctx context.Context, trip *models.Trip) (bool, error)
	InsertErrorRecord(ctx context.Context, record *models.ErrorRecord) error
}

// SnapshotCache publishes the latest snapshot for cheap reads. Optional.
type SnapshotCache interface {
	Save(ctx context.Context, cached redisstore.CachedSnapshot) error
	Get(ctx context.Context) (*redisstore.CachedSnapshot, error)
}

// Broadcaster pushes persisted log entries to live listeners. Optional.
type Broadcaster interface {
	BroadcastLog(entry *models.LogEntry)
}

// Config holds the orchestrator's tunables.
type Config struct {
	VehicleID            string
	Intervals            Intervals
	BatteryCapacityKWh   float64
	MinAuxBatteryPercent int
}

// Orchestrator runs one refresh cycle at a time against the vendor API and
// the persistence store. A mutex serializes scheduled cycles against
// HTTP-triggered operations; the snapshot and charge type for a cycle live
// only inside that cycle.
type Orchestrator struct {
	api       vehicle.API
	store     Store
	cache     SnapshotCache
	broadcast Broadcaster
	logger    *zap.Logger
	cfg       Config

	mu       sync.Mutex
	advisory atomic.Int64
	now      func() time.Time
}

// New builds the orchestrator. cache and broadcast may be nil.
func New(api vehicle.API, store Store, cache SnapshotCache, broadcast Broadcaster, cfg Config, logger *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		api:       api,
		store:     store,
		cache:     cache,
		broadcast: broadcast,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
	o.advisory.Store(int64(cfg.Intervals.CarOff))
	return o
}

// AdvisoryInterval is the next-poll interval last computed by the interval
// policy. Advisory only: the scheduler re-arms with it but is free to clamp.
func (o *Orchestrator) AdvisoryInterval() time.Duration {
	return time.Duration(o.advisory.Load())
}

// cycle owns the vehicle snapshot and derived state for one run.
type cycle struct {
	snap     *models.VehicleSnapshot
	power    PowerEstimate
	interval time.Duration
}

// Run executes one full refresh cycle: token, cached state, estimation,
// odometer delta, newer-data persistence and the staleness-gated force
// refresh. It returns nil on a completed cycle (with zero or more writes),
// the classified failure on an aborted cycle, or ErrClockAnomaly.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.logger.Info("refreshing token")
	if err := o.api.CheckAndRefreshToken(ctx); err != nil {
		o.classifyFailure(ctx, "refresh token", err)
		return err
	}

	snap, err := o.api.CachedState(ctx, o.cfg.VehicleID)
	if err != nil {
		o.classifyFailure(ctx, "fetch cached state", err)
		return err
	}

	cyc := &cycle{snap: snap}
	o.estimate(ctx, cyc)

	// a vehicle update from the future is a clock or timezone defect;
	// fail before anything is persisted
	delta := o.now().Sub(snap.LastUpdate())
	if delta < 0 {
		o.recordAnomaly(ctx, "CLOCK_ANOMALY",
			fmt.Sprintf("negative delta %s, vehicle update %s ahead of local clock",
				delta, snap.LastUpdate()))
		return fmt.Errorf("%w: %s", ErrClockAnomaly, delta)
	}

	lastOdo, hasOdo, err := o.store.LastLogOdometer(ctx)
	if err != nil {
		return fmt.Errorf("read last odometer: %w", err)
	}

	if !hasOdo {
		o.logger.Info("no prior log entry, bootstrapping first entry")
		if err := o.saveLog(ctx, cyc); err != nil {
			return err
		}
	}

	if hasOdo && snap.Odometer > lastOdo {
		// the car drove since the last entry: the vendor holds daily stats
		// and trips we have not persisted yet
		o.logger.Info("odometer increased, pulling driving info",
			zap.Float64("previous", lastOdo), zap.Float64("current", snap.Odometer))

		stats, err := o.api.DrivingInfo(ctx, o.cfg.VehicleID)
		if err != nil {
			o.classifyFailure(ctx, "fetch driving info", err)
			return err
		}
		if err := o.persistDailyStats(ctx, stats); err != nil {
			return err
		}
		o.estimate(ctx, cyc)
		if len(stats) > 0 {
			if err := o.processTrips(ctx, stats); err != nil {
				return err
			}
		}
	}

	lastTS, hasTS, err := o.store.LastLogTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("read last log timestamp: %w", err)
	}
	if hasTS && snap.LastUpdate().After(lastTS) {
		o.logger.Info("vendor data newer than last saved entry, saving log")
		if err := o.saveLog(ctx, cyc); err != nil {
			return err
		}
	}

	o.logger.Info("delta between now and last vehicle update",
		zap.Duration("delta", delta), zap.Duration("interval", cyc.interval))

	if delta > cyc.interval {
		return o.forceRefresh(ctx, cyc)
	}

	return nil
}

func (o *Orchestrator) forceRefresh(ctx context.Context, cyc *cycle) error {
	if o.auxBatteryLow(cyc.snap) {
		// waking the car drains the 12V battery; skip until it recovers
		o.logger.Warn("skipping force refresh, accessory battery below threshold",
			zap.Int("accessory_battery_percentage", cyc.snap.AuxBatteryPct),
			zap.Int("threshold", o.cfg.MinAuxBatteryPercent))
		return nil
	}

	o.logger.Info("performing force refresh")
	return o.forceRefreshUnconditional(ctx, cyc)
}

// estimate recomputes charging power, charge type and the advisory interval
// from the cycle's snapshot, and publishes the snapshot to the cache.
func (o *Orchestrator) estimate(ctx context.Context, cyc *cycle) {
	cyc.power = EstimateChargingPower(cyc.snap, o.cfg.BatteryCapacityKWh)
	cyc.interval = NextPollInterval(cyc.snap.EngineRunning, cyc.snap.Charging, cyc.power.ChargeType, o.cfg.Intervals)
	o.advisory.Store(int64(cyc.interval))

	if cyc.power.Kilowatts > 0 {
		o.logger.Info("estimated charging power",
			zap.Float64("kilowatts", cyc.power.Kilowatts),
			zap.String("charge_type", string(cyc.power.ChargeType)))
	}

	if o.cache != nil {
		cached := redisstore.CachedSnapshot{
			Snapshot:      *cyc.snap,
			ChargePowerKW: cyc.power.Kilowatts,
			ChargeType:    cyc.power.ChargeType,
			CachedAt:      o.now(),
		}
		if err := o.cache.Save(ctx, cached); err != nil {
			o.logger.Warn("failed to cache snapshot", zap.Error(err))
		}
	}
}

func (o *Orchestrator) saveLog(ctx context.Context, cyc *cycle) error {
	entry := &models.LogEntry{
		CapturedAt:       o.now(),
		VehicleUpdatedAt: cyc.snap.LastUpdate(),
		BatteryPct:       cyc.snap.BatteryPct,
		AuxBatteryPct:    cyc.snap.AuxBatteryPct,
		RangeKm:          cyc.snap.RangeKm,
		Latitude:         cyc.snap.Latitude,
		Longitude:        cyc.snap.Longitude,
		Odometer:         cyc.snap.Odometer,
		Charging:         cyc.snap.Charging,
		EngineRunning:    cyc.snap.EngineRunning,
		ChargePowerKW:    cyc.power.Kilowatts,
		ACChargeLimitPct: cyc.snap.ACChargeLimitPct,
		DCChargeLimitPct: cyc.snap.DCChargeLimitPct,
		TargetTempC:      cyc.snap.TargetTempC,
		Raw:              cyc.snap.Raw,
	}
	if err := o.store.InsertLog(ctx, entry); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	if cyc.snap.Charging && cyc.snap.EstChargeMinutes > 0 {
		end := o.now().Add(time.Duration(cyc.snap.EstChargeMinutes) * time.Minute)
		o.logger.Info("estimated charge end time", zap.Time("end", end))
	}

	if o.broadcast != nil {
		o.broadcast.BroadcastLog(entry)
	}
	return nil
}

func (o *Orchestrator) persistDailyStats(ctx context.Context, stats []models.DailyDrivingStat) error {
	if len(stats) == 0 {
		return nil
	}
	saved, err := o.store.SavedStatDates(ctx)
	if err != nil {
		return fmt.Errorf("read saved stat dates: %w", err)
	}
	for _, stat := range newDailyStats(stats, saved, o.now()) {
		if err := o.store.InsertDailyStat(ctx, stat); err != nil {
			return fmt.Errorf("insert daily stat %s: %w", stat.Date, err)
		}
		o.logger.Info("saved daily stats", zap.String("date", stat.Date))
	}
	return nil
}

// processTrips walks every month covered by the daily stats feed and
// persists trips not yet stored. Trip queries are expensive against the
// daily rate limit, so days older than the newest persisted trip are
// skipped without a day query. A rate-limited failure aborts the cycle;
// other failures only end trip processing.
func (o *Orchestrator) processTrips(ctx context.Context, stats []models.DailyDrivingStat) error {
	today := o.now().Format("20060102")

	for _, yyyymm := range monthKeys(stats) {
		monthInfo, err := o.api.MonthTripInfo(ctx, o.cfg.VehicleID, yyyymm)
		if err != nil {
			if o.classifyFailure(ctx, "fetch month trip info", err).Halt {
				return err
			}
			return nil
		}
		if monthInfo == nil {
			continue
		}

		for _, day := range monthInfo.Days {
			if day.YYYYMMDD == today {
				continue
			}
			dayDate, err := time.ParseInLocation("20060102", day.YYYYMMDD, time.Local)
			if err != nil {
				o.logger.Warn("malformed day in month trip info", zap.String("day", day.YYYYMMDD))
				continue
			}

			lastTrip, hasTrip, err := o.store.MostRecentTripTimestamp(ctx)
			if err != nil {
				return fmt.Errorf("read most recent trip: %w", err)
			}
			if hasTrip {
				// a day query costs rate-limit budget; days fully behind the
				// newest persisted trip have nothing new. The trip's own day
				// is still re-checked, duplicates are filtered on insert.
				lastDay := time.Date(lastTrip.Year(), lastTrip.Month(), lastTrip.Day(), 0, 0, 0, 0, lastTrip.Location())
				if dayDate.Before(lastDay) {
					continue
				}
			}

			dayInfo, err := o.api.DayTripInfo(ctx, o.cfg.VehicleID, day.YYYYMMDD)
			if err != nil {
				if o.classifyFailure(ctx, "fetch day trip info", err).Halt {
					return err
				}
				return nil
			}
			if dayInfo == nil {
				continue
			}

			for _, trip := range tripRows(dayDate, dayInfo.Trips) {
				inserted, err := o.store.InsertTripIfAbsent(ctx, trip)
				if err != nil {
					return fmt.Errorf("insert trip: %w", err)
				}
				if inserted {
					o.logger.Info("saved new trip", zap.Time("timestamp", trip.Timestamp))
				}
			}
		}
	}
	return nil
}

func (o *Orchestrator) auxBatteryLow(snap *models.VehicleSnapshot) bool {
	if o.cfg.MinAuxBatteryPercent <= 0 || snap.AuxBatteryPct <= 0 {
		return false
	}
	return snap.AuxBatteryPct < o.cfg.MinAuxBatteryPercent
}
