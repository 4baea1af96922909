package poller

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"evlogger/internal/models"
)

// ErrInvalidChargeAction is returned for charge actions other than start/stop.
var ErrInvalidChargeAction = errors.New("poller: charge action must be start or stop")

// StatusResult is the read-through view served by the HTTP surface.
type StatusResult struct {
	BatteryPct       int               `json:"battery_percentage"`
	AuxBatteryPct    int               `json:"accessory_battery_percentage"`
	RangeKm          float64           `json:"estimated_range_km"`
	Odometer         float64           `json:"odometer"`
	Charging         bool              `json:"charging"`
	EngineRunning    bool              `json:"engine_is_running"`
	ChargePowerKW    float64           `json:"rough_charging_power_estimate_kw"`
	ChargeType       models.ChargeType `json:"charge_type"`
	ACChargeLimitPct int               `json:"ac_charge_limit_percent"`
	DCChargeLimitPct int               `json:"dc_charge_limit_percent"`
	VehicleUpdatedAt time.Time         `json:"last_vehicle_update_timestamp"`
}

// Status fetches the vendor's cached state, persists a log entry when it is
// newer than the last saved one, and returns the current view.
func (o *Orchestrator) Status(ctx context.Context) (*StatusResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	cyc, err := o.readThrough(ctx)
	if err != nil {
		return nil, err
	}
	return statusFromCycle(cyc), nil
}

// Battery returns the battery percentage, serving from the snapshot cache
// when a fresh entry exists to preserve API budget.
func (o *Orchestrator) Battery(ctx context.Context) (int, error) {
	if o.cache != nil {
		cached, err := o.cache.Get(ctx)
		if err == nil && cached != nil {
			return cached.Snapshot.BatteryPct, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			o.logger.Warn("snapshot cache read failed, falling back to api")
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	cyc, err := o.readThrough(ctx)
	if err != nil {
		return 0, err
	}
	return cyc.snap.BatteryPct, nil
}

// ForceRefreshNow performs an on-demand force refresh and persists the
// resulting state unconditionally.
func (o *Orchestrator) ForceRefreshNow(ctx context.Context) (*StatusResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.api.CheckAndRefreshToken(ctx); err != nil {
		o.classifyFailure(ctx, "refresh token", err)
		return nil, err
	}

	cyc := &cycle{}
	if err := o.forceRefreshUnconditional(ctx, cyc); err != nil {
		return nil, err
	}
	return statusFromCycle(cyc), nil
}

// SyncTrips pulls driving info and reconciles daily stats and trips on
// demand, regardless of the odometer delta.
func (o *Orchestrator) SyncTrips(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.api.CheckAndRefreshToken(ctx); err != nil {
		o.classifyFailure(ctx, "refresh token", err)
		return err
	}

	stats, err := o.api.DrivingInfo(ctx, o.cfg.VehicleID)
	if err != nil {
		o.classifyFailure(ctx, "fetch driving info", err)
		return err
	}
	if err := o.persistDailyStats(ctx, stats); err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}
	return o.processTrips(ctx, stats)
}

// chargeStatusWait is how long a synchronous charge command waits before
// reading back the action status. Each status read costs rate-limit budget,
// so there is no polling loop.
var chargeStatusWait = 5 * time.Second

// Charge sends a charge start/stop command. With wait set it reads back the
// vendor's last action status after a short delay.
func (o *Orchestrator) Charge(ctx context.Context, action string, wait bool) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.api.CheckAndRefreshToken(ctx); err != nil {
		o.classifyFailure(ctx, "refresh token", err)
		return "", err
	}

	switch action {
	case "start":
		err := o.api.StartCharge(ctx, o.cfg.VehicleID)
		if err != nil {
			o.classifyFailure(ctx, "start charge", err)
			return "", err
		}
	case "stop":
		err := o.api.StopCharge(ctx, o.cfg.VehicleID)
		if err != nil {
			o.classifyFailure(ctx, "stop charge", err)
			return "", err
		}
	default:
		return "", ErrInvalidChargeAction
	}

	if !wait {
		return "command_sent", nil
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(chargeStatusWait):
	}

	status, err := o.api.LastActionStatus(ctx, o.cfg.VehicleID)
	if err != nil {
		o.classifyFailure(ctx, "read action status", err)
		return "", err
	}
	return status, nil
}

// readThrough fetches cached state, runs estimation and persists a log
// entry when the vendor data is newer than the last saved one.
func (o *Orchestrator) readThrough(ctx context.Context) (*cycle, error) {
	if err := o.api.CheckAndRefreshToken(ctx); err != nil {
		o.classifyFailure(ctx, "refresh token", err)
		return nil, err
	}

	snap, err := o.api.UpdateWithCachedState(ctx, o.cfg.VehicleID)
	if err != nil {
		o.classifyFailure(ctx, "fetch cached state", err)
		return nil, err
	}

	cyc := &cycle{snap: snap}
	o.estimate(ctx, cyc)

	lastTS, hasTS, err := o.store.LastLogTimestamp(ctx)
	if err != nil {
		return nil, err
	}
	if !hasTS || snap.LastUpdate().After(lastTS) {
		if err := o.saveLog(ctx, cyc); err != nil {
			return nil, err
		}
	}
	return cyc, nil
}

func (o *Orchestrator) forceRefreshUnconditional(ctx context.Context, cyc *cycle) error {
	if err := o.api.ForceRefresh(ctx, o.cfg.VehicleID); err != nil {
		o.classifyFailure(ctx, "force refresh", err)
		return err
	}
	snap, err := o.api.UpdateWithCachedState(ctx, o.cfg.VehicleID)
	if err != nil {
		o.classifyFailure(ctx, "read back refreshed state", err)
		return err
	}
	cyc.snap = snap
	o.estimate(ctx, cyc)
	return o.saveLog(ctx, cyc)
}

func statusFromCycle(cyc *cycle) *StatusResult {
	return &StatusResult{
		BatteryPct:       cyc.snap.BatteryPct,
		AuxBatteryPct:    cyc.snap.AuxBatteryPct,
		RangeKm:          cyc.snap.RangeKm,
		Odometer:         cyc.snap.Odometer,
		Charging:         cyc.snap.Charging,
		EngineRunning:    cyc.snap.EngineRunning,
		ChargePowerKW:    cyc.power.Kilowatts,
		ChargeType:       cyc.power.ChargeType,
		ACChargeLimitPct: cyc.snap.ACChargeLimitPct,
		DCChargeLimitPct: cyc.snap.DCChargeLimitPct,
		VehicleUpdatedAt: cyc.snap.LastUpdate(),
	}
}
