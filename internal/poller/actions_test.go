package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"evlogger/internal/redisstore"
)

type fakeCache struct {
	cached *redisstore.CachedSnapshot
	err    error
	saved  []redisstore.CachedSnapshot
}

func (f *fakeCache) Save(ctx context.Context, cached redisstore.CachedSnapshot) error {
	f.saved = append(f.saved, cached)
	return nil
}

func (f *fakeCache) Get(ctx context.Context) (*redisstore.CachedSnapshot, error) {
	return f.cached, f.err
}

func TestBatteryServedFromCache(t *testing.T) {
	snap := recentSnapshot()
	snap.BatteryPct = 58
	cache := &fakeCache{cached: &redisstore.CachedSnapshot{Snapshot: *snap, CachedAt: testNow}}
	api := &fakeAPI{}
	o := New(api, newFakeStore(), cache, nil, Config{VehicleID: "veh-1"}, zap.NewNop())
	o.now = func() time.Time { return testNow }

	pct, err := o.Battery(context.Background())
	if err != nil {
		t.Fatalf("battery: %v", err)
	}
	if pct != 58 {
		t.Fatalf("expected 58, got %d", pct)
	}
	if len(api.calls) != 0 {
		t.Fatalf("expected no remote calls on a cache hit, got %v", api.calls)
	}
}

func TestBatteryFallsBackToReadThrough(t *testing.T) {
	snap := recentSnapshot()
	snap.BatteryPct = 47
	cache := &fakeCache{err: redis.Nil}
	api := &fakeAPI{snap: snap}
	store := newFakeStore()
	o := newTestOrchestrator(api, store)
	o.cache = cache

	pct, err := o.Battery(context.Background())
	if err != nil {
		t.Fatalf("battery: %v", err)
	}
	if pct != 47 {
		t.Fatalf("expected 47, got %d", pct)
	}
	if !contains(api.calls, "readback") {
		t.Fatalf("expected a read-through call, got %v", api.calls)
	}
	if len(store.logs) != 1 {
		t.Fatalf("expected the read-through to persist one entry, got %d", len(store.logs))
	}
	if len(cache.saved) != 1 {
		t.Fatalf("expected the fresh snapshot cached, got %d saves", len(cache.saved))
	}
}

func TestChargeRejectsUnknownAction(t *testing.T) {
	api := &fakeAPI{}
	o := newTestOrchestrator(api, newFakeStore())

	_, err := o.Charge(context.Background(), "eject", false)
	if !errors.Is(err, ErrInvalidChargeAction) {
		t.Fatalf("expected ErrInvalidChargeAction, got %v", err)
	}
	if contains(api.calls, "charge_start") || contains(api.calls, "charge_stop") {
		t.Fatalf("expected no charge command sent, got %v", api.calls)
	}
}

func TestChargeAsyncSkipsStatusRead(t *testing.T) {
	api := &fakeAPI{}
	o := newTestOrchestrator(api, newFakeStore())

	status, err := o.Charge(context.Background(), "start", false)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if status != "command_sent" {
		t.Fatalf("expected command_sent, got %q", status)
	}
	if contains(api.calls, "action_status") {
		t.Fatalf("expected no status read-back, got %v", api.calls)
	}
}

func TestChargeSynchronousReadsBackStatus(t *testing.T) {
	prev := chargeStatusWait
	chargeStatusWait = time.Millisecond
	defer func() { chargeStatusWait = prev }()

	api := &fakeAPI{actionStatus: "success"}
	o := newTestOrchestrator(api, newFakeStore())

	status, err := o.Charge(context.Background(), "stop", true)
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if status != "success" {
		t.Fatalf("expected success, got %q", status)
	}
	if !contains(api.calls, "charge_stop") || !contains(api.calls, "action_status") {
		t.Fatalf("expected stop then status read, got %v", api.calls)
	}
}

func TestSyncTripsRunsWithoutOdometerDelta(t *testing.T) {
	snap := recentSnapshot()
	api := &fakeAPI{snap: snap}
	store := newFakeStore()
	// the vendor has nothing new; reconciliation must still run cleanly
	o := newTestOrchestrator(api, store)

	if err := o.SyncTrips(context.Background()); err != nil {
		t.Fatalf("sync trips: %v", err)
	}
	if !contains(api.calls, "driving") {
		t.Fatalf("expected a driving info fetch, got %v", api.calls)
	}
}
