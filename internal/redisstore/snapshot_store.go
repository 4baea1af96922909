package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"evlogger/internal/models"
)

const snapshotKey = "evlogger:snapshot:latest"

// CachedSnapshot is the vehicle state kept in redis for cheap reads.
type CachedSnapshot struct {
	Snapshot      models.VehicleSnapshot `json:"snapshot"`
	ChargePowerKW float64                `json:"charge_power_kw"`
	ChargeType    models.ChargeType      `json:"charge_type"`
	CachedAt      time.Time              `json:"cached_at"`
}

// SnapshotStore caches the latest vehicle snapshot so read endpoints do not
// burn API budget.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore returns redis-backed store.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Save caches the snapshot.
func (s *SnapshotStore) Save(ctx context.Context, cached CachedSnapshot) error {
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey, data, s.ttl).Err()
}

// Get returns the cached snapshot, or redis.Nil when absent or expired.
func (s *SnapshotStore) Get(ctx context.Context) (*CachedSnapshot, error) {
	result, err := s.client.Get(ctx, snapshotKey).Result()
	if err != nil {
		return nil, err
	}
	var cached CachedSnapshot
	if err := json.Unmarshal([]byte(result), &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}
