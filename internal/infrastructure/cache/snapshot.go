package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"privylend-backend/internal/domain/ledger"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when no snapshot has been stored for a party.
var ErrMiss = errors.New("snapshot cache miss")

const (
	snapshotPrefix = "privylend:snapshot:"
	partiesKey     = "privylend:parties"
)

// Snapshot is the last successful ledger read for one party.
type Snapshot struct {
	ledger.Dataset
	FetchedAt time.Time
}

type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache stores snapshots for ttl; zero keeps them until overwritten.
func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

func (c *SnapshotCache) Get(ctx context.Context, party string) (*Snapshot, error) {
	raw, err := c.rdb.Get(ctx, snapshotPrefix+party).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var r snapshotRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", party, err)
	}
	s, err := r.snapshot()
	if err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", party, err)
	}
	return &s, nil
}

func (c *SnapshotCache) Put(ctx context.Context, party string, s Snapshot) error {
	raw, err := json.Marshal(toRecord(s))
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, snapshotPrefix+party, raw, c.ttl).Err()
}

// TrackParty records a party so the background refresher keeps its snapshot warm.
func (c *SnapshotCache) TrackParty(ctx context.Context, party string) error {
	return c.rdb.SAdd(ctx, partiesKey, party).Err()
}

func (c *SnapshotCache) Parties(ctx context.Context) ([]string, error) {
	return c.rdb.SMembers(ctx, partiesKey).Result()
}
