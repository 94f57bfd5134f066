package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"sifir-drill-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ScoreSource is the backing store behind a LeaderboardCache.
type ScoreSource interface {
	SaveBest(ctx context.Context, rec domain.ScoreRecord) (bool, error)
	List(ctx context.Context) ([]domain.ScoreRecord, error)
	Clear(ctx context.Context) error
}

// LeaderboardCache caches score listings with TTL to avoid repeated store
// hits while many clients watch the leaderboard. Writes invalidate it.
type LeaderboardCache struct {
	source ScoreSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	records   []domain.ScoreRecord
	expiresAt time.Time
	gen       uint64
}

const listKey = "scores"

func NewLeaderboardCache(source ScoreSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) List(ctx context.Context) ([]domain.ScoreRecord, error) {
	if records, ok := c.cached(c.clock()); ok {
		return records, nil
	}

	result, err, _ := c.sf.Do(listKey, func() (interface{}, error) {
		now := c.clock()
		if records, ok := c.cached(now); ok {
			return records, nil
		}

		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		records, err := c.source.List(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// A write that landed during the load makes this listing stale.
		if c.gen == gen {
			c.records = records
			c.expiresAt = now.Add(c.ttlWithJitter())
		}
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return copyRecords(result.([]domain.ScoreRecord)), nil
}

func (c *LeaderboardCache) SaveBest(ctx context.Context, rec domain.ScoreRecord) (bool, error) {
	improved, err := c.source.SaveBest(ctx, rec)
	if err == nil && improved {
		c.invalidate()
	}
	return improved, err
}

func (c *LeaderboardCache) Clear(ctx context.Context) error {
	err := c.source.Clear(ctx)
	c.invalidate()
	return err
}

func (c *LeaderboardCache) cached(now time.Time) ([]domain.ScoreRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.records != nil && c.expiresAt.After(now) {
		return copyRecords(c.records), true
	}
	return nil, false
}

func (c *LeaderboardCache) invalidate() {
	c.mu.Lock()
	c.records = nil
	c.expiresAt = time.Time{}
	c.gen++
	c.mu.Unlock()
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyRecords(in []domain.ScoreRecord) []domain.ScoreRecord {
	return append([]domain.ScoreRecord(nil), in...)
}
