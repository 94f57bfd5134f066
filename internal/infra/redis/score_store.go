package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"sifir-drill-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ScoreStore ranks best scores in Redis.
// Ranking is a sorted set:   ZADD scores:ranking GT {score} {recordID}
// Details are a hash:        HSET scores:record:{recordID} name className score timestamp
// Both are written by one Lua script.
type ScoreStore struct {
	client *redis.Client
}

const rankingKey = "scores:ranking"

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

// saveBest ranks and stores the record in one step, so the hash always
// describes the score held in the sorted set.
// KEYS: ranking, record hash. ARGV: score, id, name, className, timestamp.
var saveBest = redis.NewScript(`
local changed = redis.call('ZADD', KEYS[1], 'GT', 'CH', ARGV[1], ARGV[2])
if changed == 0 then
	return 0
end
redis.call('HSET', KEYS[2], 'name', ARGV[3], 'className', ARGV[4], 'score', ARGV[1], 'timestamp', ARGV[5])
return 1
`)

// SaveBest records rec only when it beats the stored score for the same ID.
func (s *ScoreStore) SaveBest(ctx context.Context, rec domain.ScoreRecord) (bool, error) {
	changed, err := saveBest.Run(ctx, s.client,
		[]string{rankingKey, recordKey(rec.ID)},
		rec.Score, rec.ID, rec.Name, rec.ClassName, rec.Timestamp.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("save score: %w", err)
	}
	return changed == 1, nil
}

// List returns records in ranking order.
func (s *ScoreStore) List(ctx context.Context) ([]domain.ScoreRecord, error) {
	ranked, err := s.client.ZRevRangeWithScores(ctx, rankingKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read ranking: %w", err)
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ranked))
	for i, z := range ranked {
		cmds[i] = pipe.HGetAll(ctx, recordKey(memberID(z)))
	}
	if len(ranked) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("read score records: %w", err)
		}
	}

	records := make([]domain.ScoreRecord, 0, len(ranked))
	for i, z := range ranked {
		records = append(records, buildRecord(memberID(z), int(z.Score), cmds[i].Val()))
	}
	return records, nil
}

// Clear drops the ranking and every record hash.
func (s *ScoreStore) Clear(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, rankingKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read ranking: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, rankingKey)
	for _, id := range ids {
		keys = append(keys, recordKey(id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	return nil
}

func recordKey(id string) string {
	return "scores:record:" + id
}

func memberID(z redis.Z) string {
	if id, ok := z.Member.(string); ok {
		return id
	}
	return fmt.Sprint(z.Member)
}

// buildRecord prefers the ranking score; the hash may lag a concurrent write.
func buildRecord(id string, score int, fields map[string]string) domain.ScoreRecord {
	rec := domain.ScoreRecord{
		ID:        id,
		Name:      fields["name"],
		ClassName: fields["className"],
		Score:     score,
	}
	if ms, err := strconv.ParseInt(fields["timestamp"], 10, 64); err == nil {
		rec.Timestamp = time.UnixMilli(ms).UTC()
	}
	return rec
}
