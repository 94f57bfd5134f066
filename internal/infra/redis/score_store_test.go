package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"sifir-drill-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestScoreStoreKeepsBestScore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewScoreStore(newClient(mr))
	at := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)

	if ok, err := store.SaveBest(ctx, sampleRecord("4A_Aina", "Aina", "4A", 40, at)); err != nil || !ok {
		t.Fatalf("expected insert, got ok=%v err=%v", ok, err)
	}
	if ok, err := store.SaveBest(ctx, sampleRecord("4A_Aina", "Aina", "4A", 25, at.Add(time.Hour))); err != nil || ok {
		t.Fatalf("expected lower score ignored, got ok=%v err=%v", ok, err)
	}
	if ok, err := store.SaveBest(ctx, sampleRecord("4B_Badrul", "Badrul", "4B", 90, at)); err != nil || !ok {
		t.Fatalf("expected insert, got ok=%v err=%v", ok, err)
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	if records[0].ID != "4B_Badrul" || records[0].Score != 90 || records[0].ClassName != "4B" {
		t.Fatalf("expected Badrul first, got %+v", records[0])
	}
	if records[1].Score != 40 || !records[1].Timestamp.Equal(at) {
		t.Fatalf("expected Aina's original best kept, got %+v", records[1])
	}
}

func TestScoreStoreHashFollowsRanking(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewScoreStore(newClient(mr))
	at := time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)

	// The higher score lands first; the later, lower and equal saves must
	// leave its hash untouched.
	if ok, err := store.SaveBest(ctx, sampleRecord("4A_Aina", "Aina", "4A", 60, at.Add(time.Minute))); err != nil || !ok {
		t.Fatalf("expected insert, got ok=%v err=%v", ok, err)
	}
	for _, score := range []int{50, 60} {
		if ok, err := store.SaveBest(ctx, sampleRecord("4A_Aina", "Aina", "4A", score, at.Add(2*time.Minute))); err != nil || ok {
			t.Fatalf("score %d: expected no change, got ok=%v err=%v", score, ok, err)
		}
	}

	ranked, err := mr.ZScore(rankingKey, "4A_Aina")
	if err != nil || ranked != 60 {
		t.Fatalf("expected ranking 60, got %v (%v)", ranked, err)
	}
	if got := mr.HGet(recordKey("4A_Aina"), "score"); got != "60" {
		t.Fatalf("expected hash score 60, got %q", got)
	}
	want := strconv.FormatInt(at.Add(time.Minute).UnixMilli(), 10)
	if got := mr.HGet(recordKey("4A_Aina"), "timestamp"); got != want {
		t.Fatalf("expected hash timestamp of the winning save %s, got %s", want, got)
	}
}

func TestScoreStoreClear(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewScoreStore(newClient(mr))
	_, _ = store.SaveBest(ctx, sampleRecord("4A_Aina", "Aina", "4A", 40, time.Now()))

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("scores:ranking") || mr.Exists("scores:record:4A_Aina") {
		t.Fatalf("expected all score keys removed")
	}
	records, err := store.List(ctx)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty list, got %+v err=%v", records, err)
	}
}

func sampleRecord(id, name, class string, score int, at time.Time) domain.ScoreRecord {
	return domain.ScoreRecord{ID: id, Name: name, ClassName: class, Score: score, Timestamp: at}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
