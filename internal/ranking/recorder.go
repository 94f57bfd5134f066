package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sifir-drill-service/internal/domain"
	"github.com/rs/zerolog"
)

// Saver persists a record, keeping only the higher score per record ID.
type Saver interface {
	SaveBest(ctx context.Context, rec domain.ScoreRecord) (bool, error)
}

var keyReplacer = strings.NewReplacer(".", "_", "#", "_", "$", "_", "[", "_", "]", "_")

// RecordKey is the stable ID of a player's best score.
func RecordKey(p domain.Player) string {
	return keyReplacer.Replace(p.ClassName) + "_" + keyReplacer.Replace(p.Name)
}

// Recorder is the session-end collaborator: it ranks results that finish
// inside the window and ignores the rest.
type Recorder struct {
	store  Saver
	window Window
	now    func() time.Time
	log    zerolog.Logger
}

func NewRecorder(store Saver, window Window, log zerolog.Logger) *Recorder {
	return NewRecorderWithClock(store, window, log, time.Now)
}

// NewRecorderWithClock is used by tests that need a fixed wall clock.
func NewRecorderWithClock(store Saver, window Window, log zerolog.Logger, now func() time.Time) *Recorder {
	return &Recorder{store: store, window: window, now: now, log: log}
}

// OnSessionEnd reports whether the result was ranked. A false return with a
// nil error means the session ended outside the window (practice mode).
func (r *Recorder) OnSessionEnd(ctx context.Context, player domain.Player, result domain.GameResult) (bool, error) {
	now := r.now()
	if !r.window.Eligible(now) {
		r.log.Debug().Str("player", player.Name).Int("score", result.FinalScore).Msg("outside ranking window")
		return false, nil
	}
	rec := domain.ScoreRecord{
		ID:        RecordKey(player),
		Name:      player.Name,
		ClassName: player.ClassName,
		Score:     result.FinalScore,
		Timestamp: now,
	}
	improved, err := r.store.SaveBest(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("save score: %w", err)
	}
	r.log.Info().Str("record", rec.ID).Int("score", rec.Score).Bool("improved", improved).Msg("score ranked")
	return true, nil
}
