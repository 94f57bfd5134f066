package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"sifir-drill-service/internal/domain"
	"sifir-drill-service/internal/game"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionRepository abstracts where live sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// ScoreStore persists ranked scores, keeping the best score per record ID.
type ScoreStore interface {
	SaveBest(ctx context.Context, rec domain.ScoreRecord) (bool, error)
	List(ctx context.Context) ([]domain.ScoreRecord, error)
	Clear(ctx context.Context) error
}

// EndRecorder is told about every finished session. The returned bool says
// whether the score was ranked; it is shown to the player and nothing more.
type EndRecorder interface {
	OnSessionEnd(ctx context.Context, player domain.Player, result domain.GameResult) (bool, error)
}

// Roster lists the students of each class. An empty roster admits anyone.
type Roster map[string][]string

func (r Roster) admits(p domain.Player) bool {
	if len(r) == 0 {
		return true
	}
	for _, name := range r[p.ClassName] {
		if name == p.Name {
			return true
		}
	}
	return false
}

// SchedulerFactory returns a fresh scheduler for each session.
type SchedulerFactory func() game.Scheduler

// SourceFactory returns a fresh question source for each session.
type SourceFactory func() (game.QuestionSource, error)

const recordTimeout = 5 * time.Second

// DrillService contains the drill use cases.
type DrillService struct {
	sessions SessionRepository
	scores   ScoreStore
	recorder EndRecorder
	cfg      game.Config
	roster   Roster
	log      zerolog.Logger

	newScheduler SchedulerFactory
	newSource    SourceFactory
	clock        game.Clock
}

func NewDrillService(sessions SessionRepository, scores ScoreStore, recorder EndRecorder, cfg game.Config, roster Roster, log zerolog.Logger) *DrillService {
	return &DrillService{
		sessions: sessions,
		scores:   scores,
		recorder: recorder,
		cfg:      cfg,
		roster:   roster,
		log:      log,
		newScheduler: func() game.Scheduler {
			return game.NewLoopScheduler()
		},
		newSource: func() (game.QuestionSource, error) {
			return game.NewGenerator()
		},
		clock: game.SystemClock{},
	}
}

// UseTiming swaps the scheduler and clock; tests pass a ManualScheduler for both.
func (s *DrillService) UseTiming(newScheduler SchedulerFactory, clock game.Clock) {
	s.newScheduler = newScheduler
	s.clock = clock
}

// UseSource swaps the question source factory.
func (s *DrillService) UseSource(newSource SourceFactory) {
	s.newSource = newSource
}

// Start validates the player, creates a session and presents the first question.
func (s *DrillService) Start(_ context.Context, player domain.Player) (*Session, error) {
	player.Name = strings.TrimSpace(player.Name)
	player.ClassName = strings.TrimSpace(player.ClassName)
	if player.Name == "" || player.ClassName == "" {
		return nil, domain.ErrInvalidPlayer
	}
	if !s.roster.admits(player) {
		return nil, domain.ErrUnknownPlayer
	}

	src, err := s.newSource()
	if err != nil {
		return nil, err
	}

	session := newSession(uuid.NewString(), player, time.Now())
	sched := s.newScheduler()
	session.engine = game.NewSession(s.cfg, src, sched, s.clock, game.Hooks{
		Sound:    soundRelay{session: session},
		OnUpdate: session.publish,
		OnEnd: func(result domain.GameResult) {
			if c, ok := sched.(interface{ Close() }); ok {
				c.Close()
			}
			// The hook runs under the engine lock; recording does I/O.
			go s.finish(session, result)
		},
	})
	s.sessions.Put(session)

	s.log.Info().Str("session", session.ID).Str("player", player.Name).Str("class", player.ClassName).Msg("session started")
	session.engine.Start()
	return session, nil
}

// SubmitAnswer forwards an answer to the session. Answers that arrive for a
// stale question are ignored by the engine.
func (s *DrillService) SubmitAnswer(_ context.Context, sessionID string, sub domain.AnswerSubmission) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if session.engine.Over() {
		return domain.ErrSessionOver
	}
	session.engine.SubmitAnswer(sub)
	return nil
}

// Subscribe returns a channel of updates for a session. It starts with a
// state snapshot and is closed after the final ranked update.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *DrillService) Subscribe(_ context.Context, sessionID string) (<-chan game.Update, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	return session.subscribe()
}

// Session looks up a live session.
func (s *DrillService) Session(sessionID string) (*Session, bool) {
	return s.sessions.Get(sessionID)
}

func (s *DrillService) finish(session *Session, result domain.GameResult) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	ranked, err := s.recorder.OnSessionEnd(ctx, session.Player, result)
	if err != nil {
		s.log.Error().Err(err).Str("session", session.ID).Msg("record session result")
	}
	s.log.Info().
		Str("session", session.ID).
		Int("score", result.FinalScore).
		Int("correct", result.CorrectCount).
		Bool("ranked", ranked).
		Msg("session ended")

	session.publish(game.Update{Type: game.UpdateRanked, Payload: game.RankedView{
		FinalScore:   result.FinalScore,
		CorrectCount: result.CorrectCount,
		Ranked:       ranked,
	}})
	s.sessions.Delete(session.ID)
	session.release()
}

// Leaderboard returns ranked scores ordered by score, then earliest
// timestamp, then name. An empty class or "ALL" selects every class; a
// non-positive limit returns every entry.
func (s *DrillService) Leaderboard(ctx context.Context, class string, limit int) (domain.Leaderboard, error) {
	records, err := s.scores.List(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	sortRecords(records)

	classes := make(map[string]struct{})
	entries := make([]domain.ScoreRecord, 0, len(records))
	for _, rec := range records {
		classes[rec.ClassName] = struct{}{}
		if class == "" || strings.EqualFold(class, "ALL") || rec.ClassName == class {
			entries = append(entries, rec)
		}
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	names := make([]string, 0, len(classes))
	for c := range classes {
		names = append(names, c)
	}
	sort.Strings(names)

	return domain.Leaderboard{
		Class:     class,
		Classes:   names,
		Entries:   entries,
		UpdatedAt: time.Now(),
	}, nil
}

// TopScore returns the best record, or nil when nothing is ranked yet.
func (s *DrillService) TopScore(ctx context.Context) (*domain.ScoreRecord, error) {
	lb, err := s.Leaderboard(ctx, "", 1)
	if err != nil {
		return nil, err
	}
	if len(lb.Entries) == 0 {
		return nil, nil
	}
	top := lb.Entries[0]
	return &top, nil
}

// ClearScores removes every ranked score.
func (s *DrillService) ClearScores(ctx context.Context) error {
	if err := s.scores.Clear(ctx); err != nil {
		return err
	}
	s.log.Warn().Msg("all scores cleared")
	return nil
}

func sortRecords(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].Name < records[j].Name
	})
}
