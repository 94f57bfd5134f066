package game

import (
	"testing"
	"time"

	"sifir-drill-service/internal/domain"
)

var epoch = time.Date(2024, 11, 25, 9, 0, 0, 0, time.UTC)

type countingSink struct {
	correct, wrong, tick int
}

func (c *countingSink) OnCorrect() { c.correct++ }
func (c *countingSink) OnWrong()   { c.wrong++ }
func (c *countingSink) OnTick()    { c.tick++ }

type harness struct {
	sched   *ManualScheduler
	session *Session
	sink    *countingSink
	results []domain.GameResult
	updates []Update
}

func newHarness(cfg Config) *harness {
	h := &harness{sched: NewManualScheduler(epoch), sink: &countingSink{}}
	h.session = NewSession(cfg, NewGeneratorWithSeed(7), h.sched, h.sched, Hooks{
		Sound:    h.sink,
		OnUpdate: func(u Update) { h.updates = append(h.updates, u) },
		OnEnd:    func(r domain.GameResult) { h.results = append(h.results, r) },
	})
	return h
}

func (h *harness) answer(t *testing.T, correct bool) {
	t.Helper()
	st := h.session.State()
	if st.Current == nil {
		t.Fatalf("no active question")
	}
	selected := st.Current.Answer
	if !correct {
		for _, o := range st.Current.Options {
			if o != st.Current.Answer {
				selected = o
				break
			}
		}
	}
	h.session.SubmitAnswer(domain.AnswerSubmission{Selected: selected})
}

func TestLatencyIsMeasuredFromArmTime(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.session.Start()

	h.sched.Advance(4999 * time.Millisecond)
	h.answer(t, true)
	if got := h.session.State().Score; got != 15 {
		t.Fatalf("expected 15 points at 4.999s, got %d", got)
	}

	h.sched.Advance(5 * time.Second)
	h.answer(t, true)
	if got := h.session.State().Score; got != 25 {
		t.Fatalf("expected +10 at exactly 5s, got total %d", got)
	}
	if h.sink.correct != 2 {
		t.Fatalf("expected 2 correct cues, got %d", h.sink.correct)
	}
}

func TestSlowCorrectStreakEarnsComboBonus(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.session.Start()

	wantTotals := []int{10, 20, 50}
	for i, want := range wantTotals {
		h.sched.Advance(6 * time.Second)
		h.answer(t, true)
		st := h.session.State()
		if st.Score != want || st.Combo != i+1 {
			t.Fatalf("answer %d: expected score %d combo %d, got %d/%d", i+1, want, i+1, st.Score, st.Combo)
		}
	}
}

func TestQuestionTimeoutCostsALife(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.session.Start()
	h.sched.Advance(3 * time.Second)
	h.answer(t, true)

	h.sched.Advance(10 * time.Second)
	st := h.session.State()
	if st.Lives != 1 || st.Combo != 0 || st.QuestionIndex != 3 {
		t.Fatalf("expected timeout to cost a life and advance, got %+v", st)
	}
	if h.sink.wrong != 1 {
		t.Fatalf("expected one wrong cue, got %d", h.sink.wrong)
	}
}

func TestWrongAnswersExhaustLives(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.session.Start()
	for i := 0; i < 3; i++ {
		h.sched.Advance(time.Second)
		h.answer(t, false)
	}
	if !h.session.Over() {
		t.Fatalf("expected game over after three wrong answers")
	}
	if len(h.results) != 1 || h.results[0] != (domain.GameResult{}) {
		t.Fatalf("expected one empty result, got %+v", h.results)
	}
	if h.sched.Pending() != 0 {
		t.Fatalf("expected all timers cancelled, %d pending", h.sched.Pending())
	}
	if h.session.State().RemainingSeconds != 57 {
		t.Fatalf("expected session clock to stop at 57, got %d", h.session.State().RemainingSeconds)
	}
}

func TestSessionExpiryBeatsQuestionTimeoutInSameTurn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lives = 10
	h := newHarness(cfg)
	h.session.Start()

	// Questions time out at 10s, 20s, ... so the sixth question's clock and
	// the session clock both expire at 60s.
	h.sched.Advance(59 * time.Second)
	if st := h.session.State(); st.Lives != 5 || st.RemainingSeconds != 1 {
		t.Fatalf("unexpected state before expiry %+v", st)
	}
	h.sched.Advance(time.Second)

	st := h.session.State()
	if st.Phase != domain.PhaseGameOver {
		t.Fatalf("expected game over, got %s", st.Phase)
	}
	if st.Lives != 5 {
		t.Fatalf("question timeout must not apply after expiry, lives %d", st.Lives)
	}
	if st.Current != nil {
		t.Fatalf("in-flight question should be discarded")
	}
	if len(h.results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(h.results))
	}
	if h.sink.tick != 11 {
		t.Fatalf("expected 11 tick cues, got %d", h.sink.tick)
	}
}

func TestGameOverIsIdempotent(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.session.Start()
	h.sched.Advance(2 * time.Second)
	h.answer(t, true)
	for h.session.State().Phase != domain.PhaseGameOver {
		h.sched.Advance(time.Second)
		h.answer(t, false)
	}
	final := h.session.State().Result()

	h.session.SubmitAnswer(domain.AnswerSubmission{Selected: 1})
	h.sched.Advance(2 * time.Minute)
	h.session.Start()

	if got := h.session.State().Result(); got != final {
		t.Fatalf("result changed after game over: %+v -> %+v", final, got)
	}
	if len(h.results) != 1 || h.results[0] != final {
		t.Fatalf("expected end hook once with %+v, got %+v", final, h.results)
	}
}

func TestUpdatesDescribeTheRound(t *testing.T) {
	h := newHarness(DefaultConfig())
	h.session.Start()
	if len(h.updates) != 1 || h.updates[0].Type != UpdateQuestion {
		t.Fatalf("expected question update on start, got %+v", h.updates)
	}
	view := h.updates[0].Payload.(QuestionView)
	if view.Index != 1 || len(view.Options) != 4 || view.TimeoutSeconds != 10 {
		t.Fatalf("unexpected question view %+v", view)
	}

	h.sched.Advance(time.Second)
	h.answer(t, true)

	var round *RoundView
	for _, u := range h.updates {
		if u.Type == UpdateRound {
			r := u.Payload.(RoundView)
			round = &r
		}
	}
	if round == nil || round.Outcome != domain.OutcomeCorrect || round.Awarded != 15 || round.Score != 15 {
		t.Fatalf("unexpected round view %+v", round)
	}
}
