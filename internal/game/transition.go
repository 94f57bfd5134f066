package game

import (
	"time"

	"sifir-drill-service/internal/domain"
)

// lowTimeThreshold is the remaining-seconds value at and below which every
// session tick also emits a tick cue.
const lowTimeThreshold = 10

// State is the authoritative state of one drill session.
type State struct {
	Phase            domain.Phase
	Score            int
	Lives            int
	Combo            int
	CorrectCount     int
	QuestionIndex    int
	RemainingSeconds int
	Current          *domain.Question
}

// NewState returns the INIT state for cfg.
func NewState(cfg Config) State {
	return State{
		Phase:            domain.PhaseInit,
		Lives:            cfg.Lives,
		RemainingSeconds: cfg.SessionSeconds,
	}
}

// Result is the value handed off at game over.
func (s State) Result() domain.GameResult {
	return domain.GameResult{FinalScore: s.Score, CorrectCount: s.CorrectCount}
}

// Event is an input to Transition.
type Event interface{ isEvent() }

// Start begins the session.
type Start struct{}

// Answer is a submitted answer. A zero QuestionIndex targets the current question.
type Answer struct {
	QuestionIndex int
	Selected      int
	Latency       time.Duration
}

// QuestionTimeout fires when the question clock for QuestionIndex expires.
type QuestionTimeout struct {
	QuestionIndex int
	Latency       time.Duration
}

// SessionTick is one decrement of the session clock.
type SessionTick struct{}

func (Start) isEvent()           {}
func (Answer) isEvent()          {}
func (QuestionTimeout) isEvent() {}
func (SessionTick) isEvent()     {}

// Effect is an instruction for the driver produced by Transition.
type Effect interface{ isEffect() }

type StartSessionClock struct{}

type ArmQuestionClock struct {
	QuestionIndex int
}

// StopClocks cancels the question clock and the session tick.
type StopClocks struct{}

type PlaySound struct {
	Cue Cue
}

type QuestionPresented struct {
	Question domain.Question
}

type RoundResolved struct {
	QuestionIndex int
	Outcome       domain.Outcome
	Answer        int
	Delta         Delta
	Score         int
	Lives         int
	CorrectCount  int
}

type ClockTicked struct {
	Remaining int
}

type GameOver struct {
	Result domain.GameResult
}

func (StartSessionClock) isEffect() {}
func (ArmQuestionClock) isEffect()  {}
func (StopClocks) isEffect()        {}
func (PlaySound) isEffect()         {}
func (QuestionPresented) isEffect() {}
func (RoundResolved) isEffect()     {}
func (ClockTicked) isEffect()       {}
func (GameOver) isEffect()          {}

// Cue names an audio notification.
type Cue string

const (
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
	CueTick    Cue = "tick"
)

// Env carries the collaborators Transition needs besides the state.
type Env struct {
	Rules  Rules
	Source QuestionSource
}

// Transition computes the next state and the effects the driver must apply.
// Events that are invalid for the current phase return s unchanged with no effects.
func Transition(s State, ev Event, env Env) (State, []Effect) {
	if s.Phase == domain.PhaseGameOver {
		return s, nil
	}

	switch e := ev.(type) {
	case Start:
		if s.Phase != domain.PhaseInit {
			return s, nil
		}
		s.QuestionIndex = 1
		return present(s, env, []Effect{StartSessionClock{}})

	case Answer:
		if s.Phase != domain.PhaseAwaitingAnswer || s.Current == nil {
			return s, nil
		}
		if e.QuestionIndex != 0 && e.QuestionIndex != s.QuestionIndex {
			return s, nil
		}
		outcome := domain.OutcomeWrong
		if e.Selected == s.Current.Answer {
			outcome = domain.OutcomeCorrect
		}
		return resolve(s, outcome, e.Latency, env)

	case QuestionTimeout:
		if s.Phase != domain.PhaseAwaitingAnswer || e.QuestionIndex != s.QuestionIndex {
			return s, nil
		}
		return resolve(s, domain.OutcomeTimeout, e.Latency, env)

	case SessionTick:
		if s.Phase == domain.PhaseInit || s.RemainingSeconds <= 0 {
			return s, nil
		}
		s.RemainingSeconds--
		effects := []Effect{ClockTicked{Remaining: s.RemainingSeconds}}
		if s.RemainingSeconds <= lowTimeThreshold {
			effects = append(effects, PlaySound{Cue: CueTick})
		}
		if s.RemainingSeconds == 0 {
			// The in-flight question is discarded unscored.
			s.Current = nil
			return over(s, effects)
		}
		return s, effects
	}
	return s, nil
}

func resolve(s State, outcome domain.Outcome, latency time.Duration, env Env) (State, []Effect) {
	answer := s.Current.Answer
	d := env.Rules.Evaluate(outcome, latency, s.Combo)
	s.Score += d.Score
	s.Combo = d.Combo
	s.Lives += d.Lives
	cue := CueWrong
	if outcome == domain.OutcomeCorrect {
		s.CorrectCount++
		cue = CueCorrect
	}
	s.Current = nil
	s.Phase = domain.PhaseRoundResolved

	effects := []Effect{
		PlaySound{Cue: cue},
		RoundResolved{
			QuestionIndex: s.QuestionIndex,
			Outcome:       outcome,
			Answer:        answer,
			Delta:         d,
			Score:         s.Score,
			Lives:         s.Lives,
			CorrectCount:  s.CorrectCount,
		},
	}

	if s.Lives < 0 || s.RemainingSeconds == 0 {
		return over(s, effects)
	}
	s.QuestionIndex++
	return present(s, env, effects)
}

func present(s State, env Env, effects []Effect) (State, []Effect) {
	q := env.Source.Generate(s.QuestionIndex)
	q.Index = s.QuestionIndex
	s.Current = &q
	s.Phase = domain.PhaseAwaitingAnswer
	return s, append(effects,
		QuestionPresented{Question: q},
		ArmQuestionClock{QuestionIndex: s.QuestionIndex},
	)
}

func over(s State, effects []Effect) (State, []Effect) {
	s.Phase = domain.PhaseGameOver
	return s, append(effects, StopClocks{}, GameOver{Result: s.Result()})
}
