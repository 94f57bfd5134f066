package game

import (
	"sync"
	"time"

	"sifir-drill-service/internal/domain"
)

// SoundSink receives fire-and-forget audio cues.
type SoundSink interface {
	OnCorrect()
	OnWrong()
	OnTick()
}

// Hooks connect a Session to the outside world. Every hook runs while the
// session is locked, so hooks must not call back into the Session.
type Hooks struct {
	Sound    SoundSink
	OnUpdate func(Update)
	// OnEnd is invoked exactly once, when the session reaches game over.
	OnEnd func(domain.GameResult)
}

// Session drives State through Transition and applies the resulting effects:
// timer arming and cancellation, sound cues, updates and the end hand-off.
// Answers, question timeouts and session ticks are serialized by mu.
type Session struct {
	mu    sync.Mutex
	cfg   Config
	env   Env
	state State
	sched Scheduler
	clock Clock
	hooks Hooks

	armedAt       time.Time
	questionTimer Handle
	sessionTimer  Handle
	ended         bool
}

// NewSession builds a session in the INIT phase. Nothing runs until Start.
func NewSession(cfg Config, src QuestionSource, sched Scheduler, clock Clock, hooks Hooks) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:   cfg,
		env:   Env{Rules: cfg.rules(), Source: src},
		state: NewState(cfg),
		sched: sched,
		clock: clock,
		hooks: hooks,
	}
}

// Start starts the session clock and presents the first question.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(Start{})
}

// SubmitAnswer scores sub against the current question. Calls outside
// AWAITING_ANSWER, or aimed at a question that is no longer current, are ignored.
func (s *Session) SubmitAnswer(sub domain.AnswerSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(Answer{
		QuestionIndex: sub.QuestionIndex,
		Selected:      sub.Selected,
		Latency:       s.clock.Now().Sub(s.armedAt),
	})
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.Current != nil {
		q := *st.Current
		q.Options = append([]int(nil), q.Options...)
		st.Current = &q
	}
	return st
}

// View returns a client snapshot of the current state.
func (s *Session) View() StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.View(s.cfg)
}

// Over reports whether the session has reached game over.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Phase == domain.PhaseGameOver
}

func (s *Session) onSessionTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(SessionTick{})
}

func (s *Session) onQuestionTimeout(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(QuestionTimeout{
		QuestionIndex: index,
		Latency:       s.clock.Now().Sub(s.armedAt),
	})
}

func (s *Session) dispatchLocked(ev Event) {
	next, effects := Transition(s.state, ev, s.env)
	s.state = next
	for _, eff := range effects {
		s.applyLocked(eff)
	}
}

func (s *Session) applyLocked(eff Effect) {
	switch e := eff.(type) {
	case StartSessionClock:
		s.sessionTimer = s.sched.ScheduleRepeating(s.cfg.TickInterval, PrioritySession, s.onSessionTick)

	case ArmQuestionClock:
		s.cancelQuestionTimerLocked()
		s.armedAt = s.clock.Now()
		index := e.QuestionIndex
		s.questionTimer = s.sched.ScheduleOnce(s.cfg.QuestionTimeout, PriorityQuestion, func() {
			s.onQuestionTimeout(index)
		})

	case StopClocks:
		s.cancelQuestionTimerLocked()
		if s.sessionTimer != 0 {
			s.sched.Cancel(s.sessionTimer)
			s.sessionTimer = 0
		}

	case PlaySound:
		s.playLocked(e.Cue)

	case QuestionPresented:
		q := e.Question
		s.emitLocked(Update{Type: UpdateQuestion, Payload: QuestionView{
			Index:          q.Index,
			Num1:           q.Num1,
			Num2:           q.Num2,
			Options:        append([]int(nil), q.Options...),
			TimeoutSeconds: s.cfg.QuestionTimeout.Seconds(),
		}})

	case RoundResolved:
		s.emitLocked(Update{Type: UpdateRound, Payload: RoundView{
			QuestionIndex: e.QuestionIndex,
			Outcome:       e.Outcome,
			Answer:        e.Answer,
			Awarded:       e.Delta.Score,
			Combo:         e.Delta.Combo,
			Score:         e.Score,
			Lives:         e.Lives,
			CorrectCount:  e.CorrectCount,
		}})

	case ClockTicked:
		s.emitLocked(Update{Type: UpdateTick, Payload: TickView{Remaining: e.Remaining}})

	case GameOver:
		if s.ended {
			return
		}
		s.ended = true
		s.emitLocked(Update{Type: UpdateGameOver, Payload: e.Result})
		if s.hooks.OnEnd != nil {
			s.hooks.OnEnd(e.Result)
		}
	}
}

func (s *Session) cancelQuestionTimerLocked() {
	if s.questionTimer != 0 {
		s.sched.Cancel(s.questionTimer)
		s.questionTimer = 0
	}
}

func (s *Session) playLocked(cue Cue) {
	if s.hooks.Sound == nil {
		return
	}
	switch cue {
	case CueCorrect:
		s.hooks.Sound.OnCorrect()
	case CueWrong:
		s.hooks.Sound.OnWrong()
	case CueTick:
		s.hooks.Sound.OnTick()
	}
}

func (s *Session) emitLocked(u Update) {
	if s.hooks.OnUpdate != nil {
		s.hooks.OnUpdate(u)
	}
}
