package app

import (
	"sync"
	"time"

	"sifir-drill-service/internal/domain"
	"sifir-drill-service/internal/game"
)

// Session is a live drill session plus its subscribers.
type Session struct {
	ID        string
	Player    domain.Player
	CreatedAt time.Time

	engine *game.Session

	mu          sync.Mutex
	subscribers map[chan game.Update]struct{}
	closed      bool
	done        chan struct{}
}

func newSession(id string, player domain.Player, now time.Time) *Session {
	return &Session{
		ID:          id,
		Player:      player,
		CreatedAt:   now,
		subscribers: make(map[chan game.Update]struct{}),
		done:        make(chan struct{}),
	}
}

// NewSession is exported for infrastructure tests that need a placeholder session.
func NewSession(id string, player domain.Player) *Session {
	return newSession(id, player, time.Now())
}

// Done is closed once the result has been handed to the recorder, the
// session has left the repository and all subscribers have been released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// View returns the current state snapshot.
func (s *Session) View() game.StateView {
	if s.engine == nil {
		return game.StateView{Phase: domain.PhaseInit.String()}
	}
	return s.engine.View()
}

func (s *Session) subscribe() (<-chan game.Update, func(), error) {
	ch := make(chan game.Update, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, domain.ErrSessionOver
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	initial := game.Update{Type: game.UpdateState, Payload: s.View()}
	s.mu.Lock()
	if _, ok := s.subscribers[ch]; ok {
		select {
		case ch <- initial:
		default:
		}
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *Session) publish(u game.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Slow subscriber: drop its oldest update to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}

// release closes every subscriber channel and marks the session done.
func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	close(s.done)
}

// soundRelay forwards audio cues to subscribers; clients play them locally.
type soundRelay struct {
	session *Session
}

func (r soundRelay) OnCorrect() { r.cue(game.CueCorrect) }
func (r soundRelay) OnWrong()   { r.cue(game.CueWrong) }
func (r soundRelay) OnTick()    { r.cue(game.CueTick) }

func (r soundRelay) cue(c game.Cue) {
	r.session.publish(game.Update{Type: game.UpdateSound, Payload: game.SoundView{Cue: c}})
}
