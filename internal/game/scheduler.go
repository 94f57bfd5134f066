package game

import (
	"sort"
	"sync"
	"time"
)

// Clock is a monotonic time source used for latency measurement.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now, which carries a monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

// Priority orders callbacks that fall due in the same scheduling turn.
// Lower values are delivered first.
type Priority int

const (
	PrioritySession Priority = iota
	PriorityQuestion
)

// MinInterval is the shortest repeat interval a Scheduler accepts.
const MinInterval = time.Millisecond

func repeatInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// Scheduler runs callbacks after a delay or on a fixed interval.
// Cancel is synchronous: once it returns, the callback never runs again.
// Repeating intervals below MinInterval are raised to it.
type Scheduler interface {
	ScheduleRepeating(interval time.Duration, prio Priority, fn func()) Handle
	ScheduleOnce(delay time.Duration, prio Priority, fn func()) Handle
	Cancel(h Handle)
}

type timerEntry struct {
	id       Handle
	at       time.Time
	interval time.Duration // zero for one-shot
	prio     Priority
	seq      uint64
	fn       func()
}

// timerQueue is the bookkeeping shared by LoopScheduler and ManualScheduler.
type timerQueue struct {
	mu      sync.Mutex
	nextID  Handle
	seq     uint64
	entries map[Handle]*timerEntry
}

func newTimerQueue() *timerQueue {
	return &timerQueue{entries: make(map[Handle]*timerEntry)}
}

func (q *timerQueue) add(at time.Time, interval time.Duration, prio Priority, fn func()) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.seq++
	e := &timerEntry{id: q.nextID, at: at, interval: interval, prio: prio, seq: q.seq, fn: fn}
	q.entries[e.id] = e
	return e.id
}

func (q *timerQueue) cancel(h Handle) {
	q.mu.Lock()
	delete(q.entries, h)
	q.mu.Unlock()
}

func (q *timerQueue) next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var (
		earliest time.Time
		found    bool
	)
	for _, e := range q.entries {
		if !found || e.at.Before(earliest) {
			earliest, found = e.at, true
		}
	}
	return earliest, found
}

// due snapshots every entry whose deadline has passed, in delivery order:
// priority first, then deadline, then insertion.
func (q *timerQueue) due(now time.Time) []*timerEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	var batch []*timerEntry
	for _, e := range q.entries {
		if !e.at.After(now) {
			batch = append(batch, e)
		}
	}
	sort.Slice(batch, func(i, j int) bool {
		a, b := batch[i], batch[j]
		if a.prio != b.prio {
			return a.prio < b.prio
		}
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.seq < b.seq
	})
	return batch
}

// claim reports whether e is still live and, if so, reschedules or retires it.
// An entry cancelled by an earlier callback in the same batch is skipped.
func (q *timerQueue) claim(e *timerEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.entries[e.id] != e {
		return false
	}
	if e.interval > 0 {
		e.at = e.at.Add(e.interval)
	} else {
		delete(q.entries, e.id)
	}
	return true
}

func (q *timerQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// LoopScheduler delivers callbacks from a single goroutine, so callbacks
// never run concurrently with each other.
type LoopScheduler struct {
	q     *timerQueue
	clock Clock
	wake  chan struct{}
	stop  chan struct{}
	once  sync.Once
}

// NewLoopScheduler starts the delivery goroutine. Call Close to stop it.
func NewLoopScheduler() *LoopScheduler {
	s := &LoopScheduler{
		q:     newTimerQueue(),
		clock: SystemClock{},
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *LoopScheduler) ScheduleRepeating(interval time.Duration, prio Priority, fn func()) Handle {
	interval = repeatInterval(interval)
	h := s.q.add(s.clock.Now().Add(interval), interval, prio, fn)
	s.poke()
	return h
}

func (s *LoopScheduler) ScheduleOnce(delay time.Duration, prio Priority, fn func()) Handle {
	h := s.q.add(s.clock.Now().Add(delay), 0, prio, fn)
	s.poke()
	return h
}

func (s *LoopScheduler) Cancel(h Handle) {
	s.q.cancel(h)
}

// Close stops the delivery goroutine. It is safe to call from a callback.
func (s *LoopScheduler) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *LoopScheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *LoopScheduler) run() {
	for {
		wait := time.Hour
		if at, ok := s.q.next(); ok {
			wait = at.Sub(s.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}

		for _, e := range s.q.due(s.clock.Now()) {
			select {
			case <-s.stop:
				return
			default:
			}
			if s.q.claim(e) {
				e.fn()
			}
		}
	}
}

// ManualScheduler is a deterministic Scheduler and Clock. Time only moves
// when Advance is called.
type ManualScheduler struct {
	q   *timerQueue
	mu  sync.Mutex
	now time.Time
}

// NewManualScheduler starts the virtual clock at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{q: newTimerQueue(), now: start}
}

func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualScheduler) ScheduleRepeating(interval time.Duration, prio Priority, fn func()) Handle {
	interval = repeatInterval(interval)
	return m.q.add(m.Now().Add(interval), interval, prio, fn)
}

func (m *ManualScheduler) ScheduleOnce(delay time.Duration, prio Priority, fn func()) Handle {
	return m.q.add(m.Now().Add(delay), 0, prio, fn)
}

func (m *ManualScheduler) Cancel(h Handle) {
	m.q.cancel(h)
}

// Pending returns the number of live scheduled callbacks.
func (m *ManualScheduler) Pending() int {
	return m.q.len()
}

// Advance moves the clock forward by d, stopping at every deadline on the
// way and delivering what is due there.
func (m *ManualScheduler) Advance(d time.Duration) {
	target := m.Now().Add(d)
	for {
		at, ok := m.q.next()
		if !ok || at.After(target) {
			break
		}
		m.mu.Lock()
		if at.After(m.now) {
			m.now = at
		}
		now := m.now
		m.mu.Unlock()

		for _, e := range m.q.due(now) {
			if m.q.claim(e) {
				e.fn()
			}
		}
	}
	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}
