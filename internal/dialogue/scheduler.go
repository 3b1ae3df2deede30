package dialogue

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SchedulerFunc adapts a function to Scheduler
type SchedulerFunc func(d time.Duration, fn func()) Timer

func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) Timer {
	return f(d, fn)
}

// ClockScheduler schedules on the wall clock via time.AfterFunc
type ClockScheduler struct{}

func (ClockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// ManualScheduler is a virtual clock. Callbacks only run from Advance, on the
// caller's goroutine, in deadline order.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	s        *ManualScheduler
	at       time.Duration
	seq      uint64
	fn       func()
	stopped  bool
	finished bool
}

// NewManualScheduler returns a virtual clock at time zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, fn: fn}
	s.pending = append(s.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.finished {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the number of callbacks still waiting to run
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped && !t.finished {
			n++
		}
	}
	return n
}

// Now returns the virtual time
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock forward by d, running every callback that falls
// due. Callbacks scheduled while advancing run too if they fall in range.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now + d
	s.mu.Unlock()

	for {
		t := s.next(end)
		if t == nil {
			break
		}
		t.fn()
	}

	s.mu.Lock()
	s.now = end
	s.mu.Unlock()
}

// RunAll advances until nothing is pending
func (s *ManualScheduler) RunAll() {
	for s.Pending() > 0 {
		s.mu.Lock()
		var last time.Duration
		for _, t := range s.pending {
			if !t.stopped && !t.finished && t.at > last {
				last = t.at
			}
		}
		d := last - s.now
		s.mu.Unlock()
		s.Advance(d)
	}
}

// next pops the earliest live timer due at or before end
func (s *ManualScheduler) next(end time.Duration) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.pending[:0]
	for _, t := range s.pending {
		if !t.stopped && !t.finished {
			live = append(live, t)
		}
	}
	s.pending = live
	if len(s.pending) == 0 {
		return nil
	}
	sort.Slice(s.pending, func(i, j int) bool {
		if s.pending[i].at != s.pending[j].at {
			return s.pending[i].at < s.pending[j].at
		}
		return s.pending[i].seq < s.pending[j].seq
	})
	t := s.pending[0]
	if t.at > end {
		return nil
	}
	t.finished = true
	if t.at > s.now {
		s.now = t.at
	}
	return t
}
