package uthreads

import (
	"sort"
	"sync"
	"time"
)

// yieldKind distinguishes why the running thread is leaving RUNNING, which
// governs how pickNext treats it. Grounded on the to_block/to_sleep flags
// uthreads.cpp's jumpToThread takes, generalized with a fourth case for
// self-termination (the original instead nulled running_thread first).
type yieldKind int

const (
	// yieldTick is an involuntary preemption: the outgoing thread is still
	// alive and wants the CPU back, so an empty ready queue lets it
	// continue uninterrupted.
	yieldTick yieldKind = iota
	yieldToBlocked
	yieldToSleeping
	yieldDiscarded
)

// Scheduler owns every piece of mutable scheduling state and the single
// goroutine that mutates it. Grounded in field shape
// on original_source/Scheduler.h; the single-owner-goroutine-draining-a-
// channel pattern is grounded on joeycumines-go-utilpkg/eventloop's
// Loop, adapted from a task/microtask queue to a synchronous
// command/reply protocol.
type Scheduler struct {
	tcbs          map[int]*tcb
	ready         []int
	sleeping      map[int]int
	runningID     int
	totalQuantums int

	ids       *idPool
	maxThreads int
	driver    preemptionDriver
	quantum   time.Duration
	logger    Logger

	cmds        chan func()
	initialized bool

	errMu   sync.Mutex
	lastErr error
}

// New constructs a Scheduler. It is inert until Init is called: the run
// loop goroutine starts immediately (so commands never race its startup),
// but no tcb exists and the preemption driver is not armed until Init.
func New(opts ...Option) *Scheduler {
	o := resolveOptions(opts)
	s := &Scheduler{
		tcbs:       make(map[int]*tcb),
		sleeping:   make(map[int]int),
		ids:        newIDPool(o.maxThreads),
		maxThreads: o.maxThreads,
		driver:     o.driver,
		quantum:    o.quantum,
		logger:     o.logger,
		cmds:       make(chan func()),
	}
	go s.runLoop()
	return s
}

// runLoop is the only goroutine that ever reads or writes scheduler
// state. Every public operation crosses into this goroutine via submit;
// this serialization is the library's entire critical section — a
// command is never interleaved with another regardless of what the
// preemption driver does. MaskPreemption brackets each command anyway,
// mirroring the original's sigprocmask-around-the-critical-section
// pattern on drivers with a real signal to suppress: host-facility
// fidelity, not the mechanism this package actually depends on for
// correctness.
func (s *Scheduler) runLoop() {
	for cmd := range s.cmds {
		s.driver.MaskPreemption(true)
		cmd()
		s.driver.MaskPreemption(false)
	}
}

// submit hands fn to the run loop and waits for its result. fn returns
// the operation's result plus, if the calling goroutine must itself park
// (it yielded the CPU to another thread), the context to park on — that
// park call happens here, back on the caller's own goroutine, never
// inside the run loop, per the Save/Restore contract's requirement that a
// context is only ever saved by the thread it belongs to. The decision to
// park is always made by fn while it is running inside the run loop's
// masked critical section, so the save is recorded as having happened
// masked; switchTo restores that state when this context is next woken.
func (s *Scheduler) submit(fn func() (opResult, *context)) opResult {
	type reply struct {
		res opResult
		ctx *context
	}
	replyCh := make(chan reply, 1)
	s.cmds <- func() {
		res, ctx := fn()
		replyCh <- reply{res, ctx}
	}
	rep := <-replyCh
	if rep.ctx != nil {
		rep.ctx.park(true)
	}
	return rep.res
}

// tick is fired by the preemption driver. It has no caller waiting on a
// reply and never parks anyone itself: it only updates bookkeeping and
// wakes whichever thread is chosen to run next. The thread being
// preempted away from keeps executing on its own goroutine until it next
// calls into the library, at which point that call observes it is no
// longer the recorded running thread — see doc.go's Preemption model.
func (s *Scheduler) tick() {
	s.cmds <- func() {
		if !s.initialized {
			return
		}
		s.pickNext(yieldTick)
	}
}

// opResult is the generic (value, error) shape every command returns;
// value is meaningless for operations that don't produce one.
type opResult struct {
	value int
	err   error
}

// expireSleepers expires every sleep countdown that is already at zero
// (removing it from the sleep map and requeuing its thread unless it is
// BLOCKED) and decrements every other countdown by one, so an entry that
// reaches zero here expires on the next call. Iterates by ascending
// id for deterministic tie-breaking, matching original_source/
// uthreads.cpp's use of an ordered std::map.
func (s *Scheduler) expireSleepers() {
	if len(s.sleeping) == 0 {
		return
	}
	ids := make([]int, 0, len(s.sleeping))
	for id := range s.sleeping {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if s.sleeping[id] == 0 {
			delete(s.sleeping, id)
			if t, ok := s.tcbs[id]; ok && t.state != Blocked {
				t.state = Ready
				s.ready = append(s.ready, id)
			}
			continue
		}
		s.sleeping[id]--
	}
}

// removeFromReady removes every occurrence of id from the ready queue.
// Grounded on uthreads.cpp's removeFromReady.
func (s *Scheduler) removeFromReady(id int) {
	out := s.ready[:0]
	for _, v := range s.ready {
		if v != id {
			out = append(out, v)
		}
	}
	s.ready = out
}

// pickNext is the yield path run whenever the currently running thread
// stops running, whether by its own request (block, sleep, terminate) or
// by preemption: expire sleepers, account for the elapsed quantum, and
// hand the CPU to the next ready thread. If nobody is ready, a preempted
// thread keeps running, while a thread that relinquished voluntarily
// hands the CPU to the main thread.
func (s *Scheduler) pickNext(kind yieldKind) {
	s.expireSleepers()
	s.totalQuantums++

	relinquishing := kind != yieldTick

	if len(s.ready) == 0 {
		if !relinquishing {
			s.tcbs[s.runningID].incrementQuantum()
			return
		}
		s.switchTo(MainThreadID)
		return
	}

	switch kind {
	case yieldTick:
		out := s.tcbs[s.runningID]
		out.state = Ready
		s.ready = append(s.ready, out.id)
	case yieldToBlocked, yieldDiscarded:
		// already handled by the caller: blocked threads are already
		// marked BLOCKED and absent from ready; discarded threads are
		// already removed from the TCB table.
	case yieldToSleeping:
		out := s.tcbs[s.runningID]
		out.state = Ready
	}

	next := s.ready[0]
	s.ready = s.ready[1:]
	s.switchTo(next)
}

// switchTo makes id the running thread. For every thread but main it
// wakes id's goroutine via ready(); the call never blocks (see park.go)
// even if id's goroutine hasn't reached its own park() yet, which is
// possible when this switch was triggered by tick against a thread that
// was requeued without ever cooperating.
//
// Main is never parked: its "goroutine" is simply whatever caller is
// currently inside a library call, and that caller returns from submit
// the ordinary way rather than blocking on a context. Main can become
// the running thread more than once over a scheduler's lifetime (it
// re-enters the ready queue like any other tick-preempted thread), and
// nothing ever drains its context's resume buffer, so ready() (and the
// mask restore paired with it) is skipped for main: there is no parked
// goroutine to wake.
func (s *Scheduler) switchTo(id int) {
	next := s.tcbs[id]
	next.state = Running
	s.runningID = id
	next.incrementQuantum()
	s.resetDriverTimer()
	s.logger.Debug("switch", "tid", id, "total_quantums", s.totalQuantums)
	if id == MainThreadID {
		return
	}
	// Re-assert whatever mask state next had saved, the same way
	// siglongjmp restores the mask captured by the matching sigsetjmp.
	// The run loop's own mask(true)/mask(false) bracket around this very
	// command is what actually governs delivery once this command
	// returns, so this restore is textual fidelity to the original
	// mechanism rather than something correctness depends on.
	s.driver.MaskPreemption(next.ctx.maskedOnPark)
	next.ctx.ready()
}

// reset tears the scheduler back down to its pre-Init state: every tcb is
// dropped, the ready queue and sleep map are cleared, the free-id pool is
// reseeded from scratch, and the preemption driver is stopped. The
// run-loop goroutine and cmds channel are left running, so the same
// Scheduler can be reused for a fresh Init/Spawn/... scenario afterward.
// Grounded on original_source/uthreads.cpp's Clear_database; used by this
// package's own tests to run multiple scenarios against one Scheduler
// without spinning up a new run-loop goroutine for each. Callers must
// ensure every spawned thread has already terminated or is durably
// parked before calling reset: a goroutine still executing entry code
// when its tcb disappears will misbehave exactly as it would if another
// thread terminated it out from under it.
func (s *Scheduler) reset() opResult {
	return s.submit(func() (opResult, *context) {
		s.driver.Stop()
		s.tcbs = make(map[int]*tcb)
		s.ready = nil
		s.sleeping = make(map[int]int)
		s.runningID = MainThreadID
		s.totalQuantums = 0
		s.ids = newIDPool(s.maxThreads)
		s.initialized = false
		return ok(), nil
	})
}

// recordError stashes err as the most recently reported error for this
// scheduler, for LastError to retrieve. Called by the operations in
// ops.go, mostly on the calling goroutine after a command has returned
// rather than from inside a run-loop command, so it guards lastErr with
// its own mutex instead of the cmds channel.
func (s *Scheduler) recordError(err error) {
	s.errMu.Lock()
	s.lastErr = err
	s.errMu.Unlock()
}

// LastError returns the most recently reported *LibraryError or
// *SystemError for this scheduler, or nil if none has occurred yet.
// Safe to call from any goroutine.
func (s *Scheduler) LastError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// resetDriverTimer re-arms the preemption driver for a full quantum on
// every switch. Grounded on uthreads.cpp's jumpToThread calling
// setitimer again on every switch rather than relying on the timer's own
// periodic interval, so a thread that yields early doesn't shortchange
// its successor.
func (s *Scheduler) resetDriverTimer() {
	s.driver.Stop()
	_ = s.driver.Start(s.quantum, s.tick)
}
