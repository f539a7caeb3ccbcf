package uthreads

// context is a thread's saved continuation: the Go realization of the
// original's sigjmp_buf (stack pointer, program counter, callee-saved
// registers, saved signal mask). A channel handoff stands in for the
// register save/restore: parking blocks the calling goroutine until
// somebody readies it, the same observable contract as the original's
// Save/Restore — a later Restore causes the earlier Save to return. This
// is a single-consumer specialization of the parking idiom
// in ZenQ's ThreadParker (alphadose-ZenQ/thread_parker.go): since
// the scheduler already serializes every access to a tcb, the lock-free
// MPSC queue backing ThreadParker has no concurrent parkers to arbitrate
// between, so a pair of channels replaces it: resume, buffered by one,
// and kill, closed by terminate.
type context struct {
	resume chan struct{}
	kill   chan struct{}

	// maskedOnPark records whether the preemption signal was masked at
	// the moment this context was saved, so restoring it resumes with
	// the same masking state: a thread preempted mid critical-section
	// must resume still masked.
	maskedOnPark bool
}

// newContext allocates an unstarted continuation. resume is buffered by
// one: a ready() that arrives before its matching park() (the preemption
// driver waking the next thread while the outgoing one hasn't reached a
// checkpoint yet — see doc.go's Preemption model) is remembered rather
// than lost or deadlocked on, so the eventual park() returns immediately
// instead of blocking on a wakeup that already happened.
func newContext() *context {
	return &context{resume: make(chan struct{}, 1), kill: make(chan struct{})}
}

// park blocks the calling goroutine until ready or terminate is called on
// the same context. Must be called on the goroutine whose continuation is
// being saved: saving a continuation is only meaningful from inside the
// thread it belongs to. It reports false if the context
// was terminated while parked rather than scheduled to run again — the
// case of a thread terminated by another thread while it sat in the
// ready queue or blocked set, never itself reaching RUNNING again.
func (c *context) park(maskedNow bool) bool {
	c.maskedOnPark = maskedNow
	select {
	case <-c.resume:
		return true
	case <-c.kill:
		return false
	}
}

// ready resumes a previously parked context, causing its park call to
// return true. Safe to call from any goroutine, and never blocks: if a
// wakeup is already pending in the one-slot buffer (the thread was
// switched to again before it reached park), the new one is dropped and
// the next park still returns immediately. The scheduler never calls
// this for the main thread's context, which is never parked in the first
// place — see scheduler.go's switchTo.
func (c *context) ready() {
	select {
	case c.resume <- struct{}{}:
	default:
	}
}

// terminate releases a context parked forever: its thread was destroyed
// by another thread and will never be scheduled again. Safe to call even
// if the context was never parked (e.g. the running thread terminating
// itself, which never entered park at all for this lifetime).
func (c *context) terminate() {
	select {
	case <-c.kill:
		// already terminated; avoid a double close panic.
	default:
		close(c.kill)
	}
}
