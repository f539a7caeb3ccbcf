package uthreads

import "sync"

// The original library exposes free functions over process-global state
// because a signal handler has no way to receive a receiver argument;
// this package carries that same shape forward as a single process-wide
// Scheduler. Construct a *Scheduler directly (New) instead if a test
// needs more than one independent instance in the same process.
var (
	defaultMu    sync.Mutex
	defaultSched *Scheduler
)

// Configure installs a fresh default Scheduler built from opts. Call it
// before Init if anything but the defaults is needed (a manualDriver for
// tests, a non-default logger, a smaller MaxThreads).
func Configure(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSched = New(opts...)
}

func active() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSched == nil {
		defaultSched = New()
	}
	return defaultSched
}

// Init starts the default scheduler. Must be called exactly once before
// any other operation below.
func Init(quantumUsecs int) int { return active().Init(quantumUsecs) }

// Spawn creates a new thread running entry on the default scheduler.
func Spawn(entry func()) int { return active().Spawn(entry) }

// Terminate destroys thread tid. Does not return if tid == 0.
func Terminate(tid int) int { return active().Terminate(tid) }

// Block moves thread tid to BLOCKED.
func Block(tid int) int { return active().Block(tid) }

// Resume moves thread tid back to READY.
func Resume(tid int) int { return active().Resume(tid) }

// Sleep takes the calling thread off the ready queue for numQuantums
// quanta.
func Sleep(numQuantums int) int { return active().Sleep(numQuantums) }

// GetTid returns the calling thread's id.
func GetTid() int { return active().GetTid() }

// GetTotalQuantums returns the number of quanta elapsed since Init.
func GetTotalQuantums() int { return active().GetTotalQuantums() }

// GetQuantums returns how many quanta thread tid has run for.
func GetQuantums(tid int) int { return active().GetQuantums(tid) }

// LastError returns the most recently reported *LibraryError or
// *SystemError on the default scheduler, or nil if none has occurred yet.
func LastError() error { return active().LastError() }
