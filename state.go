package uthreads

// ThreadState is the current scheduling state of a thread. Exactly one of
// Ready, Running, Blocked applies at any time; "sleeping" is not a fourth
// state, it is an orthogonal attribute tracked in the scheduler's sleep
// map (see scheduler.go).
type ThreadState int

const (
	// Ready threads are eligible to run and sit in the ready queue,
	// unless they are sleeping, in which case they are excluded from the
	// queue until their countdown expires.
	Ready ThreadState = iota
	// Running is held by exactly one thread at a time.
	Running
	// Blocked threads were explicitly removed from scheduling by Block.
	Blocked
)

// String implements fmt.Stringer.
func (s ThreadState) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNKNOWN"
	}
}
