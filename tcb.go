package uthreads

// entryPoint is the user-supplied function a spawned thread begins
// executing at. The main thread (id 0) has none; it is already running
// at the point init was called.
type entryPoint func()

// tcb is a Thread Control Block: the per-thread record the scheduler
// mutates. It owns stack exclusively for its entire lifetime; releasing a
// tcb releases its stack.
type tcb struct {
	id       int
	state    ThreadState
	quantums int

	// stack is a fixed-size arena this tcb exclusively owns, mirroring
	// the original's `new char[STACK_SIZE]` ownership model. Go's own
	// goroutine stacks do the actual execution-stack work; this arena
	// exists purely so the library keeps the same allocate-at-spawn,
	// release-at-termination ownership story as the thread it models.
	stack []byte

	entry entryPoint

	// ctx is this thread's saved continuation: see park.go.
	ctx *context

	// done is not set or read anywhere in this package; runEntry
	// (ops.go) recognizes an already-terminated thread by its ctx's
	// closed kill channel instead.
	done bool
}

// newMainTCB constructs the tcb for id 0. It owns no stack: the main
// thread runs on the process's own stack rather than an allocated arena,
// and begins RUNNING with its current (first) quantum already counted.
func newMainTCB() *tcb {
	return &tcb{
		id:       MainThreadID,
		state:    Running,
		quantums: 1,
		ctx:      newContext(),
	}
}

// newSpawnedTCB constructs a tcb for a newly spawned thread: READY,
// quantums = 0, owning a fresh STACK_SIZE arena.
func newSpawnedTCB(id int, entry entryPoint) *tcb {
	return &tcb{
		id:       id,
		state:    Ready,
		quantums: 0,
		stack:    make([]byte, StackSize),
		entry:    entry,
		ctx:      newContext(),
	}
}

// incrementQuantum records that this thread just became RUNNING.
func (t *tcb) incrementQuantum() {
	t.quantums++
}

// release frees this tcb's owned stack. The arena is never used as an
// execution stack, so Terminate (ops.go) releases it before picking the
// next thread, even when the terminated thread is the running one.
func (t *tcb) release() {
	t.stack = nil
}
