package uthreads

const (
	// MaxThreads is the maximum number of live threads, including the
	// main thread. Thread ids fall in [0, MaxThreads).
	MaxThreads = 100

	// StackSize is the size, in bytes, of the arena each spawned thread
	// exclusively owns for its lifetime.
	StackSize = 4096

	// MainThreadID is the reserved id of the thread that called Init.
	MainThreadID = 0
)

// return sentinels for the int-returning public API.
const (
	success = 0
	failure = -1
)
