// Package uthreads implements a user-level preemptive thread library that
// multiplexes many independent user threads onto a single OS execution
// context. Scheduling is round-robin and driven by a virtual-time interval
// signal the library installs itself.
//
// # Architecture
//
// Five components compose the core, mirroring the original C++
// implementation this library was ported from:
//
//   - a [tcb] per thread: identity, state, quantum count, an owned stack
//     arena, and a saved continuation
//   - [park]/[ready]: the context-switch primitive, implemented as a
//     per-tcb channel handoff rather than raw register save/restore
//   - [Scheduler]: the TCB table, ready queue, sleep map and running
//     pointer (blocked threads are marked BLOCKED on their tcb), all owned
//     by a single run-loop goroutine
//   - the scheduler operations (spawn, terminate, block, resume, sleep,
//     tick, pick-next), each processed as one serialized command
//   - a [preemptionDriver]: a real POSIX virtual-timer + signal on unix,
//     a ticker fallback on Windows, and a manual driver for tests
//
// # Preemption model
//
// Go gives user code no portable way to interrupt another already-running
// goroutine without its cooperation. A spawned entry function is preempted
// exactly at its next suspension point: a call into the library that parks
// it (Block or Sleep of itself), or the arrival of a timer tick while it
// is already parked awaiting its turn. Terminate of itself hands the CPU
// on without parking the caller's goroutine, which keeps executing
// whatever follows the call. An entry function that runs a long
// computation without calling into the library will not be externally
// interrupted mid-computation. Well-behaved entry functions call a
// library operation between units of work so the round-robin schedule
// can actually take effect.
//
// # Concurrency
//
// All scheduler state is owned by exactly one goroutine. Every public
// operation sends a command to that goroutine and waits for its reply;
// this serialization is the library's critical section — a command is
// never interleaved with another, which is exactly what the original's
// signal masking guaranteed for free on a single OS thread.
package uthreads
