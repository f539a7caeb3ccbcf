package uthreads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// switchLogger is a Logger that republishes every "switch" event onto a
// channel, giving tests a way to observe scheduler transitions without
// polling. The send is non-blocking: this Debug call runs synchronously
// inside the run loop's goroutine (see scheduler.go's switchTo), so a
// blocking send here would freeze the scheduler itself.
type switchLogger struct {
	ch chan int
}

func newSwitchLogger() *switchLogger {
	return &switchLogger{ch: make(chan int, 4096)}
}

func (l *switchLogger) Debug(msg string, kv ...any) {
	if msg != "switch" {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i] != "tid" {
			continue
		}
		if tid, ok := kv[i+1].(int); ok {
			select {
			case l.ch <- tid:
			default:
			}
		}
	}
}

// Info, Warn, Error are unused by the scheduler itself (it only ever logs
// at Debug) and are no-ops here; switchLogger only needs to satisfy
// Logger to be installed via WithLogger.
func (l *switchLogger) Info(string, ...any)  {}
func (l *switchLogger) Warn(string, ...any)  {}
func (l *switchLogger) Error(string, ...any) {}

// newTestScheduler builds a Scheduler wired to a manualDriver and a
// switchLogger, with a small MaxThreads so table-full and id-reuse
// behavior is exercisable without spawning anywhere near 99 goroutines.
func newTestScheduler(t *testing.T, maxThreads int) (*Scheduler, *manualDriver, *switchLogger) {
	t.Helper()
	drv := newManualDriver()
	sl := newSwitchLogger()
	sched := New(WithDriver(drv), WithMaxThreads(maxThreads), WithLogger(sl))
	require.Equal(t, success, sched.Init(1000))
	return sched, drv, sl
}

// autoUnstickMain fires another tick every time the main thread becomes
// current. Main has no real goroutine of its own and no voluntary way to
// yield, so once a population of cooperatively-yielding spawned threads
// rotates main back to the front of the ready queue nothing moves again
// without an external tick. Reacting only to an already-committed switch
// into main is safe: by the time that event is observed, the thread that
// just relinquished is parked and nothing else in the system is
// executing library code, so the tick this fires can never preempt a
// goroutine still mid-flight toward its own next library call — the
// hazard to avoid given this library's Go realization of preemption (see
// doc.go's Preemption model).
func autoUnstickMain(drv *manualDriver, sl *switchLogger) (stop func()) {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case tid := <-sl.ch:
				if tid == MainThreadID {
					drv.Fire()
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// waitForSwitch blocks until sl reports a switch to want, or fails the
// test after timeout. Used where a test must not proceed until a
// specific transition has been fully committed by the run loop.
func waitForSwitch(t *testing.T, sl *switchLogger, want int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case tid := <-sl.ch:
			if tid == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a switch to tid %d", want)
		}
	}
}

// parkForever blocks the calling (spawned-thread) goroutine on its own
// context without releasing its tid, by blocking itself. Used so a
// spawned thread's goroutine has somewhere quiescent to sit once a test
// is done driving it.
func parkForever(sched *Scheduler, self int) {
	sched.Block(self)
}

// waitForAll receives one value from each channel, in order, failing the
// test instead of hanging forever if any of them never sends.
func waitForAll(t *testing.T, chs ...<-chan int) []int {
	t.Helper()
	out := make([]int, len(chs))
	for i, ch := range chs {
		select {
		case v := <-ch:
			out[i] = v
		case <-time.After(5 * time.Second):
			t.Fatalf("channel %d never produced a value", i)
		}
	}
	return out
}

// spawnCooperative spawns a thread whose entry calls Sleep(0) turns times
// (yielding to the rest of the ready population each time, per the
// cooperative idiom documented in doc.go), then blocks itself and reports
// its own quantum count on the returned channel. self is captured from
// Spawn's return value rather than via GetTid, since the entry's first
// statement running concurrently with the id being assigned is exactly
// the kind of ordering this suite avoids relying on.
func spawnCooperative(sched *Scheduler, turns int) (tid int, quantums <-chan int) {
	ch := make(chan int, 1)
	var self int
	self = sched.Spawn(func() {
		for i := 0; i < turns; i++ {
			sched.Sleep(0)
		}
		ch <- sched.GetQuantums(self)
		parkForever(sched, self)
	})
	return self, ch
}

func TestExclusionOfReadyAndBlocked(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 10)
	id := sched.Spawn(func() { select {} })
	require.Equal(t, success, sched.Block(id))

	res := sched.submit(func() (opResult, *context) {
		tc := sched.tcbs[id]
		inReady := false
		for _, v := range sched.ready {
			if v == id {
				inReady = true
			}
		}
		return opResult{value: boolToInt(tc.state == Blocked && !inReady)}, nil
	})
	assert.Equal(t, 1, res.value, "a blocked thread must never also sit in the ready queue")
}

func TestUniqueRunning(t *testing.T) {
	sched, drv, _ := newTestScheduler(t, 10)
	sched.Spawn(func() { select {} })
	sched.Spawn(func() { select {} })
	drv.Fire()

	res := sched.submit(func() (opResult, *context) {
		running := 0
		for _, tc := range sched.tcbs {
			if tc.state == Running {
				running++
			}
		}
		return opResult{value: running}, nil
	})
	assert.Equal(t, 1, res.value)
}

func TestIdReuseSmallestFirst(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 10)
	a := sched.Spawn(func() { select {} })
	b := sched.Spawn(func() { select {} })
	c := sched.Spawn(func() { select {} })
	require.Equal(t, 1, a)
	require.Equal(t, 2, b)
	require.Equal(t, 3, c)

	require.Equal(t, success, sched.Terminate(b))
	reused := sched.Spawn(func() { select {} })
	assert.Equal(t, b, reused)
}

func TestQuantumAccounting(t *testing.T) {
	sched, drv, sl := newTestScheduler(t, 10)
	_, q1 := spawnCooperative(sched, 2)
	_, q2 := spawnCooperative(sched, 2)
	stop := autoUnstickMain(drv, sl)
	defer stop()
	drv.Fire() // hand off from main; autoUnstickMain keeps it flowing from here.

	waitForAll(t, q1, q2)

	// Read total_quantums and every live tcb's own count inside one
	// scheduler command so the comparison is atomic with respect to any
	// further switches still in flight (each pickNext call increments
	// total_quantums exactly once and exactly one tcb's quantums exactly
	// once, so the two stay equal at every instant as long as no thread
	// has been terminated).
	res := sched.submit(func() (opResult, *context) {
		sum := 0
		for _, tc := range sched.tcbs {
			sum += tc.quantums
		}
		return opResult{value: boolToInt(sum == sched.totalQuantums)}, nil
	})
	assert.Equal(t, 1, res.value, "sum of live quantums must equal total_quantums while no thread has been terminated")
}

func TestRoundRobinFairness(t *testing.T) {
	sched, drv, sl := newTestScheduler(t, 10)
	const k = 3
	results := make([]<-chan int, k)
	for i := range results {
		_, ch := spawnCooperative(sched, 4)
		results[i] = ch
	}
	stop := autoUnstickMain(drv, sl)
	defer stop()
	drv.Fire()

	counts := waitForAll(t, results...)
	minC, maxC := counts[0], counts[0]
	for _, c := range counts {
		if c < minC {
			minC = c
		}
		if c > maxC {
			maxC = c
		}
	}
	assert.LessOrEqual(t, maxC-minC, 1, "quantum counts across an ever-ready population must stay within 1 of each other")
}

func TestSleepRelease(t *testing.T) {
	sched, drv, sl := newTestScheduler(t, 10)
	const k = 2
	const n = 3
	// expireSleepers decrements every sleeper's countdown on every
	// pickNext call, tick or voluntary, so a companion that yields at
	// least n times guarantees the sleeper's countdown reaches zero.
	const companionTurns = n + 2

	sleepResultCh := make(chan int, 1)

	for i := 0; i < k-1; i++ {
		var self int
		self = sched.Spawn(func() {
			for i := 0; i < companionTurns; i++ {
				sched.Sleep(0)
			}
			parkForever(sched, self)
		})
	}
	var sleeperID int
	sleeperID = sched.Spawn(func() {
		sleepResultCh <- sched.Sleep(n)
		parkForever(sched, sleeperID)
	})

	stop := autoUnstickMain(drv, sl)
	defer stop()
	drv.Fire() // hand off from main; everything after is cooperative.

	select {
	case res := <-sleepResultCh:
		assert.Equal(t, success, res)
	case <-time.After(5 * time.Second):
		t.Fatal("sleeping thread never ran again")
	}
}

func TestBlockIdempotence(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 10)
	id := sched.Spawn(func() { select {} })
	require.Equal(t, success, sched.Block(id))

	before := sched.submit(func() (opResult, *context) {
		return opResult{value: int(sched.tcbs[id].state)}, nil
	})
	require.Equal(t, success, sched.Block(id))
	after := sched.submit(func() (opResult, *context) {
		return opResult{value: int(sched.tcbs[id].state)}, nil
	})
	assert.Equal(t, before.value, after.value)
	assert.Equal(t, int(Blocked), after.value)
}

func TestResumeOnNonBlockedIsNoop(t *testing.T) {
	sched, _, _ := newTestScheduler(t, 10)
	id := sched.Spawn(func() { select {} })

	before := sched.submit(func() (opResult, *context) {
		return opResult{value: int(sched.tcbs[id].state)}, nil
	})
	require.Equal(t, success, sched.Resume(id))
	after := sched.submit(func() (opResult, *context) {
		return opResult{value: int(sched.tcbs[id].state)}, nil
	})
	assert.Equal(t, before.value, after.value)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
