package uthreads

import "time"

// preemptionDriver arms the virtual-time interval that drives
// preemption and delivers a tick to onTick for every quantum that
// elapses. Grounded on the per-platform poller interface in
// joeycumines-go-utilpkg/eventloop/poller.go: one small interface,
// several platform-specific realizations, plus a test double.
type preemptionDriver interface {
	// Start arms the driver for the given quantum and begins invoking
	// onTick once per quantum until Stop is called. onTick must be
	// cheap and non-blocking; it enqueues a tick command rather than
	// running scheduler logic itself.
	Start(quantum time.Duration, onTick func()) error

	// Stop disarms the driver. Safe to call multiple times.
	Stop()

	// MaskPreemption blocks (true) or unblocks (false) delivery of the
	// preemption signal, for drivers that have a real signal to mask (the
	// unix driver does so process-wide through os/signal, not per OS
	// thread). It is best-effort: the run-loop's
	// single-goroutine command processing is what actually guarantees
	// commands never interleave (see scheduler.go).
	MaskPreemption(block bool)
}

// manualDriver is a preemptionDriver with no real timer: tests call Fire
// to simulate a quantum elapsing, giving deterministic, single-stepped
// control over scheduling scenarios without waiting on wall-clock signals.
type manualDriver struct {
	onTick func()
}

func newManualDriver() *manualDriver {
	return &manualDriver{}
}

func (d *manualDriver) Start(_ time.Duration, onTick func()) error {
	d.onTick = onTick
	return nil
}

func (d *manualDriver) Stop() {
	d.onTick = nil
}

// MaskPreemption is a no-op: manualDriver has no real signal to mask,
// Fire is always called explicitly by the test driving it.
func (d *manualDriver) MaskPreemption(bool) {}

// Fire simulates one quantum elapsing.
func (d *manualDriver) Fire() {
	if d.onTick != nil {
		d.onTick()
	}
}
