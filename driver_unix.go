//go:build unix

package uthreads

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// unixDriver realizes preemptionDriver with the same host facility the
// original library used: a virtual-time interval timer (ITIMER_VIRTUAL)
// raising SIGVTALRM, caught here via os/signal rather than a C-style
// sigaction handler. Grounded on original_source/uthreads.cpp's
// timerInitialize and thread.cpp's use of sigsetjmp's saved mask.
type unixDriver struct {
	sigCh  chan os.Signal
	stopCh chan struct{}
}

func newPlatformDriver() preemptionDriver {
	return &unixDriver{}
}

func (d *unixDriver) Start(quantum time.Duration, onTick func()) error {
	d.sigCh = make(chan os.Signal, 1)
	d.stopCh = make(chan struct{})
	signal.Notify(d.sigCh, syscall.SIGVTALRM)

	it := unix.Itimerval{
		Value:    unix.NsecToTimeval(quantum.Nanoseconds()),
		Interval: unix.NsecToTimeval(quantum.Nanoseconds()),
	}
	if err := unix.Setitimer(unix.ITIMER_VIRTUAL, &it, nil); err != nil {
		return &SystemError{Op: "Setitimer", Message: "settimer error.", Cause: err}
	}

	go func() {
		for {
			select {
			case <-d.sigCh:
				onTick()
			case <-d.stopCh:
				return
			}
		}
	}()
	return nil
}

func (d *unixDriver) Stop() {
	if d.sigCh != nil {
		signal.Stop(d.sigCh)
	}
	if d.stopCh != nil {
		close(d.stopCh)
	}
	var zero unix.Itimerval
	_ = unix.Setitimer(unix.ITIMER_VIRTUAL, &zero, nil)
}

// MaskPreemption blocks (mask true) or unblocks (mask false)
// delivery of SIGVTALRM, so a thread can protect a critical section from
// being preempted mid-way. It goes through os/signal rather than a raw sigprocmask/
// Sigset_t call: signal.Ignore(SIGVTALRM) drops the signal at the kernel
// before it reaches any channel, and re-registering with signal.Notify
// resumes delivery, without this package depending on the per-platform
// bit layout of unix.Sigset_t. Kept for host-facility fidelity; the
// run-loop's single-goroutine command processing is what actually
// prevents a tick command from interleaving with another command (see
// scheduler.go), so this call is best-effort.
func (d *unixDriver) MaskPreemption(block bool) {
	if block {
		signal.Ignore(syscall.SIGVTALRM)
		return
	}
	if d.sigCh != nil {
		signal.Notify(d.sigCh, syscall.SIGVTALRM)
	}
}
