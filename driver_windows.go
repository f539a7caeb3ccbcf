//go:build windows

package uthreads

import "time"

// windowsDriver realizes preemptionDriver with a time.Ticker instead of
// ITIMER_VIRTUAL/SIGVTALRM, which have no Windows equivalent. Grounded on
// the poller_windows.go / poller_linux.go split in
// joeycumines-go-utilpkg/eventloop: one interface, a platform file per
// realization, selected by build tag rather than runtime branching.
//
// The ticker measures wall-clock time rather than the thread's own CPU
// time, so quantum accounting is only as exact as the original's virtual
// timer on a mostly-idle host; this is an accepted platform difference,
// not a semantic one.
type windowsDriver struct {
	ticker *time.Ticker
	stopCh chan struct{}
}

func newPlatformDriver() preemptionDriver {
	return &windowsDriver{}
}

func (d *windowsDriver) Start(quantum time.Duration, onTick func()) error {
	d.ticker = time.NewTicker(quantum)
	d.stopCh = make(chan struct{})

	go func() {
		for {
			select {
			case <-d.ticker.C:
				onTick()
			case <-d.stopCh:
				return
			}
		}
	}()
	return nil
}

func (d *windowsDriver) Stop() {
	if d.ticker != nil {
		d.ticker.Stop()
	}
	if d.stopCh != nil {
		close(d.stopCh)
	}
}

// MaskPreemption is a no-op on Windows: there is no signal to mask, and
// the run-loop's single-goroutine command processing already guarantees
// commands never interleave.
func (d *windowsDriver) MaskPreemption(bool) {}
