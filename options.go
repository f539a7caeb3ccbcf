package uthreads

import "time"

// schedulerOptions is the resolved configuration a Scheduler is built
// from. Grounded on joeycumines-go-utilpkg/eventloop/options.go's
// loopOptions struct.
type schedulerOptions struct {
	maxThreads int
	driver     preemptionDriver
	logger     Logger
	quantum    time.Duration
}

func defaultOptions() schedulerOptions {
	return schedulerOptions{
		maxThreads: MaxThreads,
		driver:     newPlatformDriver(),
		logger:     noopLogger{},
	}
}

// Option configures a Scheduler at construction. Grounded on
// joeycumines-go-utilpkg/eventloop/options.go's LoopOption interface.
type Option interface {
	apply(*schedulerOptions)
}

type optionFunc func(*schedulerOptions)

func (f optionFunc) apply(o *schedulerOptions) { f(o) }

// WithMaxThreads overrides MaxThreads for tests that want to exercise the
// table-full library error without spawning 99 goroutines.
func WithMaxThreads(n int) Option {
	return optionFunc(func(o *schedulerOptions) { o.maxThreads = n })
}

// WithDriver overrides the preemption driver, e.g. with a manualDriver
// for deterministic tests.
func WithDriver(d preemptionDriver) Option {
	return optionFunc(func(o *schedulerOptions) { o.driver = d })
}

// WithLogger installs a structured logger for scheduler lifecycle
// events. Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *schedulerOptions) { o.logger = l })
}

func resolveOptions(opts []Option) schedulerOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}
