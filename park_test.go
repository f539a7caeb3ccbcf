package uthreads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParkReadyRoundTrip(t *testing.T) {
	c := newContext()
	done := make(chan bool, 1)
	go func() { done <- c.park(false) }()

	// give the goroutine a chance to block on park before readying it.
	time.Sleep(10 * time.Millisecond)
	c.ready()

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("park did not return after ready")
	}
}

func TestReadyBeforeParkDoesNotDeadlock(t *testing.T) {
	c := newContext()
	c.ready() // arrives before any park call; must not block thanks to the buffer.

	done := make(chan bool, 1)
	go func() { done <- c.park(false) }()

	select {
	case ok := <-done:
		assert.True(t, ok, "buffered resume token should satisfy the later park")
	case <-time.After(time.Second):
		t.Fatal("park blocked despite a resume already pending")
	}
}

func TestTerminateUnblocksParkedContext(t *testing.T) {
	c := newContext()
	done := make(chan bool, 1)
	go func() { done <- c.park(false) }()

	time.Sleep(10 * time.Millisecond)
	c.terminate()

	select {
	case ok := <-done:
		assert.False(t, ok, "a killed context must report false from park")
	case <-time.After(time.Second):
		t.Fatal("park did not return after terminate")
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	c := newContext()
	require.NotPanics(t, func() {
		c.terminate()
		c.terminate()
		c.terminate()
	})
}

func TestTerminateAfterReadyDoesNotPanic(t *testing.T) {
	c := newContext()
	c.ready()
	require.NotPanics(t, func() {
		c.terminate()
	})
}
