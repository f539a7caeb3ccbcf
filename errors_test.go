package uthreads

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryErrorMessageFormatting(t *testing.T) {
	err := &LibraryError{Op: "Spawn", Message: "boom"}
	assert.Equal(t, "Spawn: boom", err.Error())

	bare := &LibraryError{Message: "boom"}
	assert.Equal(t, "boom", bare.Error())
}

func TestLibraryErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := &LibraryError{Op: "Init", Message: "wrapped", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestSystemErrorMessageFormatting(t *testing.T) {
	err := &SystemError{Op: "Init", Message: "timer arm failed"}
	assert.Equal(t, "Init: timer arm failed", err.Error())

	bare := &SystemError{Message: "timer arm failed"}
	assert.Equal(t, "timer arm failed", bare.Error())
}

func TestSystemErrorUnwrap(t *testing.T) {
	cause := errors.New("EPERM")
	err := &SystemError{Op: "Init", Message: "wrapped", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

// reportSystemErrorAndExit calls os.Exit and so cannot be exercised
// in-process; Terminate(MainThreadID) similarly cannot be tested here for
// the same reason (see ops.go). Only reportLibraryError's stderr output is
// covered here.

func TestReportLibraryErrorWritesMandatedFormat(t *testing.T) {
	restore := redirectStderr(t)
	defer restore()

	err := reportLibraryError("Block", "Block error, illegal tid!")
	assert.Equal(t, "Block", err.Op)
	assert.Equal(t, "Block error, illegal tid!", err.Message)

	out := restore()
	assert.Equal(t, "thread library error: Block error, illegal tid!\n", out)
}

// redirectStderr swaps os.Stderr for a pipe and returns a function that,
// on first call, restores os.Stderr and returns whatever was written.
// Calling it again after that returns the same captured string, so a
// deferred restore and an explicit capture read can share one call site.
func redirectStderr(t *testing.T) func() string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stderr
	os.Stderr = w

	var captured string
	done := false
	return func() string {
		if done {
			return captured
		}
		os.Stderr = orig
		w.Close()
		b, _ := io.ReadAll(r)
		captured = string(b)
		done = true
		return captured
	}
}
