// Package procrun runs a single external command off the caller's goroutine,
// captures its merged stdout/stderr, decodes it to text and reports the
// result as a tagged Outcome.
package procrun

import (
	"errors"
	"fmt"
)

// CommandSpec fully describes one external process invocation.
// It is passed by value and never mutated after construction.
type CommandSpec struct {
	// Argv is the executable path followed by its arguments.
	Argv []string

	// Dir is the working directory for the child process.
	// If empty, the current working directory is used.
	Dir string

	// Stdin is written to the child's standard input.
	// Nil means stdin is connected to the null device.
	Stdin []byte

	// FallbackEncoding names the encoding tried when the output is not
	// valid UTF-8 (e.g. "cp1252", "latin1", "shift_jis").
	FallbackEncoding string
}

// Executable returns the first element of Argv, or "" for an empty spec.
func (s CommandSpec) Executable() string {
	if len(s.Argv) == 0 {
		return ""
	}
	return s.Argv[0]
}

// Outcome is the result of running one CommandSpec. It is one of
// Success, SpawnFailure or ProcessFailure.
type Outcome interface {
	outcome()
}

// Success holds the decoded output of a process that produced output,
// whatever its exit status, or that exited cleanly without output.
type Success struct {
	Text string
}

// SpawnFailure means the command could not be run or its output could not
// be decoded. Reason is meant for display to the user as-is.
type SpawnFailure struct {
	Reason string
}

// ProcessFailure means the process exited abnormally without producing
// any output.
type ProcessFailure struct {
	ExitCode int
	Text     string
}

func (Success) outcome()        {}
func (SpawnFailure) outcome()   {}
func (ProcessFailure) outcome() {}

// ErrSkipped is returned by Run when the working directory is missing and
// the runner is configured to ignore vanished directories.
var ErrSkipped = errors.New("procrun: working directory vanished, command skipped")

// FatalError wraps an OS-level spawn error that is not "executable not
// found". It is never turned into an Outcome; callers are expected to log
// or crash-report it.
type FatalError struct {
	Executable string
	Err        error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("failed to start command %q: %v", e.Executable, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
