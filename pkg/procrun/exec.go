package procrun

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// Runner executes CommandSpecs. The zero value is ready to use.
type Runner struct {
	// Env holds extra environment variables for every child process.
	Env map[string]string

	// NotFoundHint is appended to the "could not be found" message, e.g.
	// "Consider using the node_path setting".
	NotFoundHint string

	// IgnoreMissingDir restores the legacy behaviour for a working
	// directory that no longer exists: nothing runs and Start never calls
	// its completion callback. When false a missing Dir yields a SpawnFailure.
	IgnoreMissingDir bool

	// Logger receives debug-level lifecycle events. Nil discards them.
	Logger *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Start runs spec on a new goroutine and calls done with the result from
// that goroutine. Every call gets its own goroutine; there is no pooling
// and no queueing. When the working directory has vanished and
// IgnoreMissingDir is set, done is never called.
func (r *Runner) Start(spec CommandSpec, done func(Outcome, error)) {
	go func() {
		out, err := r.Run(spec)
		if errors.Is(err, ErrSkipped) {
			r.logger().Debug("working directory vanished, skipping", "dir", spec.Dir)
			return
		}
		done(out, err)
	}()
}

// Run executes spec synchronously and waits for it to exit.
//
// A non-nil error is returned only for conditions that must not be
// absorbed: a spawn error other than "not found" (as *FatalError), an
// empty Argv, or ErrSkipped. Everything else is reported as an Outcome.
func (r *Runner) Run(spec CommandSpec) (Outcome, error) {
	if len(spec.Argv) == 0 {
		return nil, fmt.Errorf("procrun: empty argv")
	}

	if spec.Dir != "" && !isDir(spec.Dir) {
		if r.IgnoreMissingDir {
			return nil, ErrSkipped
		}
		return SpawnFailure{Reason: fmt.Sprintf("working directory not found: %s", spec.Dir)}, nil
	}

	executable := spec.Executable()
	cmd := exec.Command(executable, spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = PrepareEnv(r.Env)

	if spec.Stdin != nil {
		cmd.Stdin = bytes.NewReader(spec.Stdin)
	}

	// One writer for both streams: exec serialises writes when Stdout and
	// Stderr are the same value, so the interleaving is preserved.
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	log := r.logger().With("executable", executable)
	log.Debug("starting command", "args", spec.Argv[1:], "dir", spec.Dir)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if isNotFound(err) {
			log.Debug("executable not found", "err", err)
			if reason, ok := missingInterpreterReason(executable, r.NotFoundHint); ok {
				return SpawnFailure{Reason: reason}, nil
			}
			return SpawnFailure{Reason: notFoundReason(executable, r.NotFoundHint)}, nil
		}
		return nil, &FatalError{Executable: executable, Err: err}
	}

	waitErr := cmd.Wait()
	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &FatalError{Executable: executable, Err: waitErr}
		}
		exitCode = exitErr.ExitCode()
	}
	log.Debug("command finished",
		"exit_code", exitCode,
		"bytes", output.Len(),
		"duration", time.Since(start).Round(time.Millisecond))

	if output.Len() == 0 && exitCode != 0 {
		return ProcessFailure{ExitCode: exitCode}, nil
	}

	text, err := Decode(output.Bytes(), spec.FallbackEncoding)
	if err != nil {
		return SpawnFailure{Reason: fmt.Sprintf("could not decode output of %s: %v", executable, err)}, nil
	}
	return Success{Text: text}, nil
}

// isNotFound reports whether a Start error means the executable is missing.
func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
