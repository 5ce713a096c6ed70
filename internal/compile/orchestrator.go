// Package compile stages editor buffers, runs the TypeScript compiler on
// them in the background and presents the classified result on the UI
// goroutine.
package compile

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sibikrish3000/tscbridge/internal/config"
	"github.com/sibikrish3000/tscbridge/pkg/procrun"
	"github.com/sibikrish3000/tscbridge/pkg/uiloop"
)

// State names the stage a job is in. Used for logging only.
type State string

const (
	StateStaging     State = "staging"
	StateRunning     State = "running"
	StateClassifying State = "classifying"
	StatePresenting  State = "presenting"
	StateDone        State = "done"
)

// ScratchName is the name given to scratch buffers holding compiler output.
const ScratchName = "TypeScript Compiler"

// Starter launches a command in the background and reports its outcome.
// *procrun.Runner implements it.
type Starter interface {
	Start(spec procrun.CommandSpec, done func(procrun.Outcome, error))
}

// Completion describes how a job ended. It is handed to Options.OnDone on
// the UI goroutine after presentation.
type Completion struct {
	Job     Job
	Outcome procrun.Outcome

	// Result is set when Classified is true, i.e. the runner succeeded.
	Result     Result
	Classified bool

	// Err is a fatal runner error or a presentation error.
	Err error
}

// Options tunes an Orchestrator. The zero value is usable.
type Options struct {
	Logger *slog.Logger

	// Runner overrides the process runner built from the config.
	Runner Starter

	// Classify overrides the text-based classification.
	Classify Classifier

	// OnDone is called on the UI goroutine once a job has been presented.
	OnDone func(Completion)
}

// Orchestrator drives compile jobs. It holds no per-job state, so one
// instance serves any number of concurrent compiles.
type Orchestrator struct {
	cfg      config.Config
	host     Host
	ui       *uiloop.Dispatcher
	runner   Starter
	classify Classifier
	onDone   func(Completion)
	logger   *slog.Logger
}

// New creates an Orchestrator presenting results on ui through host.
func New(cfg config.Config, host Host, ui *uiloop.Dispatcher, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	runner := opts.Runner
	if runner == nil {
		runner = &procrun.Runner{
			Env:          cfg.Env,
			NotFoundHint: fmt.Sprintf("Consider using the %s and %s settings", config.KeyNodePath, config.KeyTypeScriptPath),
			Logger:       logger,
		}
	}

	classify := opts.Classify
	if classify == nil {
		classify = Classify
	}

	return &Orchestrator{
		cfg:      cfg,
		host:     host,
		ui:       ui,
		runner:   runner,
		classify: classify,
		onDone:   opts.OnDone,
		logger:   logger,
	}
}

// Compile stages buf and starts the compiler in the background. It returns
// as soon as the process has been handed off; the result is presented
// later on the UI goroutine. Staging errors are returned directly.
func (o *Orchestrator) Compile(buf Buffer) (Job, error) {
	job, err := Stage(buf, o.cfg)
	if err != nil {
		return Job{}, err
	}
	log := o.logger.With("job", job.ID.String())
	log.Debug("job staged", "state", StateStaging,
		"source", job.SourcePath, "dest", job.DestPath, "unsaved", job.Unsaved)

	spec := job.Command(o.cfg)
	log.Debug("job submitted", "state", StateRunning, "argv", spec.Argv)

	o.runner.Start(spec, func(out procrun.Outcome, err error) {
		o.finish(job, out, err)
	})
	return job, nil
}

// finish runs on the runner's goroutine. It classifies the outcome and
// hands the completion to the UI goroutine.
func (o *Orchestrator) finish(job Job, out procrun.Outcome, err error) {
	log := o.logger.With("job", job.ID.String())
	c := Completion{Job: job, Outcome: out, Err: err}

	if s, ok := out.(procrun.Success); ok && err == nil {
		log.Debug("classifying output", "state", StateClassifying)
		c.Result = o.classify(s.Text, job.DestExists())
		c.Classified = true
	}

	if !o.cfg.KeepTemp {
		if rerr := job.RemoveStaged(); rerr != nil {
			log.Warn("failed to remove staged source", "path", job.SourcePath, "err", rerr)
		}
	}

	if serr := o.ui.Schedule(func() { o.present(c) }); serr != nil {
		log.Error("dropping compile result", "err", serr)
	}
}

// present runs on the UI goroutine.
func (o *Orchestrator) present(c Completion) {
	log := o.logger.With("job", c.Job.ID.String())
	log.Debug("presenting result", "state", StatePresenting)

	switch out := c.Outcome.(type) {
	case nil:
		if c.Err == nil {
			c.Err = errors.New("compile: runner returned neither outcome nor error")
		}
		log.Error("compiler could not be started", "err", c.Err)
		o.host.ErrorMessage(c.Err.Error())

	case procrun.SpawnFailure:
		log.Info("compiler failed to run", "reason", out.Reason)
		o.host.ErrorMessage(out.Reason)

	case procrun.ProcessFailure:
		log.Info("compiler exited abnormally", "exit_code", out.ExitCode)
		o.host.ErrorMessage(fmt.Sprintf("%s exited with status %d", o.cfg.TypeScript(), out.ExitCode))

	case procrun.Success:
		log.Info("compile finished", "result", c.Result.Kind)
		if err := o.show(c); err != nil {
			log.Error("failed to present compile result", "err", err)
			o.host.ErrorMessage(err.Error())
			c.Err = err
		}
	}

	log.Debug("job finished", "state", StateDone)
	if o.onDone != nil {
		o.onDone(c)
	}
}

// show presents a classified result through the host.
func (o *Orchestrator) show(c Completion) error {
	if c.Result.Kind == CleanOutput {
		if err := o.host.OpenFile(c.Job.DestPath, o.cfg.Syntax()); err != nil {
			return fmt.Errorf("opening %s: %w", c.Job.DestPath, err)
		}
		return nil
	}

	scratch, err := o.host.NewScratch(ScratchName)
	if err != nil {
		return fmt.Errorf("creating scratch buffer: %w", err)
	}
	if err := writeScratch(scratch, c.Result.Text); err != nil {
		return fmt.Errorf("writing compiler output: %w", err)
	}
	return nil
}
