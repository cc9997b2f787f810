package build

import (
	"time"

	"github.com/rs/zerolog"

	"opactx/internal/metrics"
	"opactx/internal/source"
	"opactx/internal/transform"
)

// Runner executes commands. The zero value is not usable; call NewRunner.
type Runner struct {
	logger     zerolog.Logger
	metrics    *metrics.Collector
	sources    *source.Registry
	transforms *transform.Registry
	observer   Observer
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics records stage, step and source metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) {
		r.metrics = c
	}
}

// WithSources replaces the builtin source types.
func WithSources(reg *source.Registry) Option {
	return func(r *Runner) {
		r.sources = reg
	}
}

// WithTransforms replaces the builtin transform handlers.
func WithTransforms(reg *transform.Registry) Option {
	return func(r *Runner) {
		r.transforms = reg
	}
}

// WithObserver sends progress events to fn.
func WithObserver(fn Observer) Option {
	return func(r *Runner) {
		r.observer = fn
	}
}

// NewRunner creates a runner with a no-op logger and the builtin sources and
// transforms.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:     zerolog.Nop(),
		sources:    source.Builtins(),
		transforms: transform.Builtins(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Runner) emit(ev Event) {
	if r.observer != nil {
		r.observer(ev)
	}
}

// stage runs fn as one named stage: it emits the started event, then either
// completed (with the status fn returns) or failed, and records metrics.
func (r *Runner) stage(log zerolog.Logger, command, stage string, fn func() (Status, error)) error {
	r.emit(Event{Kind: StageStarted, Command: command, Stage: stage})

	started := time.Now()
	status, err := fn()
	elapsed := time.Since(started)

	if err != nil {
		se := stageError(stage, "", err)

		r.emit(Event{
			Kind:     StageFailed,
			Command:  command,
			Stage:    stage,
			Status:   StatusFailed,
			Duration: elapsed,
			Code:     se.Code,
			Message:  se.Error(),
		})
		r.observeStage(command, stage, StatusFailed, elapsed)

		log.Error().
			Str("stage", stage).
			Str("code", se.Code).
			Dur("duration", elapsed).
			Msg(se.Error())

		return se
	}

	if status == "" {
		status = StatusSuccess
	}

	r.emit(Event{Kind: StageCompleted, Command: command, Stage: stage, Status: status, Duration: elapsed})
	r.observeStage(command, stage, status, elapsed)

	log.Debug().
		Str("stage", stage).
		Str("status", string(status)).
		Dur("duration", elapsed).
		Msg("stage completed")

	return nil
}

func (r *Runner) observeStage(command, stage string, status Status, d time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveStage(command, stage, string(status), d)
	}
}

// stepHook reports transform steps as events, metrics and debug logs.
func (r *Runner) stepHook(log zerolog.Logger, command string) func(transform.StepEvent) {
	return func(ev transform.StepEvent) {
		if r.metrics != nil {
			r.metrics.ObserveStep(ev)
		}

		status := StatusSuccess
		msg := ""

		if ev.Err != nil {
			status = StatusFailed
			msg = ev.Err.Error()
		}

		r.emit(Event{
			Kind:     StepApplied,
			Command:  command,
			Stage:    StageNormalize,
			Status:   status,
			Duration: ev.Duration,
			Name:     ev.Step.Name,
			Message:  msg,
		})

		log.Debug().
			Int("step", ev.Index+1).
			Str("op", ev.Step.Name).
			Dur("duration", ev.Duration).
			Err(ev.Err).
			Msg("transform applied")
	}
}
