package transform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opactx/internal/value"
)

// StepEvent describes a finished step.
type StepEvent struct {
	Index    int
	Step     Step
	Kind     Kind
	Duration time.Duration
	Err      error
}

// Engine runs pipelines.
type Engine struct {
	registry *Registry
	onStep   func(StepEvent)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the builtin handlers.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithStepHook calls fn after every step, successful or not.
func WithStepHook(fn func(StepEvent)) Option {
	return func(e *Engine) {
		e.onStep = fn
	}
}

// NewEngine creates an engine using the builtin registry by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{registry: Builtins()}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run folds steps over the context tree.
//
// With no steps the result is canonicalize(env). Otherwise the fold starts
// from {"intent": ..., "sources": ...}, which is what a leading canonicalize
// step replaces. The result must be a mapping.
func (e *Engine) Run(ctx context.Context, steps []Step, env Env) (map[string]any, error) {
	if len(steps) == 0 {
		return canonicalize(nil, nil, &env)
	}

	tree := map[string]any{
		"intent":  value.CloneMap(env.Intent),
		"sources": value.CloneMap(env.Sources),
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := e.apply(i, step, tree, &env)
		if err != nil {
			return nil, err
		}

		tree = next
	}

	return tree, nil
}

// Apply runs a single step against tree without modifying it.
func (e *Engine) Apply(step Step, tree map[string]any, env Env) (map[string]any, error) {
	return e.apply(0, step, tree, &env)
}

func (e *Engine) apply(index int, step Step, tree map[string]any, env *Env) (out map[string]any, err error) {
	started := time.Now()

	var kind Kind

	defer func() {
		if e.onStep != nil {
			e.onStep(StepEvent{Index: index, Step: step, Kind: kind, Duration: time.Since(started), Err: err})
		}
	}()

	fail := func(cause error) error {
		return &Error{Index: index, Name: step.Name, Err: cause}
	}

	if step.Type != "" && step.Type != BuiltinType {
		return nil, fail(fmt.Errorf("unsupported transform type %q (only %q is available)", step.Type, BuiltinType))
	}

	kind, err = ParseKind(step.Name)
	if err != nil {
		return nil, fail(err)
	}

	handler := e.registry.Get(kind)
	if handler == nil {
		return nil, fail(fmt.Errorf("no handler registered for %s", kind))
	}

	out, err = handler(value.CloneMap(tree), Options(step.With), env)
	if err != nil {
		return nil, fail(err)
	}

	if out == nil {
		return nil, fail(errors.New("Transform output must be a mapping."))
	}

	return out, nil
}
