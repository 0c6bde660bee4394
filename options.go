package damper

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Option configures the executor pipeline of an AutoSaver. Pipeline options
// wrap the hook/save sequence with middleware for timeouts, observation, and
// transformation.
//
// Instance configuration (debounce, serializer, sync mode, etc.) is handled
// via chainable methods on the AutoSaver before calling Start().
//
// Retry, backoff, and circuit-breaking wrappers are intentionally not
// provided: a failed save attempt is terminal and the scheduler fires at
// most one save per debounce window.
type Option func(pipz.Chainable[*Attempt]) pipz.Chainable[*Attempt]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline(terminal pipz.Chainable[*Attempt], opts []Option) pipz.Chainable[*Attempt] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithTimeout wraps the pipeline with a deadline. If a save attempt takes
// longer than the specified duration, it fails with a timeout error routed
// to the error hook.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[*Attempt]) pipz.Chainable[*Attempt] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with the wrapped hook/save sequence last.
//
// Use the Use* functions to create processors for common patterns, or
// provide custom pipz.Chainable implementations directly.
//
// Example:
//
//	saver := damper.New(source, save,
//	    damper.WithMiddleware(
//	        damper.UseEffect("audit", auditFn),
//	        damper.UseApply("redact", redactFn),
//	    ),
//	).Debounce(time.Second)
func WithMiddleware(processors ...pipz.Chainable[*Attempt]) Option {
	return func(p pipz.Chainable[*Attempt]) pipz.Chainable[*Attempt] {
		all := make([]pipz.Chainable[*Attempt], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// UseTransform creates a processor that transforms the attempt.
// Cannot fail. Use for pure transformations that always succeed.
func UseTransform(name string, fn func(context.Context, *Attempt) *Attempt) pipz.Chainable[*Attempt] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can transform the attempt and fail.
// A failure aborts the attempt and is routed to the error hook.
func UseApply(name string, fn func(context.Context, *Attempt) (*Attempt, error)) pipz.Chainable[*Attempt] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that performs a side effect. The attempt
// passes through unchanged. Use for audit logging or notifications that
// should not affect the saved snapshot.
func UseEffect(name string, fn func(context.Context, *Attempt) error) pipz.Chainable[*Attempt] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseFilter wraps a processor with a condition. If the condition returns
// false, the attempt passes through unchanged.
func UseFilter(name string, condition func(context.Context, *Attempt) bool, processor pipz.Chainable[*Attempt]) pipz.Chainable[*Attempt] {
	return pipz.NewFilter(pipz.Name(name), condition, processor)
}
