// pkg/pom/wait.go
package pom

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

type waitOptions struct {
	timeout time.Duration
	poll    time.Duration
	args    Args
}

// WaitOption adjusts a single wait.
type WaitOption func(*waitOptions)

// Timeout bounds the wait. Non-positive values keep the page default.
func Timeout(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// PollInterval sets the pause between predicate evaluations.
func PollInterval(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		if d > 0 {
			o.poll = d
		}
	}
}

// With passes a keyword argument to the condition factory.
func With(key string, value any) WaitOption {
	return func(o *waitOptions) { o.args[key] = value }
}

// WithArgs passes several keyword arguments to the condition factory.
func WithArgs(args Args) WaitOption {
	return func(o *waitOptions) {
		for k, v := range args {
			o.args[k] = v
		}
	}
}

// WaitUntil polls cond until it holds or the timeout expires, in which case a
// *TimeoutError is returned.
func (b *Bound) WaitUntil(ctx context.Context, cond Condition, opts ...WaitOption) error {
	return b.wait(ctx, cond, true, opts)
}

// WaitUntilNot polls cond until it no longer holds. A component that cannot be
// located satisfies WaitUntilNot.
func (b *Bound) WaitUntilNot(ctx context.Context, cond Condition, opts ...WaitOption) error {
	return b.wait(ctx, cond, false, opts)
}

func (b *Bound) wait(ctx context.Context, cond Condition, want bool, opts []WaitOption) error {
	o := waitOptions{timeout: b.env.timeout, poll: b.env.poll, args: Args{}}
	for _, opt := range opts {
		opt(&o)
	}

	name, factory, err := cond.lookup(b)
	if err != nil {
		return err
	}
	pred := factory(b, o.args)

	return b.frameContext(ctx, func() error {
		return b.poll(ctx, name, pred, want, o)
	})
}

func (b *Bound) poll(ctx context.Context, name string, pred Predicate, want bool, o waitOptions) error {
	waitCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// A burst of one lets the first evaluation run immediately.
	limiter := rate.NewLimiter(rate.Every(o.poll), 1)
	var last error
	attempts := 0
	for {
		if err := limiter.Wait(waitCtx); err != nil {
			break
		}
		attempts++
		ok, err := pred(waitCtx, b.env.session)
		switch {
		case err == nil:
			if ok == want {
				b.logger().Debug("Condition met.",
					zap.String("component", b.tmpl.name),
					zap.String("condition", name),
					zap.Bool("negated", !want),
					zap.Int("attempts", attempts))
				return nil
			}
		case IsNotFound(err):
			if !want {
				return nil
			}
			last = err
		case waitCtx.Err() != nil && ctx.Err() == nil:
			// The predicate was cut off by the wait deadline.
			last = err
		default:
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return &TimeoutError{
		Component: b.tmpl.name,
		Condition: name,
		Negated:   !want,
		Timeout:   o.timeout,
		Last:      last,
	}
}
