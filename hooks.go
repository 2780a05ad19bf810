package pathway

import (
	"context"
	"time"
)

// OnMatchFunc is called when a route matched the current path, after match
// event listeners ran.
type OnMatchFunc func(ctx context.Context, c *Chain, res *MatchResult)

// OnPreventedFunc is called when a match observer prevented a chain from
// running.
type OnPreventedFunc func(ctx context.Context, c *Chain)

// OnSuppressedFunc is called when a chain is skipped because an earlier chain
// of the same navigation stopped propagation.
type OnSuppressedFunc func(ctx context.Context, c *Chain, parent *Chain)

// OnDispatchFunc is called just before a chain starts.
type OnDispatchFunc func(ctx context.Context, c *Chain)

// OnCompleteFunc is called after a chain returns. completed is true when
// every handler, including the terminal one, was invoked.
type OnCompleteFunc func(ctx context.Context, c *Chain, completed bool, duration time.Duration)

// OnNoMatchFunc is called when a navigation matched no route.
// Return nil to accept it, return an error to fail Navigate.
type OnNoMatchFunc func(ctx context.Context, path string) error

// OnDecodeErrorFunc is called for every parameter that failed to decode. The
// chain still runs.
type OnDecodeErrorFunc func(ctx context.Context, c *Chain, err *ParamDecodeError)

// OnPanicFunc is called with the value recovered from a panicking handler
// when the router runs WithRecover.
// Return nil to swallow the panic, return an error to report it from Navigate.
type OnPanicFunc func(ctx context.Context, c *Chain, recovered any) error

// hooks holds all configured hook functions.
type hooks struct {
	onMatch       []OnMatchFunc
	onPrevented   []OnPreventedFunc
	onSuppressed  []OnSuppressedFunc
	onDispatch    []OnDispatchFunc
	onComplete    []OnCompleteFunc
	onNoMatch     []OnNoMatchFunc
	onDecodeError []OnDecodeErrorFunc
	onPanic       []OnPanicFunc
}

// WithOnMatch adds a hook called when a route matched.
// Multiple hooks are called in order.
//
// Example:
//
//	pathway.WithOnMatch(func(ctx context.Context, c *pathway.Chain, res *pathway.MatchResult) {
//	    logger.Debug().Str("path", res.Path).Msg("route matched")
//	})
func WithOnMatch(fn OnMatchFunc) Option {
	return func(r *Router) {
		r.hooks.onMatch = append(r.hooks.onMatch, fn)
	}
}

// WithOnPrevented adds a hook called when a match observer prevented a chain.
func WithOnPrevented(fn OnPreventedFunc) Option {
	return func(r *Router) {
		r.hooks.onPrevented = append(r.hooks.onPrevented, fn)
	}
}

// WithOnSuppressed adds a hook called when a chain is suppressed by a parent
// that stopped propagation.
func WithOnSuppressed(fn OnSuppressedFunc) Option {
	return func(r *Router) {
		r.hooks.onSuppressed = append(r.hooks.onSuppressed, fn)
	}
}

// WithOnDispatch adds a hook called just before a chain starts.
// Multiple hooks are called in order.
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(r *Router) {
		r.hooks.onDispatch = append(r.hooks.onDispatch, fn)
	}
}

// WithOnComplete adds a hook called after a chain returns.
// Multiple hooks are called in order.
//
// Example:
//
//	pathway.WithOnComplete(func(ctx context.Context, c *pathway.Chain, completed bool, d time.Duration) {
//	    if !completed {
//	        logger.Info().Str("path", c.Value()).Msg("navigation halted by middleware")
//	    }
//	})
func WithOnComplete(fn OnCompleteFunc) Option {
	return func(r *Router) {
		r.hooks.onComplete = append(r.hooks.onComplete, fn)
	}
}

// WithOnNoMatch adds a hook called when a navigation matched no route.
// Return nil to accept, return an error to fail.
// Multiple hooks are called in order; first error wins.
//
// Example:
//
//	pathway.WithOnNoMatch(func(ctx context.Context, path string) error {
//	    return router.Navigate(ctx, "/not-found")
//	})
func WithOnNoMatch(fn OnNoMatchFunc) Option {
	return func(r *Router) {
		r.hooks.onNoMatch = append(r.hooks.onNoMatch, fn)
	}
}

// WithOnDecodeError adds a hook called for parameters that failed to decode.
func WithOnDecodeError(fn OnDecodeErrorFunc) Option {
	return func(r *Router) {
		r.hooks.onDecodeError = append(r.hooks.onDecodeError, fn)
	}
}

// WithOnPanic adds a hook called with recovered handler panics. It implies
// WithRecover.
// Return nil to swallow, return an error to report.
// Multiple hooks are called in order; first error wins.
func WithOnPanic(fn OnPanicFunc) Option {
	return func(r *Router) {
		r.recover = true
		r.hooks.onPanic = append(r.hooks.onPanic, fn)
	}
}

func (r *Router) callOnMatch(ctx context.Context, c *Chain, res *MatchResult) {
	for _, fn := range r.hooks.onMatch {
		fn(ctx, c, res)
	}
}

func (r *Router) callOnPrevented(ctx context.Context, c *Chain) {
	for _, fn := range r.hooks.onPrevented {
		fn(ctx, c)
	}
}

func (r *Router) callOnSuppressed(ctx context.Context, c, parent *Chain) {
	for _, fn := range r.hooks.onSuppressed {
		fn(ctx, c, parent)
	}
}

func (r *Router) callOnDispatch(ctx context.Context, c *Chain) {
	for _, fn := range r.hooks.onDispatch {
		fn(ctx, c)
	}
}

func (r *Router) callOnComplete(ctx context.Context, c *Chain, completed bool, d time.Duration) {
	for _, fn := range r.hooks.onComplete {
		fn(ctx, c, completed, d)
	}
}

func (r *Router) callOnDecodeError(ctx context.Context, c *Chain, res *MatchResult) {
	if len(r.hooks.onDecodeError) == 0 {
		return
	}
	for _, p := range res.Params {
		derr, ok := p.Err.(*ParamDecodeError)
		if !ok {
			continue
		}
		for _, fn := range r.hooks.onDecodeError {
			fn(ctx, c, derr)
		}
	}
}

// handleNoMatch handles a navigation that matched no route.
func (r *Router) handleNoMatch(ctx context.Context, path string) error {
	for _, fn := range r.hooks.onNoMatch {
		if err := fn(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// handlePanic turns a recovered panic into the error reported by Navigate.
func (r *Router) handlePanic(ctx context.Context, c *Chain, recovered any) error {
	perr := &HandlerPanicError{Route: c.req.RouteName(), Path: c.value, Value: recovered}
	for _, fn := range r.hooks.onPanic {
		if err := fn(ctx, c, recovered); err != nil {
			return err
		}
	}
	if len(r.hooks.onPanic) > 0 {
		return nil
	}
	return perr
}
