// Package pathway is a client-side navigation router: it maps paths to chains
// of handlers and re-evaluates every registered route whenever the current
// path changes.
//
// # Quick Start
//
// Create a router, register routes, navigate:
//
//	r := pathway.New(pathway.WithLocation(history.New(history.PushState)))
//
//	r.MustRegister("/users/:id", []pathway.Handler{requireUser}, func(req *pathway.Request, c *pathway.Chain, next func()) {
//	    showUser(req.Param("id"))
//	})
//
//	err := r.Navigate(ctx, "/users/42")
//
// Registration evaluates the route once against the current path, so a page
// loaded on /users/42 runs its handler without an explicit navigation.
//
// # Patterns
//
// A pattern is a path with parameters, compiled into an anchored regular
// expression:
//
//	/users/:id            named segment
//	/users/:id?           optional segment, slash included
//	/files/:name.:ext?    ":name" after "." stops at the next dot
//	/posts/:id(\d+)       custom expression for the parameter
//	/assets/*             wildcard, captured under its index ("0")
//	[]string{"/a", "/b"}  alternatives
//
// Matching ignores case and accepts a trailing slash unless the router is
// built WithCompileOptions(Strict(), Sensitive()). Pre-built *regexp2.Regexp
// and *regexp.Regexp values are used as they are.
//
// Parameter values are percent-decoded. A value that cannot be decoded does
// not fail the match; the Param carries a *ParamDecodeError and the raw text.
//
// # Chains
//
// A match builds a Chain: the default handlers, then the route middleware,
// then the route handler. Each handler receives next and decides whether the
// rest of the chain runs:
//
//	func requireUser(req *pathway.Request, c *pathway.Chain, next func()) {
//	    if session.User() == nil {
//	        c.Router().Navigate(req.Context(), "/login")
//	        return
//	    }
//	    next()
//	}
//
// Handlers can add to the chain while it runs with Enqueue and EnqueueAt.
//
// # Navigation State
//
// The router's state is the most recent chain. Every chain keeps a link to
// the state that preceded it, and its Parent is that chain when both belong
// to the same navigation and the same path. When several routes match one
// path, a handler can call StopPropagation so that the later routes of that
// navigation are suppressed:
//
//	r.MustRegister("/admin/*", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
//	    if !isAdmin() {
//	        c.StopPropagation()
//	        return
//	    }
//	    next()
//	})
//
// Match observers run before a chain starts and can cancel it:
//
//	r.On(pathway.EventMatch, func(ev *pathway.Event) error {
//	    if dirtyForm() {
//	        ev.Chain.PreventDefault()
//	    }
//	    return nil
//	})
//
// # Defaults
//
// Default handlers run first in every chain. They are the place for
// instrumentation; see the middleware package for tracing, metrics and
// logging handlers. Share a Defaults between routers with WithDefaults.
//
// # Hooks
//
// Hooks report what the router did without handlers having to know:
//
//	r := pathway.New(
//	    pathway.WithOnComplete(func(ctx context.Context, c *pathway.Chain, completed bool, d time.Duration) {
//	        logger.Debug().Bool("completed", completed).Dur("took", d).Msg("chain done")
//	    }),
//	    pathway.WithOnNoMatch(func(ctx context.Context, path string) error {
//	        return pathway.ErrNoMatch
//	    }),
//	)
//
// Available hooks:
//   - WithOnMatch: a route matched
//   - WithOnPrevented: a match observer cancelled the chain
//   - WithOnSuppressed: a parent stopped propagation
//   - WithOnDispatch: just before the chain starts
//   - WithOnComplete: after the chain returns
//   - WithOnNoMatch: no route matched the navigation
//   - WithOnDecodeError: a parameter failed to decode
//   - WithOnPanic: a handler panicked (implies WithRecover)
//
// # Error Handling
//
// An unmatched path is not an error unless an OnNoMatch hook makes it one.
// Handler panics propagate out of Navigate unless the router runs
// WithRecover, in which case the panic is reported as a *HandlerPanicError
// and the remaining routes are still evaluated.
//
// # Thread Safety
//
// Router, Chain and the locations in this module are not safe for concurrent
// use: drive a router from one goroutine, as a browser drives its page.
// Defaults and compiled Patterns are safe to share.
package pathway
