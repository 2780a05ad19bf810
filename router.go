package pathway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var errNilHandler = errors.New("pathway: nil route handler")

// Option configures a Router.
type Option func(*Router)

// Router maps paths to handler chains and re-evaluates every registered route
// whenever a navigation happens.
//
// Usage:
//  1. Create a router with New
//  2. Register routes with Register (or Get, or through a Group)
//  3. Move between paths with Navigate
//
// Router is not safe for concurrent use. All calls, including navigations
// started from inside handlers, must come from one goroutine; adapters such as
// bridge.Serve confine the router to their serving goroutine.
type Router struct {
	ctx      context.Context
	location Location
	defaults *Defaults
	events   *emitter
	hooks    hooks
	log      zerolog.Logger
	compile  []CompileOption
	recover  bool

	routes     []*Route
	state      *Chain
	seq        uint64
	generation uint64
	depth      int
	matched    int
}

// New creates a Router with the given options.
//
// By default the router keeps its path in a MemoryLocation starting at "",
// owns a private Defaults list and logs nothing.
//
// Example:
//
//	r := pathway.New(
//	    pathway.WithLocation(history.New(history.PushState, history.WithRoot("/app"))),
//	    pathway.WithLogger(logger),
//	    pathway.WithOnNoMatch(func(ctx context.Context, path string) error {
//	        return pathway.ErrNoMatch
//	    }),
//	)
func New(opts ...Option) *Router {
	r := &Router{
		ctx:      context.Background(),
		location: NewMemoryLocation(""),
		events:   newEmitter(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.defaults == nil {
		r.defaults = NewDefaults()
	}
	return r
}

// WithLocation sets where the router reads and writes the current path.
func WithLocation(l Location) Option {
	return func(r *Router) {
		if l != nil {
			r.location = l
		}
	}
}

// WithDefaults sets the default handler list every chain starts with. Share
// one Defaults between routers to instrument them together.
func WithDefaults(d *Defaults) Option {
	return func(r *Router) {
		r.defaults = d
	}
}

// WithLogger sets the logger for router diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) {
		r.log = l.With().Str("component", "pathway").Logger()
	}
}

// WithContext sets the context used for the evaluation Register performs
// when a route is added.
func WithContext(ctx context.Context) Option {
	return func(r *Router) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// WithCompileOptions sets the options used to compile registered patterns.
func WithCompileOptions(opts ...CompileOption) Option {
	return func(r *Router) {
		r.compile = append(r.compile, opts...)
	}
}

// WithRecover catches handler panics per chain. The panic is reported through
// OnPanic hooks (or returned as a *HandlerPanicError) and the remaining routes
// are still evaluated. Without it panics propagate to the caller of Navigate.
func WithRecover() Option {
	return func(r *Router) {
		r.recover = true
	}
}

// Route is a registered pattern with its middleware and terminal handler.
type Route struct {
	spec       any
	pattern    *Pattern
	middleware []Handler
	handler    Handler
}

// Pattern returns the compiled pattern.
func (rt *Route) Pattern() *Pattern { return rt.pattern }

// Spec returns the specification the route was registered with.
func (rt *Route) Spec() any { return rt.spec }

func (rt *Route) String() string { return describe(rt.spec) }

// Register compiles pattern, stores the route, evaluates it once against the
// current path and re-evaluates it on every navigation.
//
// Chains for the route run the default handlers, then middleware in order,
// then handler. The returned error is an *InvalidPatternError when the
// pattern does not compile, or an error from the first evaluation.
//
// Example:
//
//	r.Register("/projects/:id", []pathway.Handler{requireUser}, func(req *pathway.Request, c *pathway.Chain, next func()) {
//	    showProject(req.Param("id"))
//	})
func (r *Router) Register(pattern any, middleware []Handler, handler Handler) (*Route, error) {
	if handler == nil {
		return nil, errNilHandler
	}
	p, err := Compile(pattern, r.compile...)
	if err != nil {
		return nil, err
	}
	rt := &Route{
		spec:       pattern,
		pattern:    p,
		middleware: append([]Handler(nil), middleware...),
		handler:    handler,
	}
	r.routes = append(r.routes, rt)

	r.log.Debug().
		Str("route", rt.String()).
		Str("expr", p.String()).
		Int("middleware", len(middleware)).
		Msg("route registered")

	// Evaluate before subscribing: a navigation started by the first pass
	// does not see the route yet.
	err = r.invoke(r.ctx, rt)
	r.On(EventNavigate, func(ev *Event) error {
		return r.invoke(ev.Context, rt)
	})
	return rt, err
}

// MustRegister is like Register but panics on error.
func (r *Router) MustRegister(pattern any, middleware []Handler, handler Handler) *Route {
	rt, err := r.Register(pattern, middleware, handler)
	if err != nil {
		panic(err)
	}
	return rt
}

// Get registers handler for pattern with optional middleware.
func (r *Router) Get(pattern any, handler Handler, middleware ...Handler) (*Route, error) {
	return r.Register(pattern, middleware, handler)
}

// Navigate writes path to the location and re-evaluates every route.
func (r *Router) Navigate(ctx context.Context, path string) error {
	r.location.SetPath(path)
	return r.Reload(ctx)
}

// Reload re-evaluates every route against the current path without writing
// the location. Each call starts a new navigation: chains only treat chains of
// the same navigation as their parent.
func (r *Router) Reload(ctx context.Context) error {
	if ctx == nil {
		ctx = r.ctx
	}

	prevGeneration, prevMatched := r.generation, r.matched
	r.seq++
	r.generation = r.seq
	r.matched = 0
	r.depth++
	defer func() {
		r.depth--
		r.matched = prevMatched
		if r.depth > 0 {
			r.generation = prevGeneration
		}
	}()

	path := r.location.Path()
	r.log.Debug().Str("path", path).Uint64("navigation", r.generation).Msg("navigate")

	err := r.events.emit(&Event{Name: EventNavigate, Context: ctx})
	if r.matched == 0 {
		r.log.Debug().Str("path", path).Msg("no route matched")
		err = errors.Join(err, r.handleNoMatch(ctx, path))
	}
	return err
}

// PopState re-evaluates routes after the location changed through history
// traversal. It does nothing while the router's only state is the first chain
// it ever created.
func (r *Router) PopState(ctx context.Context) error {
	if r.state != nil && r.state.previous == nil {
		return nil
	}
	return r.Reload(ctx)
}

// Clear resets the location. Routes are not re-evaluated.
func (r *Router) Clear() {
	r.location.Clear()
}

// Path returns the current path.
func (r *Router) Path() string { return r.location.Path() }

// Location returns the router's location.
func (r *Router) Location() Location { return r.location }

// State returns the most recent chain, nil before any route matched.
func (r *Router) State() *Chain { return r.state }

// Defaults returns the default handler list.
func (r *Router) Defaults() *Defaults { return r.defaults }

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	return append([]*Route(nil), r.routes...)
}

// invoke evaluates one route against the current path and, on a match,
// builds and runs its chain.
func (r *Router) invoke(ctx context.Context, rt *Route) error {
	if ctx == nil {
		ctx = r.ctx
	}
	path := r.location.Path()
	res, err := rt.pattern.Match(path)
	if err != nil {
		r.log.Warn().Err(err).Str("route", rt.String()).Str("path", path).Msg("match failed")
		return fmt.Errorf("route %s: %w", rt, err)
	}
	if !res.Matched {
		return nil
	}
	r.matched++

	c := NewChain(NewRequest(ctx, rt.spec, res), r.defaults.Handlers()...)
	c.router = r
	c.route = rt
	c.generation = r.generation
	c.Enqueue(rt.middleware...).Enqueue(rt.handler)

	if err := r.events.emit(&Event{Name: EventMatch, Context: ctx, Chain: c, Match: res}); err != nil {
		return fmt.Errorf("route %s: match listener: %w", rt, err)
	}
	r.callOnMatch(ctx, c, res)
	r.callOnDecodeError(ctx, c, res)

	if c.DefaultPrevented() {
		r.log.Debug().Str("route", rt.String()).Str("path", path).Msg("chain prevented")
		r.callOnPrevented(ctx, c)
		return nil
	}

	c.previous = r.state
	r.state = c

	if parent, ok := c.Parent(); ok && parent.PropagationStopped() {
		c.propagate = false
		r.log.Debug().
			Str("route", rt.String()).
			Str("path", path).
			Str("parent", parent.ID().String()).
			Msg("chain suppressed")
		r.callOnSuppressed(ctx, c, parent)
		return nil
	}

	return r.run(ctx, c)
}

// run starts the chain, recovering panics when configured to.
func (r *Router) run(ctx context.Context, c *Chain) (err error) {
	r.callOnDispatch(ctx, c)
	if r.recover {
		defer func() {
			if v := recover(); v != nil {
				r.log.Error().
					Str("route", c.req.RouteName()).
					Str("path", c.value).
					Interface("panic", v).
					Msg("handler panicked")
				err = r.handlePanic(ctx, c, v)
			}
		}()
	}

	start := time.Now()
	c.Callback()
	completed := c.Pending() == 0
	r.callOnComplete(ctx, c, completed, time.Since(start))

	r.log.Debug().
		Str("chain", c.ID().String()).
		Str("route", c.req.RouteName()).
		Bool("completed", completed).
		Msg("chain finished")
	return nil
}

// Group registers routes under a common prefix with shared middleware.
type Group struct {
	router     *Router
	prefix     string
	middleware []Handler
}

// Group returns a Group that prefixes patterns with prefix and runs
// middleware before each route's own middleware.
//
// Example:
//
//	admin := r.Group("/admin", requireAdmin)
//	admin.Get("/", dashboard)        // "/admin"
//	admin.Get("users/:id", editUser) // "/admin/users/:id"
func (r *Router) Group(prefix string, middleware ...Handler) *Group {
	return &Group{router: r, prefix: prefix, middleware: append([]Handler(nil), middleware...)}
}

// Register registers pattern under the group's prefix.
func (g *Group) Register(pattern string, middleware []Handler, handler Handler) (*Route, error) {
	mw := make([]Handler, 0, len(g.middleware)+len(middleware))
	mw = append(mw, g.middleware...)
	mw = append(mw, middleware...)
	return g.router.Register(joinPrefix(g.prefix, pattern), mw, handler)
}

// Get registers handler under the group's prefix with optional middleware.
func (g *Group) Get(pattern string, handler Handler, middleware ...Handler) (*Route, error) {
	return g.Register(pattern, middleware, handler)
}

// Group returns a nested group inheriting this group's prefix and middleware.
func (g *Group) Group(prefix string, middleware ...Handler) *Group {
	mw := make([]Handler, 0, len(g.middleware)+len(middleware))
	mw = append(mw, g.middleware...)
	mw = append(mw, middleware...)
	return &Group{router: g.router, prefix: joinPrefix(g.prefix, prefix), middleware: mw}
}

// Prefix returns the group's path prefix.
func (g *Group) Prefix() string { return g.prefix }

// joinPrefix puts exactly one slash between prefix and pattern; "" and "/"
// resolve to the prefix itself.
func joinPrefix(prefix, pattern string) string {
	if !strings.HasSuffix(prefix, "/") && pattern != "/" && pattern != "" {
		prefix += "/"
	}
	return prefix + strings.TrimPrefix(pattern, "/")
}
