package pathway

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is one step of a dispatch chain: middleware or the terminal route
// handler. A handler that wants later handlers to run must call next; not
// calling it halts the chain at that point.
//
//	func auth(req *pathway.Request, c *pathway.Chain, next func()) {
//	    if !signedIn() {
//	        return // halt: nothing after this handler runs
//	    }
//	    next()
//	}
type Handler func(req *Request, c *Chain, next func())

// Request is the match context handed to every handler of a chain.
type Request struct {
	ctx context.Context

	// Route is the specification the route was registered with.
	Route any

	// Path is the path that was matched.
	Path string

	// Params are the decoded route parameters.
	Params Params

	// Match is the full match result.
	Match *MatchResult
}

// NewRequest builds the request for a successful match.
func NewRequest(ctx context.Context, route any, res *MatchResult) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	req := &Request{ctx: ctx, Route: route, Match: res}
	if res != nil {
		req.Path = res.Path
		req.Params = res.Params
	}
	return req
}

// Context returns the navigation context.
func (r *Request) Context() context.Context {
	return r.ctx
}

// SetContext replaces the context seen by the handlers that run after the
// caller, typically to carry a trace span.
func (r *Request) SetContext(ctx context.Context) {
	if ctx != nil {
		r.ctx = ctx
	}
}

// RouteName renders Route for logs and metric labels.
func (r *Request) RouteName() string {
	return describe(r.Route)
}

// Param is shorthand for r.Params.Get(key).
func (r *Request) Param(key string) string {
	return r.Params.Get(key)
}

// Chain is the ordered handler sequence built for one matched route. It is
// also the unit of router state: the router's current state is the most
// recent chain, and each chain links to the state that preceded it.
//
// A Chain is confined to the goroutine running the navigation.
type Chain struct {
	id         uuid.UUID
	router     *Router
	route      *Route
	req        *Request
	pending    []Handler
	value      string
	generation uint64
	previous   *Chain

	runCallback bool
	callbackRan bool
	propagate   bool
	startedAt   time.Time

	values map[string]any
}

// NewChain creates a chain for req seeded with the given default handlers.
// The chain's associated value is the request path.
func NewChain(req *Request, defaults ...Handler) *Chain {
	if req == nil {
		req = NewRequest(context.Background(), nil, nil)
	}
	pending := make([]Handler, len(defaults), len(defaults)+2)
	copy(pending, defaults)
	return &Chain{
		id:          uuid.New(),
		req:         req,
		pending:     pending,
		value:       req.Path,
		runCallback: true,
		propagate:   true,
	}
}

// ID identifies the chain in logs and traces.
func (c *Chain) ID() uuid.UUID { return c.id }

// Router returns the router that created the chain, nil for chains built
// with NewChain directly.
func (c *Chain) Router() *Router { return c.router }

// Route returns the route the chain was built for, nil for chains built
// with NewChain directly.
func (c *Chain) Route() *Route { return c.route }

// Request returns the match context passed to handlers.
func (c *Chain) Request() *Request { return c.req }

// Value returns the path the chain was created for.
func (c *Chain) Value() string { return c.value }

// Previous returns the router state that was current before this chain.
func (c *Chain) Previous() *Chain { return c.previous }

// Pending returns the number of handlers not yet invoked.
func (c *Chain) Pending() int { return len(c.pending) }

// DefaultPrevented reports whether PreventDefault was called.
func (c *Chain) DefaultPrevented() bool { return !c.runCallback }

// PropagationStopped reports whether StopPropagation was called, or the chain
// inherited a stopped parent.
func (c *Chain) PropagationStopped() bool { return !c.propagate }

// CallbackRan reports whether Callback started the chain.
func (c *Chain) CallbackRan() bool { return c.callbackRan }

// StartedAt returns the time Callback started the chain.
func (c *Chain) StartedAt() time.Time { return c.startedAt }

// Set stores an extra value on the chain.
func (c *Chain) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Get returns an extra value stored with Set.
func (c *Chain) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Enqueue appends handlers to the end of the chain in order.
func (c *Chain) Enqueue(handlers ...Handler) *Chain {
	c.pending = append(c.pending, handlers...)
	return c
}

// EnqueueAt inserts handlers before position index, keeping their order. The
// index is clamped to the pending sequence.
func (c *Chain) EnqueueAt(index int, handlers ...Handler) *Chain {
	if index < 0 {
		index = 0
	}
	if index > len(c.pending) {
		index = len(c.pending)
	}
	pending := make([]Handler, 0, len(c.pending)+len(handlers))
	pending = append(pending, c.pending[:index]...)
	pending = append(pending, handlers...)
	pending = append(pending, c.pending[index:]...)
	c.pending = pending
	return c
}

// Next removes the front handler and invokes it. Once the chain is exhausted
// Next does nothing.
func (c *Chain) Next() {
	if len(c.pending) == 0 {
		return
	}
	h := c.pending[0]
	c.pending[0] = nil
	c.pending = c.pending[1:]
	h(c.req, c, c.Next)
}

// Callback starts the chain: it records the start time and runs the first
// handler.
func (c *Chain) Callback() {
	c.callbackRan = true
	c.startedAt = time.Now()
	c.Next()
}

// PreventDefault stops the router from running the chain. It is meant for
// match event observers, which run before the chain starts.
func (c *Chain) PreventDefault() {
	c.runCallback = false
}

// StopPropagation keeps later chains of the same navigation and path from
// running. It has no effect on this chain.
func (c *Chain) StopPropagation() {
	c.propagate = false
}

// Parent returns the previous state when it belongs to the same family: the
// same navigation and the same path. Chains for a different path, or left
// over from an earlier navigation, are unrelated.
//
// Matching the path alone is not enough: a chain that stopped propagation
// would otherwise suppress every later navigation to the same path. The
// navigation check narrows the family to one navigation on purpose.
func (c *Chain) Parent() (*Chain, bool) {
	p := c.previous
	if p == nil || p.value == "" || p.value != c.value || p.generation != c.generation {
		return nil, false
	}
	return p, true
}
