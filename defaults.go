package pathway

import "sync"

// Defaults is a list of handlers every chain starts with, ahead of route
// middleware. It is the hook point for cross-cutting instrumentation such as
// tracing and metrics.
//
// A router created without WithDefaults owns a private list. Pass the same
// Defaults to several routers to share it; it is safe for concurrent use.
type Defaults struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewDefaults returns a Defaults seeded with handlers.
func NewDefaults(handlers ...Handler) *Defaults {
	d := &Defaults{}
	d.Use(handlers...)
	return d
}

// Use appends handlers. Chains created afterwards include them; running
// chains are unaffected.
func (d *Defaults) Use(handlers ...Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			d.handlers = append(d.handlers, h)
		}
	}
}

// Clear removes all default handlers.
func (d *Defaults) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = nil
}

// Handlers returns a snapshot of the default handlers.
func (d *Defaults) Handlers() []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Handler, len(d.handlers))
	copy(out, d.handlers)
	return out
}

// Len returns the number of default handlers.
func (d *Defaults) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}
