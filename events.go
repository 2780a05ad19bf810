package pathway

import (
	"context"
	"errors"
	"strings"
)

// Event names fired by the router.
const (
	// EventNavigate re-evaluates every registered route against the
	// current path.
	EventNavigate = "navigate"

	// EventMatch fires when a route matched, before its chain runs. Observers
	// may call Chain.PreventDefault.
	EventMatch = "match"
)

// Event is delivered to listeners.
type Event struct {
	Name    string
	Context context.Context

	// Chain and Match are set for match events.
	Chain *Chain
	Match *MatchResult
}

// Listener receives events. A returned error is collected by Trigger; the
// remaining listeners still run.
type Listener func(ev *Event) error

type subscriptionKind int

const (
	persistent subscriptionKind = iota
	once
)

type subscription struct {
	id       uint64
	kind     subscriptionKind
	listener Listener
}

// emitter is a per-router publish/subscribe registry keyed by event name.
type emitter struct {
	nextID uint64
	subs   map[string][]subscription
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[string][]subscription)}
}

func (e *emitter) add(names string, kind subscriptionKind, l Listener) func() {
	type ref struct {
		name string
		id   uint64
	}
	var refs []ref
	for _, name := range strings.Fields(names) {
		e.nextID++
		e.subs[name] = append(e.subs[name], subscription{id: e.nextID, kind: kind, listener: l})
		refs = append(refs, ref{name: name, id: e.nextID})
	}
	return func() {
		for _, r := range refs {
			e.remove(r.name, r.id)
		}
	}
}

func (e *emitter) remove(name string, id uint64) {
	subs := e.subs[name]
	for i, s := range subs {
		if s.id == id {
			e.subs[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// emit runs the listeners subscribed when emit was called, in subscription
// order. Once-subscriptions are removed before they run.
func (e *emitter) emit(ev *Event) error {
	snapshot := append([]subscription(nil), e.subs[ev.Name]...)
	var errs []error
	for _, s := range snapshot {
		if s.kind == once {
			e.remove(ev.Name, s.id)
		}
		if err := s.listener(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *emitter) count(name string) int {
	return len(e.subs[name])
}

// On subscribes l to one or more space-separated event names and returns a
// function that removes the subscription.
func (r *Router) On(names string, l Listener) func() {
	return r.events.add(names, persistent, l)
}

// Once is like On but the listener is removed after its first event.
func (r *Router) Once(names string, l Listener) func() {
	return r.events.add(names, once, l)
}

// Trigger fires an event. Listener errors are joined and returned.
func (r *Router) Trigger(ev *Event) error {
	if ev.Context == nil {
		ev.Context = r.ctx
	}
	return r.events.emit(ev)
}

// Listeners returns the number of listeners subscribed to name.
func (r *Router) Listeners(name string) int {
	return r.events.count(name)
}
