// Package bridge connects a pathway router to the page it routes for.
//
// A browser shim (a WebView binding, a wasm stub, a websocket client) reports
// DOM events as small JSON messages. The bridge recognises each message with
// a Source, decodes it into a Message and applies it to the router and its
// location:
//
//	{"type":"navigate","path":"/users/7"}            -> Router.Navigate
//	{"type":"click","href":"/users/7"}               -> Router.Navigate, if the link stays in the app
//	{"type":"popstate","url":"https://host/users/7"} -> History.Sync + Router.PopState
//	{"type":"hashchange","url":"https://host/#/x"}   -> History.Sync + Router.Reload
//
// Sources are matched with cheap Discriminators over an Inspector view
// before anything is decoded; the last source that matched is tried first.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bjaus/pathway"
)

// ErrNoSource is returned when no source recognises a message and no
// OnNoSource hook is configured.
var ErrNoSource = errors.New("no source matched message")

// Option configures a Bridge.
type Option func(*Bridge)

// Bridge applies host messages to a router. Like the router it drives, a
// Bridge is confined to one goroutine; Serve provides that goroutine for a
// websocket connection.
type Bridge struct {
	router           *pathway.Router
	defaultInspector Inspector
	defaultSources   []Source
	groups           []group
	hooks            hooks
	log              zerolog.Logger
	builtins         bool

	// Adaptive ordering: try last successful source first
	lastMatch atomic.Value // stores string
}

// group holds sources that share an inspector.
type group struct {
	inspector Inspector
	sources   []Source
}

// New creates a Bridge for r. The built-in sources (navigate, popstate,
// hashchange, click) are installed unless WithoutBuiltins is given.
//
// Example:
//
//	h := history.New(history.PushState, history.WithRoot("/app"))
//	r := pathway.New(pathway.WithLocation(h))
//	b := bridge.New(r, bridge.WithLogger(logger))
func New(r *pathway.Router, opts ...Option) *Bridge {
	b := &Bridge{
		router:           r,
		defaultInspector: JSONInspector(),
		log:              zerolog.Nop(),
		builtins:         true,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.builtins {
		b.defaultSources = append(Sources(), b.defaultSources...)
	}
	return b
}

// WithInspector sets the inspector for sources added with AddSource.
func WithInspector(i Inspector) Option {
	return func(b *Bridge) {
		b.defaultInspector = i
	}
}

// WithoutBuiltins leaves out the built-in sources.
func WithoutBuiltins() Option {
	return func(b *Bridge) {
		b.builtins = false
	}
}

// WithLogger sets the logger for bridge diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) {
		b.log = l.With().Str("component", "bridge").Logger()
	}
}

// Router returns the router the bridge drives.
func (b *Bridge) Router() *pathway.Router { return b.router }

// AddSource registers a source with the default inspector. Sources are tried
// in registration order, after the built-ins.
func (b *Bridge) AddSource(s Source) {
	b.defaultSources = append(b.defaultSources, s)
}

// AddGroup registers sources that need their own inspector. Groups are
// checked after the default sources, in registration order.
func (b *Bridge) AddGroup(inspector Inspector, sources ...Source) {
	b.groups = append(b.groups, group{inspector: inspector, sources: sources})
}

// Process decodes one host message and applies it.
//
// The flow:
//  1. Find a source whose discriminator matches
//  2. Parse the message with it (ErrPassThrough leaves the event to the host)
//  3. Run OnApply hooks
//  4. Apply the message to the location and the router
func (b *Bridge) Process(ctx context.Context, raw []byte) error {
	_, err := b.process(ctx, raw)
	return err
}

// process reports whether the router took the event over. A false result
// with a nil error tells the host to perform its default action.
func (b *Bridge) process(ctx context.Context, raw []byte) (bool, error) {
	source := b.match(raw)
	if source == nil {
		return false, b.handleNoSource(ctx, raw)
	}

	msg, err := source.Parse(raw)
	if errors.Is(err, ErrPassThrough) {
		b.log.Debug().Str("source", source.Name()).Err(err).Msg("left to host")
		return false, nil
	}
	if err != nil {
		return false, b.handleParseError(ctx, source, err)
	}

	ctx = b.callOnApply(ctx, source, msg)
	b.log.Debug().
		Str("source", source.Name()).
		Stringer("kind", msg.Kind).
		Str("path", msg.Path).
		Str("url", msg.URL).
		Bool("replace", msg.Replace).
		Msg("applying host message")

	return b.Apply(ctx, msg)
}

// Apply applies a decoded message. It reports false when the message was a
// click on a link outside the application.
func (b *Bridge) Apply(ctx context.Context, msg Message) (bool, error) {
	loc := b.router.Location()
	switch msg.Kind {
	case KindNavigate:
		return true, b.navigate(ctx, msg.Path, msg.Replace)

	case KindClick:
		path, ok := resolve(loc, msg.URL)
		if !ok {
			return false, nil
		}
		return true, b.navigate(ctx, path, msg.Replace)

	case KindPopState:
		syncLocation(loc, msg.URL)
		return true, b.router.PopState(ctx)

	case KindHashChange:
		if !syncLocation(loc, msg.URL) {
			return true, nil
		}
		return true, b.router.Reload(ctx)

	default:
		return false, fmt.Errorf("unknown message kind %d", msg.Kind)
	}
}

func (b *Bridge) navigate(ctx context.Context, path string, replace bool) error {
	if replace {
		if r, ok := b.router.Location().(replacer); ok {
			r.Replace(path)
			return b.router.Reload(ctx)
		}
	}
	return b.router.Navigate(ctx, path)
}

// Optional location capabilities; history.History implements all of them.
type (
	syncer interface {
		Sync(url string) bool
	}
	resolver interface {
		PathOf(href string) (string, bool)
	}
	replacer interface {
		Replace(path string)
	}
	urler interface {
		URL() string
	}
)

// syncLocation records a host-side location change and reports whether it moved.
func syncLocation(loc pathway.Location, url string) bool {
	if s, ok := loc.(syncer); ok {
		return s.Sync(url)
	}
	if loc.Path() == url {
		return false
	}
	loc.SetPath(url)
	return true
}

func resolve(loc pathway.Location, href string) (string, bool) {
	if r, ok := loc.(resolver); ok {
		return r.PathOf(href)
	}
	return href, strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")
}

// viewCache caches parsed views per inspector so each message is inspected
// at most once per inspector while sources are matched.
type viewCache struct {
	raw   []byte
	views map[Inspector]viewResult
}

type viewResult struct {
	view View
	ok   bool
}

func newViewCache(raw []byte) *viewCache {
	return &viewCache{
		raw:   raw,
		views: make(map[Inspector]viewResult),
	}
}

func (c *viewCache) get(insp Inspector) (View, bool) {
	if result, ok := c.views[insp]; ok {
		return result.view, result.ok
	}
	view, err := insp.Inspect(c.raw)
	c.views[insp] = viewResult{view: view, ok: err == nil}
	return view, err == nil
}

// match finds a source whose discriminator accepts raw, trying the last
// successful source first.
func (b *Bridge) match(raw []byte) Source {
	cache := newViewCache(raw)

	if last, ok := b.lastMatch.Load().(string); ok && last != "" {
		if src := b.find(cache, func(s Source) bool { return s.Name() == last }); src != nil {
			return src
		}
	}

	src := b.find(cache, func(Source) bool { return true })
	if src != nil {
		b.lastMatch.Store(src.Name())
	}
	return src
}

// find walks the default sources, then each group, and returns the first
// source accepted by want whose discriminator matches.
func (b *Bridge) find(cache *viewCache, want func(Source) bool) Source {
	if len(b.defaultSources) > 0 {
		if view, ok := cache.get(b.defaultInspector); ok {
			for _, src := range b.defaultSources {
				if want(src) && src.Discriminator().Match(view) {
					return src
				}
			}
		}
	}
	for _, g := range b.groups {
		view, ok := cache.get(g.inspector)
		if !ok {
			continue
		}
		for _, src := range g.sources {
			if want(src) && src.Discriminator().Match(view) {
				return src
			}
		}
	}
	return nil
}
