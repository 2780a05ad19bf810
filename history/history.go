// Package history models a browser session history for pathway routers.
//
// A History is a pathway.Location: the router reads the current path from
// it and writes new paths to it. Three modes mirror how a browser keeps the
// path of a single-page application:
//
//   - PushState: the path lives in the URL pathname, below an optional root
//   - Hash: the path lives in the fragment ("#/users" or "#!/users")
//   - Memory: the path is the entry itself
//
// Besides the Location methods it keeps the stack of entries so hosts and
// tests can move Back and Forward, and Sync records location changes that
// happened outside the router.
package history

import (
	"net/url"
	"strings"
)

// Mode selects where the path is kept.
type Mode int

const (
	Memory Mode = iota
	PushState
	Hash
)

func (m Mode) String() string {
	switch m {
	case PushState:
		return "pushstate"
	case Hash:
		return "hash"
	default:
		return "memory"
	}
}

// ParseMode parses a mode name as used in configuration files.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "memory":
		return Memory, true
	case "pushstate", "push_state", "history":
		return PushState, true
	case "hash", "hashchange":
		return Hash, true
	default:
		return Memory, false
	}
}

// Option configures a History.
type Option func(*History)

// WithRoot sets the path prefix of the application in PushState mode.
func WithRoot(root string) Option {
	return func(h *History) {
		h.root = strings.TrimSuffix(root, "/")
	}
}

// WithHashBang makes Hash mode write "#!/path" fragments.
func WithHashBang() Option {
	return func(h *History) {
		h.hashBang = true
	}
}

// WithInitialURL sets the first entry instead of the mode's empty location.
func WithInitialURL(u string) Option {
	return func(h *History) {
		h.initial = &u
	}
}

// History is an in-memory session history. It is not safe for concurrent
// use; it belongs to the goroutine driving its router.
type History struct {
	mode     Mode
	root     string
	hashBang bool
	initial  *string

	entries []string
	index   int
}

// New creates a History with one entry.
func New(mode Mode, opts ...Option) *History {
	h := &History{mode: mode}
	for _, opt := range opts {
		opt(h)
	}
	first := h.emptyURL()
	if h.initial != nil {
		first = h.normalize(*h.initial)
	}
	h.entries = []string{first}
	return h
}

// Mode returns the history mode.
func (h *History) Mode() Mode { return h.mode }

// Root returns the PushState root.
func (h *History) Root() string { return h.root }

// HashBang reports whether Hash mode writes "#!" fragments.
func (h *History) HashBang() bool { return h.hashBang }

// URL returns the current entry as the browser would show it: the pathname in
// PushState mode, the fragment in Hash mode.
func (h *History) URL() string { return h.entries[h.index] }

// Path returns the router path of the current entry.
func (h *History) Path() string {
	return h.pathOfEntry(h.URL())
}

// SetPath pushes a new entry for path, dropping any forward entries.
func (h *History) SetPath(path string) {
	h.push(h.urlFor(path))
}

// Replace swaps the current entry for path.
func (h *History) Replace(path string) {
	h.entries[h.index] = h.urlFor(path)
}

// Clear pushes the mode's empty location: the root in PushState mode, an
// empty fragment in Hash mode.
func (h *History) Clear() {
	h.push(h.emptyURL())
}

// Back moves to the previous entry. It reports false at the first entry.
func (h *History) Back() bool { return h.Go(-1) }

// Forward moves to the next entry. It reports false at the last entry.
func (h *History) Forward() bool { return h.Go(1) }

// Go moves delta entries. Out of range moves do nothing and report false.
func (h *History) Go(delta int) bool {
	i := h.index + delta
	if delta == 0 || i < 0 || i >= len(h.entries) {
		return false
	}
	h.index = i
	return true
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Index returns the position of the current entry.
func (h *History) Index() int { return h.index }

// Entries returns a copy of the entries.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Sync records that the host moved to u without the router's involvement,
// after the user pressed back or forward or edited the address. A move to a
// neighbouring entry is treated as traversal; anything else is a new entry.
// It reports whether the current entry changed.
func (h *History) Sync(u string) bool {
	entry := h.normalize(u)
	switch {
	case entry == h.entries[h.index]:
		return false
	case h.index > 0 && h.entries[h.index-1] == entry:
		h.index--
	case h.index+1 < len(h.entries) && h.entries[h.index+1] == entry:
		h.index++
	default:
		h.push(entry)
	}
	return true
}

// PathOf resolves an href to a router path. It reports false for links that
// leave the application: absolute URLs, other roots in PushState mode, and
// fragments that are not routes in Hash mode.
func (h *History) PathOf(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", false
	}
	switch h.mode {
	case PushState:
		if u.Path == "" && u.Fragment != "" {
			return "", false
		}
		p := u.EscapedPath()
		if h.root != "" {
			if p != h.root && !strings.HasPrefix(p, h.root+"/") {
				return "", false
			}
			p = strings.TrimPrefix(p, h.root)
		}
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		return p, true
	case Hash:
		if strings.HasPrefix(href, "#") {
			entry := h.normalize(href)
			if !strings.HasPrefix(entry, h.marker()) {
				return "", false
			}
			return h.pathOfEntry(entry), true
		}
		return href, strings.HasPrefix(href, "/")
	default:
		return href, true
	}
}

func (h *History) push(entry string) {
	h.entries = append(h.entries[:h.index+1:h.index+1], entry)
	h.index = len(h.entries) - 1
}

func (h *History) marker() string {
	if h.hashBang {
		return "#!"
	}
	return "#"
}

func (h *History) emptyURL() string {
	switch h.mode {
	case PushState:
		if h.root == "" {
			return "/"
		}
		return h.root
	case Hash:
		if h.hashBang {
			return "#!"
		}
		return ""
	default:
		return ""
	}
}

func (h *History) urlFor(path string) string {
	switch h.mode {
	case PushState:
		return h.root + path
	case Hash:
		return h.marker() + path
	default:
		return path
	}
}

func (h *History) pathOfEntry(entry string) string {
	switch h.mode {
	case PushState:
		if h.root == "" {
			return entry
		}
		return strings.TrimPrefix(entry, h.root)
	case Hash:
		if !strings.HasPrefix(entry, h.marker()) {
			return ""
		}
		return strings.TrimPrefix(entry, h.marker())
	default:
		return entry
	}
}

// normalize reduces a URL reported by the host to the part the mode keeps.
func (h *History) normalize(raw string) string {
	if h.mode == Memory {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch h.mode {
	case PushState:
		p := u.EscapedPath()
		if p == "" {
			p = "/"
		}
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
		return p
	default:
		if u.Fragment == "" && !strings.Contains(raw, "#") {
			return ""
		}
		return "#" + u.EscapedFragment()
	}
}
