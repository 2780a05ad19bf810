package pathway

// Location is where the current path lives: browser history, the URL hash,
// or memory. The router reads it on every re-evaluation and writes it on
// Navigate.
type Location interface {
	// Path returns the current path.
	Path() string

	// SetPath makes path the current path.
	SetPath(path string)

	// Clear resets the location to its initial state.
	Clear()
}

// MemoryLocation keeps the path in memory. It is the default location of a
// Router.
type MemoryLocation struct {
	path string
}

// NewMemoryLocation returns a MemoryLocation starting at path.
func NewMemoryLocation(path string) *MemoryLocation {
	return &MemoryLocation{path: path}
}

func (l *MemoryLocation) Path() string        { return l.path }
func (l *MemoryLocation) SetPath(path string) { l.path = path }
func (l *MemoryLocation) Clear()              { l.path = "" }
