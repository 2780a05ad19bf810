package bridge

import "errors"

// ErrPassThrough is returned by Parse when a host event is valid but must be
// left to the host, such as a click on a link that opens a new tab. Process
// treats it as handled without touching the router.
var ErrPassThrough = errors.New("event left to the host")

// Kind is what a host message asks the router to do.
type Kind int

const (
	// KindNavigate moves to Message.Path.
	KindNavigate Kind = iota + 1

	// KindPopState records that the host traversed history to Message.URL
	// and re-evaluates routes through Router.PopState.
	KindPopState

	// KindHashChange records that the fragment changed to Message.URL.
	KindHashChange

	// KindClick asks the router to take over a link to Message.URL.
	KindClick
)

func (k Kind) String() string {
	switch k {
	case KindNavigate:
		return "navigate"
	case KindPopState:
		return "popstate"
	case KindHashChange:
		return "hashchange"
	case KindClick:
		return "click"
	default:
		return "unknown"
	}
}

// Message is a host event decoded by a Source.
type Message struct {
	Kind Kind

	// Path is the router path for KindNavigate.
	Path string

	// URL is the location reported by the host for KindPopState and
	// KindHashChange, or the link href for KindClick.
	URL string

	// Replace swaps the current history entry instead of pushing one.
	Replace bool
}

// Source recognises and decodes one kind of host message.
//
// The bridge asks every source's Discriminator first and only parses with a
// source whose discriminator matched.
//
// Example:
//
//	type reloadSource struct{}
//
//	func (reloadSource) Name() string { return "reload" }
//
//	func (reloadSource) Discriminator() bridge.Discriminator {
//	    return bridge.EventType("reload")
//	}
//
//	func (reloadSource) Parse(raw []byte) (bridge.Message, error) {
//	    return bridge.Message{Kind: bridge.KindPopState, URL: gjson.GetBytes(raw, "url").String()}, nil
//	}
type Source interface {
	// Name identifies the source in logs and hooks.
	Name() string

	// Discriminator returns the predicate checked before Parse.
	Discriminator() Discriminator

	// Parse decodes raw into a Message. Return ErrPassThrough for events
	// the host should handle itself.
	Parse(raw []byte) (Message, error)
}

// SourceFunc creates a Source from a name, discriminator and parse function.
//
//	b.AddSource(bridge.SourceFunc("legacy", bridge.HasFields("route"), func(raw []byte) (bridge.Message, error) {
//	    return bridge.Message{Kind: bridge.KindNavigate, Path: gjson.GetBytes(raw, "route").String()}, nil
//	}))
func SourceFunc(name string, disc Discriminator, parse func([]byte) (Message, error)) Source {
	return &sourceFunc{name: name, disc: disc, parse: parse}
}

type sourceFunc struct {
	name  string
	disc  Discriminator
	parse func([]byte) (Message, error)
}

func (s *sourceFunc) Name() string                      { return s.name }
func (s *sourceFunc) Discriminator() Discriminator      { return s.disc }
func (s *sourceFunc) Parse(raw []byte) (Message, error) { return s.parse(raw) }
