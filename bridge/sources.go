package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sources returns the built-in sources in the order New installs them.
func Sources() []Source {
	return []Source{NavigateSource(), PopStateSource(), HashChangeSource(), ClickSource()}
}

// NavigateSource decodes {"type":"navigate","path":"/users","replace":false}.
// The path must be absolute.
func NavigateSource() Source {
	return SourceFunc("navigate", And(EventType("navigate"), FieldPrefix("path", "/")), func(raw []byte) (Message, error) {
		var env struct {
			Path    string `json:"path"`
			Replace bool   `json:"replace"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return Message{}, err
		}
		return Message{Kind: KindNavigate, Path: env.Path, Replace: env.Replace}, nil
	})
}

// PopStateSource decodes {"type":"popstate","url":"https://host/app/users"},
// sent after the user moved through history.
func PopStateSource() Source {
	return SourceFunc("popstate", And(EventType("popstate"), HasFields("url")), locationParser(KindPopState))
}

// HashChangeSource decodes {"type":"hashchange","url":"https://host/#/users"}.
func HashChangeSource() Source {
	return SourceFunc("hashchange", And(EventType("hashchange"), HasFields("url")), locationParser(KindHashChange))
}

func locationParser(kind Kind) func([]byte) (Message, error) {
	return func(raw []byte) (Message, error) {
		var env struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return Message{}, err
		}
		return Message{Kind: kind, URL: env.URL}, nil
	}
}

// clickEvent mirrors the fields of a DOM click on an anchor.
type clickEvent struct {
	Href     string `json:"href"`
	Target   string `json:"target"`
	Download bool   `json:"download"`
	Rel      string `json:"rel"`
	Button   int    `json:"button"`
	CtrlKey  bool   `json:"ctrlKey"`
	MetaKey  bool   `json:"metaKey"`
	ShiftKey bool   `json:"shiftKey"`
	AltKey   bool   `json:"altKey"`
	Replace  bool   `json:"replace"`
}

var errEmptyHref = errors.New("click without href")

// ClickSource decodes anchor clicks:
//
//	{"type":"click","href":"/users/7","target":"","button":0,"ctrlKey":false}
//
// Clicks the browser should handle itself yield ErrPassThrough: a button
// other than the primary one, a modifier key, a target other than _self, a
// download link or rel="external". Whether the href belongs to the
// application is decided when the message is applied.
func ClickSource() Source {
	return SourceFunc("click", And(EventType("click"), HasFields("href")), func(raw []byte) (Message, error) {
		var ev clickEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return Message{}, err
		}
		if ev.Href == "" {
			return Message{}, errEmptyHref
		}
		switch {
		case ev.Button != 0:
			return Message{}, fmt.Errorf("button %d: %w", ev.Button, ErrPassThrough)
		case ev.CtrlKey || ev.MetaKey || ev.ShiftKey || ev.AltKey:
			return Message{}, fmt.Errorf("modifier key: %w", ErrPassThrough)
		case ev.Target != "" && ev.Target != "_self":
			return Message{}, fmt.Errorf("target %s: %w", ev.Target, ErrPassThrough)
		case ev.Download:
			return Message{}, fmt.Errorf("download: %w", ErrPassThrough)
		case ev.Rel == "external":
			return Message{}, fmt.Errorf("external link: %w", ErrPassThrough)
		}
		return Message{Kind: KindClick, URL: ev.Href, Replace: ev.Replace}, nil
	})
}
