package pathway

import (
	"errors"
	"net/url"
	"strconv"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("invalid UTF-8 sequence")

// Capture is one capturing group of a match. Present is false when the group
// did not take part in the match (an optional parameter that was absent),
// which is distinct from a group that matched the empty string.
type Capture struct {
	Value   string
	Present bool
}

// Param is a decoded capture stored under its descriptor key.
type Param struct {
	// Key is the descriptor name, or the capture index for unnamed groups.
	Key string

	// Value is the percent-decoded capture. When Err is set it holds the raw
	// capture instead.
	Value string

	// Present is false when the capture did not participate in the match.
	Present bool

	// Err is a *ParamDecodeError when Value could not be decoded.
	Err error
}

// Params holds the parameters of a match in descriptor order. Keys are unique.
type Params []Param

// Param returns the full entry for key.
func (ps Params) Param(key string) (Param, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p, true
		}
	}
	return Param{}, false
}

// Lookup returns the decoded value for key. It reports false when the key is
// unknown, the capture was absent, or the value failed to decode.
func (ps Params) Lookup(key string) (string, bool) {
	p, ok := ps.Param(key)
	if !ok || !p.Present || p.Err != nil {
		return "", false
	}
	return p.Value, true
}

// Get returns the decoded value for key or the empty string.
func (ps Params) Get(key string) string {
	v, _ := ps.Lookup(key)
	return v
}

// At looks up an unnamed capture by its capture index, as produced by
// wildcards.
func (ps Params) At(index int) (string, bool) {
	return ps.Lookup(strconv.Itoa(index))
}

// Has reports whether key is a parameter of the match, present or not.
func (ps Params) Has(key string) bool {
	_, ok := ps.Param(key)
	return ok
}

// Keys returns the parameter keys in order.
func (ps Params) Keys() []string {
	keys := make([]string, len(ps))
	for i, p := range ps {
		keys[i] = p.Key
	}
	return keys
}

// Map returns the successfully decoded, present parameters.
func (ps Params) Map() map[string]string {
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		if p.Present && p.Err == nil {
			m[p.Key] = p.Value
		}
	}
	return m
}

// Errors returns the decode errors of the match, if any.
func (ps Params) Errors() []error {
	var errs []error
	for _, p := range ps {
		if p.Err != nil {
			errs = append(errs, p.Err)
		}
	}
	return errs
}

// MatchResult is the outcome of applying a Pattern to a path.
type MatchResult struct {
	Matched  bool
	Path     string
	Captures []Capture
	Params   Params
	Pattern  *Pattern
}

// Match applies the pattern to path. A path that does not match yields a
// result with Matched false and no error; an error is returned only when the
// engine fails, such as on a match timeout.
func (p *Pattern) Match(path string) (*MatchResult, error) {
	res := &MatchResult{Path: path, Pattern: p}
	caps, ok, err := p.engine.find(path)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, nil
	}
	res.Matched = true
	res.Captures = caps
	res.Params = buildParams(p.descriptors, caps)
	return res, nil
}

func buildParams(desc []ParamDescriptor, caps []Capture) Params {
	params := make(Params, 0, len(caps))
	seen := make(map[string]int, len(caps))
	for i, c := range caps {
		key := strconv.Itoa(i)
		if i < len(desc) {
			key = desc[i].Key()
		}

		p := Param{Key: key, Present: c.Present}
		if c.Present {
			v, err := decodeComponent(c.Value)
			if err != nil {
				p.Value = c.Value
				p.Err = &ParamDecodeError{Key: key, Raw: c.Value, Err: err}
			} else {
				p.Value = v
			}
		}

		// Alternatives may repeat a name; the capture that took part wins.
		if j, dup := seen[key]; dup {
			if !params[j].Present && p.Present {
				params[j] = p
			}
			continue
		}
		seen[key] = len(params)
		params = append(params, p)
	}
	return params
}

// decodeComponent decodes percent escapes the way browsers decode URI
// components: "+" stays a plus and the result must be valid UTF-8.
func decodeComponent(raw string) (string, error) {
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(v) {
		return "", errInvalidUTF8
	}
	return v, nil
}
