package pathway

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// ParamDescriptor describes one capturing group of a compiled pattern.
//
// Descriptors are kept in capture-group order. Named descriptors come from
// :name tokens (or named groups of a pre-built regexp); every other capturing
// group, such as a * wildcard, gets an unnamed descriptor keyed by its capture
// index.
type ParamDescriptor struct {
	// Name is the parameter name, empty for positional captures.
	Name string

	// Index is the zero-based capture index, not counting the full match.
	Index int

	// Optional is true for :name? tokens.
	Optional bool
}

// Key returns the key the captured value is stored under in Params.
func (d ParamDescriptor) Key() string {
	if d.Name != "" {
		return d.Name
	}
	return strconv.Itoa(d.Index)
}

// CompileOption configures pattern compilation.
type CompileOption func(*compileConfig)

type compileConfig struct {
	strict    bool
	sensitive bool
	timeout   time.Duration
}

// Strict disables the optional trailing slash appended to string patterns.
func Strict() CompileOption {
	return func(c *compileConfig) {
		c.strict = true
	}
}

// Sensitive makes matching case-sensitive. Patterns are case-insensitive by
// default.
func Sensitive() CompileOption {
	return func(c *compileConfig) {
		c.sensitive = true
	}
}

// WithMatchTimeout bounds the time a single match attempt may take. Custom
// capture groups run on a backtracking engine; zero means no limit.
func WithMatchTimeout(d time.Duration) CompileOption {
	return func(c *compileConfig) {
		c.timeout = d
	}
}

// Pattern is a compiled route specification. It is immutable and safe to
// share.
type Pattern struct {
	source      any
	expr        string
	descriptors []ParamDescriptor
	engine      engine
}

// engine runs a compiled expression against a path and reports every
// capturing group after the full match.
type engine interface {
	find(path string) ([]Capture, bool, error)
}

// Compile turns a route specification into a Pattern.
//
// Accepted specifications:
//   - string: a path pattern such as "/user/:id", "/file/:name.:ext?" or "/search/*"
//   - []string: alternatives, any of which may match
//   - *regexp2.Regexp or *regexp.Regexp: used as-is
//   - *Pattern: returned unchanged
//
// String grammar, applied left to right:
//   - ":name" captures a segment ([^/]+?); ":name" after a "." captures up to
//     the next dot or slash ([^/.]+?)
//   - ":name(re)" captures with a custom expression
//   - ":name?" makes the parameter and its leading separator optional
//   - "*" captures anything, "+" captures one or more of anything
//   - "/(" opens a non-capturing group that includes the slash
//   - "/" and "." are literal; other characters pass through as expression syntax
//
// Unless Strict is given an optional trailing slash is accepted, and unless
// Sensitive is given matching ignores case.
func Compile(spec any, opts ...CompileOption) (*Pattern, error) {
	var cfg compileConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	switch s := spec.(type) {
	case *Pattern:
		if s == nil {
			return nil, &InvalidPatternError{Reason: "nil pattern"}
		}
		return s, nil
	case *regexp2.Regexp:
		if s == nil {
			return nil, &InvalidPatternError{Reason: "nil regexp"}
		}
		return fromRegexp2(s), nil
	case *regexp.Regexp:
		if s == nil {
			return nil, &InvalidPatternError{Reason: "nil regexp"}
		}
		return fromStdRegexp(s), nil
	case string:
		return compileAlternatives(s, []string{s}, false, cfg)
	case []string:
		if len(s) == 0 {
			return nil, &InvalidPatternError{Reason: "empty alternative list"}
		}
		return compileAlternatives(s, s, true, cfg)
	default:
		return nil, &InvalidPatternError{
			Pattern: fmt.Sprintf("%v", spec),
			Reason:  fmt.Sprintf("unsupported specification type %T", spec),
		}
	}
}

// MustCompile is like Compile but panics if the specification is invalid.
func MustCompile(spec any, opts ...CompileOption) *Pattern {
	p, err := Compile(spec, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the compiled expression.
func (p *Pattern) String() string { return p.expr }

// Source returns the specification the pattern was compiled from.
func (p *Pattern) Source() any { return p.source }

// Descriptors returns the parameter descriptors in capture order.
func (p *Pattern) Descriptors() []ParamDescriptor {
	out := make([]ParamDescriptor, len(p.descriptors))
	copy(out, p.descriptors)
	return out
}

// describe renders a specification for logs and error messages.
func describe(spec any) string {
	switch s := spec.(type) {
	case string:
		return s
	case []string:
		return "[" + strings.Join(s, " | ") + "]"
	case *Pattern:
		return describe(s.source)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", spec)
	}
}

func compileAlternatives(source any, alts []string, group bool, cfg compileConfig) (*Pattern, error) {
	sc := &scanner{}
	sc.out.WriteString("^")
	if group {
		sc.out.WriteString("(?:")
	}
	for i, alt := range alts {
		if i > 0 {
			sc.out.WriteString("|")
		}
		if err := sc.scan(alt); err != nil {
			return nil, &InvalidPatternError{Pattern: describe(source), Reason: err.Error()}
		}
	}
	if group {
		sc.out.WriteString(")")
	}
	if !cfg.strict {
		sc.out.WriteString(`\/?`)
	}
	sc.out.WriteString("$")

	expr := sc.out.String()
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if !cfg.sensitive {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: describe(source), Err: err}
	}
	if cfg.timeout > 0 {
		re.MatchTimeout = cfg.timeout
	}

	return &Pattern{
		source:      source,
		expr:        expr,
		descriptors: sc.descriptors,
		engine:      regexp2Engine{re: re},
	}, nil
}

// fromRegexp2 wraps a caller-built expression. Its options, including the
// match timeout, are left as the caller set them.
func fromRegexp2(re *regexp2.Regexp) *Pattern {
	var desc []ParamDescriptor
	for _, num := range re.GetGroupNumbers() {
		if num == 0 {
			continue
		}
		d := ParamDescriptor{Index: num - 1}
		if name := re.GroupNameFromNumber(num); name != strconv.Itoa(num) {
			d.Name = name
		}
		desc = append(desc, d)
	}
	return &Pattern{
		source:      re,
		expr:        re.String(),
		descriptors: desc,
		engine:      regexp2Engine{re: re},
	}
}

func fromStdRegexp(re *regexp.Regexp) *Pattern {
	var desc []ParamDescriptor
	for i, name := range re.SubexpNames() {
		if i == 0 {
			continue
		}
		desc = append(desc, ParamDescriptor{Name: name, Index: i - 1})
	}
	return &Pattern{
		source:      re,
		expr:        re.String(),
		descriptors: desc,
		engine:      stdEngine{re: re},
	}
}

// scanner rewrites the path grammar into a regular expression, recording a
// descriptor for every capturing group it emits.
type scanner struct {
	out         strings.Builder
	descriptors []ParamDescriptor
	captures    int
}

func (s *scanner) capture(name string, optional bool) {
	s.descriptors = append(s.descriptors, ParamDescriptor{Name: name, Index: s.captures, Optional: optional})
	s.captures++
}

func (s *scanner) scan(src string) error {
	depth := 0
	for i := 0; i < len(src); {
		if next, ok, err := s.param(src, i); err != nil {
			return err
		} else if ok {
			i = next
			continue
		}

		c := src[i]
		switch {
		case c == '\\':
			if i+1 >= len(src) {
				return fmt.Errorf("trailing backslash")
			}
			s.out.WriteString(src[i : i+2])
			i += 2
		case c == '/' && i+1 < len(src) && src[i+1] == '(':
			s.out.WriteString(`(?:\/`)
			depth++
			i += 2
		case c == '(':
			n, capturing, err := groupPrefix(src, i)
			if err != nil {
				return err
			}
			if capturing {
				s.capture("", false)
			}
			s.out.WriteString(src[i : i+n])
			depth++
			i += n
		case c == ')':
			if depth == 0 {
				return fmt.Errorf("unmatched ')' at offset %d", i)
			}
			s.out.WriteByte(')')
			depth--
			i++
		case c == '[':
			end, err := classEnd(src, i)
			if err != nil {
				return err
			}
			s.out.WriteString(src[i:end])
			i = end
		case c == '*':
			s.capture("", false)
			s.out.WriteString("(.*)")
			i++
		case c == '+':
			s.capture("", false)
			s.out.WriteString("(.+)")
			i++
		case c == '/':
			s.out.WriteString(`\/`)
			i++
		case c == '.':
			s.out.WriteString(`\.`)
			i++
		default:
			s.out.WriteByte(c)
			i++
		}
	}
	if depth != 0 {
		return fmt.Errorf("unmatched '('")
	}
	return nil
}

// param consumes a [/][.]:name[(custom)][?] token starting at i.
func (s *scanner) param(src string, i int) (int, bool, error) {
	j := i
	slash, dot := false, false
	if j < len(src) && src[j] == '/' {
		slash = true
		j++
	}
	if j < len(src) && src[j] == '.' {
		dot = true
		j++
	}
	if j >= len(src) || src[j] != ':' {
		return i, false, nil
	}
	j++
	start := j
	for j < len(src) && isWordChar(src[j]) {
		j++
	}
	if j == start {
		return i, false, nil
	}
	name := src[start:j]

	group := ""
	if j < len(src) && src[j] == '(' {
		end, err := groupEnd(src, j)
		if err != nil {
			return i, false, fmt.Errorf("parameter %q: %w", name, err)
		}
		group = src[j:end]
		j = end
	}
	optional := false
	if j < len(src) && src[j] == '?' {
		optional = true
		j++
	}

	s.capture(name, optional)
	if group == "" {
		if dot {
			group = `([^/.]+?)`
		} else {
			group = `([^/]+?)`
		}
	} else {
		// Capturing groups nested in a custom expression follow the
		// parameter's own group in capture order.
		for k := 1; k < len(group)-1; k++ {
			switch group[k] {
			case '\\':
				k++
			case '[':
				end, err := classEnd(group, k)
				if err != nil {
					return i, false, err
				}
				k = end - 1
			case '(':
				_, capturing, err := groupPrefix(group, k)
				if err != nil {
					return i, false, fmt.Errorf("parameter %q: %w", name, err)
				}
				if capturing {
					s.capture("", false)
				}
			}
		}
	}

	prefix := ""
	if slash {
		prefix = `\/`
	}
	format := ""
	if dot {
		format = `\.`
	}
	if optional {
		s.out.WriteString("(?:" + prefix + format + group + ")?")
	} else {
		s.out.WriteString(prefix + "(?:" + format + group + ")")
	}
	return j, true, nil
}

// groupPrefix inspects the '(' at i and returns the length of its opening
// syntax ("(", "(?:", "(?<=", ...) and whether the group captures.
func groupPrefix(src string, i int) (int, bool, error) {
	rest := src[i:]
	switch {
	case !strings.HasPrefix(rest, "(?"):
		return 1, true, nil
	case strings.HasPrefix(rest, "(?<=") || strings.HasPrefix(rest, "(?<!"):
		return 4, false, nil
	case strings.HasPrefix(rest, "(?<"):
		return 0, false, fmt.Errorf("named groups are not supported, use :name")
	case strings.HasPrefix(rest, "(?:") || strings.HasPrefix(rest, "(?=") || strings.HasPrefix(rest, "(?!"):
		return 3, false, nil
	default:
		return 2, false, nil
	}
}

// groupEnd returns the offset just past the ')' balancing the '(' at i.
func groupEnd(src string, i int) (int, error) {
	depth := 0
	for j := i; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '[':
			end, err := classEnd(src, j)
			if err != nil {
				return 0, err
			}
			j = end - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated group at offset %d", i)
}

// classEnd returns the offset just past the ']' closing the class at i.
func classEnd(src string, i int) (int, error) {
	j := i + 1
	if j < len(src) && src[j] == '^' {
		j++
	}
	for ; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case ']':
			return j + 1, nil
		}
	}
	return 0, fmt.Errorf("unterminated character class at offset %d", i)
}

func isWordChar(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

type regexp2Engine struct {
	re *regexp2.Regexp
}

func (e regexp2Engine) find(path string) ([]Capture, bool, error) {
	m, err := e.re.FindStringMatch(path)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMatchTimeout, err)
	}
	if m == nil {
		return nil, false, nil
	}
	// regexp2 matches over runes, turning each invalid byte into U+FFFD.
	// Slice the original path so such captures keep their raw bytes.
	var offsets []int
	if !utf8.ValidString(path) {
		offsets = runeOffsets(path)
	}

	groups := m.Groups()
	caps := make([]Capture, 0, len(groups)-1)
	for i := 1; i < len(groups); i++ {
		g := &groups[i]
		if len(g.Captures) == 0 {
			caps = append(caps, Capture{})
			continue
		}
		v := g.String()
		if offsets != nil {
			v = path[offsets[g.Index]:offsets[g.Index+g.Length]]
		}
		caps = append(caps, Capture{Value: v, Present: true})
	}
	return caps, true, nil
}

// runeOffsets maps rune positions of path, as []rune(path) counts them, to
// byte offsets. The final entry is len(path).
func runeOffsets(path string) []int {
	offsets := make([]int, 0, len(path)+1)
	for i := 0; i < len(path); {
		offsets = append(offsets, i)
		_, w := utf8.DecodeRuneInString(path[i:])
		i += w
	}
	return append(offsets, len(path))
}

type stdEngine struct {
	re *regexp.Regexp
}

func (e stdEngine) find(path string) ([]Capture, bool, error) {
	loc := e.re.FindStringSubmatchIndex(path)
	if loc == nil {
		return nil, false, nil
	}
	caps := make([]Capture, 0, len(loc)/2-1)
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] < 0 {
			caps = append(caps, Capture{})
			continue
		}
		caps = append(caps, Capture{Value: path[loc[i]:loc[i+1]], Present: true})
	}
	return caps, true, nil
}
