package pathway

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Expression(t *testing.T) {
	tests := map[string]struct {
		spec any
		opts []CompileOption
		want string
	}{
		"root":            {"/", nil, `^\/\/?$`},
		"literal":         {"/about", nil, `^\/about\/?$`},
		"strict":          {"/about", []CompileOption{Strict()}, `^\/about$`},
		"dot escaped":     {"/robots.txt", nil, `^\/robots\.txt\/?$`},
		"named":           {"/user/:id", nil, `^\/user\/(?:([^/]+?))\/?$`},
		"optional":        {"/user/:id?", nil, `^\/user(?:\/([^/]+?))?\/?$`},
		"dot format":      {"/file/:name.:ext", nil, `^\/file\/(?:([^/]+?))(?:\.([^/.]+?))\/?$`},
		"optional format": {"/file/:name.:ext?", nil, `^\/file\/(?:([^/]+?))(?:\.([^/.]+?))?\/?$`},
		"custom group":    {`/post/:id(\d+)`, nil, `^\/post\/(?:(\d+))\/?$`},
		"wildcard":        {"/search/*", nil, `^\/search\/(.*)\/?$`},
		"plus":            {"/a/+", nil, `^\/a\/(.+)\/?$`},
		"slash group":     {"/a/(b|c)", nil, `^\/a(?:\/b|c)\/?$`},
		"alternatives":    {[]string{"/a", "/b/:id"}, nil, `^(?:\/a|\/b\/(?:([^/]+?)))\/?$`},
		"non-capturing":   {"/x(?:yz)?", nil, `^\/x(?:yz)?\/?$`},
		"character class": {"/v[0-9]/:p", nil, `^\/v[0-9]\/(?:([^/]+?))\/?$`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := Compile(tt.spec, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestCompile_Descriptors(t *testing.T) {
	tests := map[string]struct {
		spec string
		want []ParamDescriptor
	}{
		"literal": {"/about", nil},
		"named and optional": {"/file/:name.:ext?", []ParamDescriptor{
			{Name: "name", Index: 0},
			{Name: "ext", Index: 1, Optional: true},
		}},
		"wildcard before param": {"/files/*/:name", []ParamDescriptor{
			{Index: 0},
			{Name: "name", Index: 1},
		}},
		"bare group": {"/x/v(a|b)-:id", []ParamDescriptor{
			{Index: 0},
			{Name: "id", Index: 1},
		}},
		"nested group in custom": {`/d/:date((\d+)-(\d+))/:slug`, []ParamDescriptor{
			{Name: "date", Index: 0},
			{Index: 1},
			{Index: 2},
			{Name: "slug", Index: 3},
		}},
		"non-capturing in custom": {`/n/:id((?:\d+))`, []ParamDescriptor{
			{Name: "id", Index: 0},
		}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := Compile(tt.spec)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, p.Descriptors())
				return
			}
			assert.Equal(t, tt.want, p.Descriptors())
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := map[string]any{
		"unmatched open":      "/a/(b",
		"unmatched close":     "/a/b)",
		"unterminated custom": "/a/:id(\\d+",
		"unterminated class":  "/a/[bc",
		"trailing backslash":  `/a\`,
		"named group":         "/a/x(?<id>y)",
		"engine rejects":      "/a/:id(x{2,1})",
		"empty alternatives":  []string{},
		"unsupported type":    42,
		"nil pattern":         (*Pattern)(nil),
		"nil regexp":          (*regexp.Regexp)(nil),
	}

	for name, spec := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := Compile(spec)
			assert.Nil(t, p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPattern)

			var perr *InvalidPatternError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestMustCompile(t *testing.T) {
	assert.NotPanics(t, func() { MustCompile("/ok") })
	assert.Panics(t, func() { MustCompile("/broken(") })
}

func TestCompile_PassThrough(t *testing.T) {
	t.Run("compiled pattern returned unchanged", func(t *testing.T) {
		p := MustCompile("/user/:id")
		q, err := Compile(p, Strict())
		require.NoError(t, err)
		assert.Same(t, p, q)
	})

	t.Run("regexp2 with named groups", func(t *testing.T) {
		re := regexp2.MustCompile(`^/u/(?<id>\d+)$`, regexp2.None)
		p, err := Compile(re)
		require.NoError(t, err)
		assert.Equal(t, re, p.Source())
		assert.Equal(t, []ParamDescriptor{{Name: "id", Index: 0}}, p.Descriptors())

		res, err := p.Match("/u/12")
		require.NoError(t, err)
		assert.Equal(t, "12", res.Params.Get("id"))
	})

	t.Run("regexp2 options are kept", func(t *testing.T) {
		re := regexp2.MustCompile(`^/CASE$`, regexp2.None)
		p := MustCompile(re)

		res, err := p.Match("/case")
		require.NoError(t, err)
		assert.False(t, res.Matched, "a pre-built matcher is not made case-insensitive")
	})

	t.Run("standard regexp", func(t *testing.T) {
		re := regexp.MustCompile(`^/v(\d+)/(?P<name>[a-z]+)$`)
		p := MustCompile(re)
		assert.Equal(t, []ParamDescriptor{{Index: 0}, {Name: "name", Index: 1}}, p.Descriptors())

		res, err := p.Match("/v2/docs")
		require.NoError(t, err)
		require.True(t, res.Matched)
		v, ok := res.Params.At(0)
		assert.True(t, ok)
		assert.Equal(t, "2", v)
		assert.Equal(t, "docs", res.Params.Get("name"))
	})
}

func TestCompile_ECMAScriptClasses(t *testing.T) {
	p, err := Compile(`/n/:id(\d+)`)
	require.NoError(t, err)

	for path, want := range map[string]bool{
		"/n/42":     true,
		"/N/42":     true,
		"/n/\u0663": false, // ARABIC-INDIC DIGIT THREE is not \d in ECMAScript
	} {
		res, err := p.Match(path)
		require.NoError(t, err)
		if res.Matched != want {
			t.Errorf("Match(%q) = %v, want %v", path, res.Matched, want)
		}
	}
}

func TestCompile_Source(t *testing.T) {
	alts := []string{"/a", "/b"}
	assert.Equal(t, "/x", MustCompile("/x").Source())
	assert.Equal(t, alts, MustCompile(alts).Source())
	assert.Equal(t, "[/a | /b]", describe(alts))
}

func TestPattern_DescriptorsIsCopy(t *testing.T) {
	p := MustCompile("/user/:id")
	d := p.Descriptors()
	d[0].Name = "changed"
	assert.Equal(t, "id", p.Descriptors()[0].Name)
}

func TestParamDescriptor_Key(t *testing.T) {
	assert.Equal(t, "id", ParamDescriptor{Name: "id", Index: 3}.Key())
	assert.Equal(t, "3", ParamDescriptor{Index: 3}.Key())
}

func TestCompile_MatchTimeout(t *testing.T) {
	p := MustCompile(`/:id((a+)+b)`, WithMatchTimeout(time.Millisecond))

	path := "/"
	for n := 0; n < 40; n++ {
		path += "a"
	}
	_, err := p.Match(path)
	assert.ErrorIs(t, err, ErrMatchTimeout)
}
