package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bjaus/pathway"
)

var (
	_ pathway.Location = (*History)(nil)
)

func TestParseMode(t *testing.T) {
	tests := map[string]struct {
		want Mode
		ok   bool
	}{
		"":           {Memory, true},
		"memory":     {Memory, true},
		"PushState":  {PushState, true},
		"push_state": {PushState, true},
		"history":    {PushState, true},
		" hash ":     {Hash, true},
		"hashchange": {Hash, true},
		"browser":    {Memory, false},
	}

	for in, tt := range tests {
		t.Run(in, func(t *testing.T) {
			got, ok := ParseMode(in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_String(t *testing.T) {
	for _, m := range []Mode{Memory, PushState, Hash} {
		parsed, ok := ParseMode(m.String())
		require.True(t, ok)
		assert.Equal(t, m, parsed)
	}
}

type PushStateSuite struct {
	suite.Suite
	h *History
}

func TestPushStateSuite(t *testing.T) {
	suite.Run(t, new(PushStateSuite))
}

func (s *PushStateSuite) SetupTest() {
	s.h = New(PushState, WithRoot("/app/"))
}

func (s *PushStateSuite) TestStartsAtRoot() {
	s.Assert().Equal(PushState, s.h.Mode())
	s.Assert().Equal("/app", s.h.Root())
	s.Assert().Equal("/app", s.h.URL())
	s.Assert().Equal("", s.h.Path())
	s.Assert().Equal(1, s.h.Len())
}

func (s *PushStateSuite) TestWithoutRoot() {
	h := New(PushState)
	s.Assert().Equal("/", h.URL())
	s.Assert().Equal("/", h.Path())

	h.SetPath("/a")
	s.Assert().Equal("/a", h.URL())
	s.Assert().Equal("/a", h.Path())
}

func (s *PushStateSuite) TestSetPathPushes() {
	s.h.SetPath("/users/1")
	s.h.SetPath("/users/2")

	s.Assert().Equal("/app/users/2", s.h.URL())
	s.Assert().Equal("/users/2", s.h.Path())
	s.Assert().Equal([]string{"/app", "/app/users/1", "/app/users/2"}, s.h.Entries())
	s.Assert().Equal(2, s.h.Index())
}

func (s *PushStateSuite) TestReplace() {
	s.h.SetPath("/a")
	s.h.Replace("/b")

	s.Assert().Equal([]string{"/app", "/app/b"}, s.h.Entries())
	s.Assert().Equal("/b", s.h.Path())
}

func (s *PushStateSuite) TestClearPushesRoot() {
	s.h.SetPath("/a")
	s.h.Clear()

	s.Assert().Equal("/app", s.h.URL())
	s.Assert().Equal("", s.h.Path())
	s.Assert().Equal(3, s.h.Len())
}

func (s *PushStateSuite) TestTraversal() {
	s.h.SetPath("/a")
	s.h.SetPath("/b")

	s.Require().True(s.h.Back())
	s.Assert().Equal("/a", s.h.Path())
	s.Require().True(s.h.Back())
	s.Assert().Equal("", s.h.Path())
	s.Assert().False(s.h.Back())

	s.Require().True(s.h.Go(2))
	s.Assert().Equal("/b", s.h.Path())
	s.Assert().False(s.h.Forward())
	s.Assert().False(s.h.Go(0))
}

func (s *PushStateSuite) TestPushDropsForwardEntries() {
	s.h.SetPath("/a")
	s.h.SetPath("/b")
	s.h.Back()

	s.h.SetPath("/c")

	s.Assert().Equal([]string{"/app", "/app/a", "/app/c"}, s.h.Entries())
	s.Assert().False(s.h.Forward())
}

func (s *PushStateSuite) TestSync() {
	s.h.SetPath("/a")
	s.h.SetPath("/b")

	s.Assert().False(s.h.Sync("https://example.com/app/b"), "same entry")

	s.Require().True(s.h.Sync("https://example.com/app/a"))
	s.Assert().Equal(1, s.h.Index(), "a neighbour is traversal")
	s.Assert().Equal(3, s.h.Len())

	s.Require().True(s.h.Sync("https://example.com/app/b"))
	s.Assert().Equal(2, s.h.Index())

	s.Require().True(s.h.Sync("/app/elsewhere?tab=2#top"))
	s.Assert().Equal("/elsewhere?tab=2", s.h.Path())
	s.Assert().Equal(4, s.h.Len())
}

func (s *PushStateSuite) TestPathOf() {
	tests := map[string]struct {
		href string
		want string
		ok   bool
	}{
		"inside root":       {"/app/users/1", "/users/1", true},
		"root itself":       {"/app", "", true},
		"query kept":        {"/app/search?q=go", "/search?q=go", true},
		"fragment dropped":  {"/app/docs#intro", "/docs", true},
		"other root":        {"/application", "", false},
		"outside root":      {"/other/x", "", false},
		"absolute":          {"https://example.com/app/users", "", false},
		"protocol relative": {"//example.com/app/users", "", false},
		"fragment only":     {"#top", "", false},
		"mailto":            {"mailto:a@example.com", "", false},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			got, ok := s.h.PathOf(tt.href)
			s.Assert().Equal(tt.ok, ok)
			if tt.ok {
				s.Assert().Equal(tt.want, got)
			}
		})
	}
}

func (s *PushStateSuite) TestInitialURL() {
	h := New(PushState, WithRoot("/app"), WithInitialURL("https://example.com/app/users/3?x=1"))
	s.Assert().Equal("/app/users/3?x=1", h.URL())
	s.Assert().Equal("/users/3?x=1", h.Path())
}

func (s *PushStateSuite) TestUsableAsRouterLocation() {
	r := pathway.New(pathway.WithLocation(s.h))
	var got string
	r.MustRegister("/users/:id", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
		got = req.Param("id")
	})

	s.Require().NoError(r.Navigate(context.Background(), "/users/5"))
	s.Assert().Equal("5", got)
	s.Assert().Equal("/app/users/5", s.h.URL())
}

type HashSuite struct {
	suite.Suite
}

func TestHashSuite(t *testing.T) {
	suite.Run(t, new(HashSuite))
}

func (s *HashSuite) TestPaths() {
	h := New(Hash)
	s.Assert().Equal("", h.URL())
	s.Assert().Equal("", h.Path())

	h.SetPath("/users/1")
	s.Assert().Equal("#/users/1", h.URL())
	s.Assert().Equal("/users/1", h.Path())

	h.Clear()
	s.Assert().Equal("", h.URL())
}

func (s *HashSuite) TestHashBang() {
	h := New(Hash, WithHashBang())
	s.Assert().True(h.HashBang())
	s.Assert().Equal("#!", h.URL())
	s.Assert().Equal("", h.Path())

	h.SetPath("/users/1")
	s.Assert().Equal("#!/users/1", h.URL())
	s.Assert().Equal("/users/1", h.Path())

	s.Require().True(h.Sync("https://example.com/#section"))
	s.Assert().Equal("", h.Path(), "a fragment without the marker is not a route")
}

func (s *HashSuite) TestSync() {
	h := New(Hash)
	s.Require().True(h.Sync("https://example.com/page#/a"))
	s.Assert().Equal("/a", h.Path())
	s.Assert().False(h.Sync("https://example.com/other#/a"), "only the fragment is kept")

	s.Require().True(h.Sync("https://example.com/"))
	s.Assert().Equal("", h.URL())
	s.Assert().Equal(0, h.Index(), "returning to the first entry is traversal")
	s.Assert().Equal(2, h.Len())
}

func (s *HashSuite) TestPathOf() {
	h := New(Hash, WithHashBang())

	p, ok := h.PathOf("#!/users/2")
	s.Assert().True(ok)
	s.Assert().Equal("/users/2", p)

	p, ok = h.PathOf("/users/3")
	s.Assert().True(ok)
	s.Assert().Equal("/users/3", p)

	_, ok = h.PathOf("#section")
	s.Assert().False(ok)

	_, ok = h.PathOf("relative")
	s.Assert().False(ok)

	_, ok = h.PathOf("https://example.com/#!/x")
	s.Assert().False(ok)
}

func TestMemory(t *testing.T) {
	h := New(Memory)
	assert.Equal(t, "", h.Path())

	h.SetPath("/a?b=c")
	assert.Equal(t, "/a?b=c", h.URL())
	assert.Equal(t, "/a?b=c", h.Path())

	assert.True(t, h.Sync("raw value"))
	assert.Equal(t, "raw value", h.Path())

	p, ok := h.PathOf("anything")
	assert.True(t, ok)
	assert.Equal(t, "anything", p)
}
