package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/pathway"
	"github.com/bjaus/pathway/history"
)

// serve starts a websocket endpoint that drives a fresh router per
// connection and returns the client side plus a channel with Serve's result.
func serve(t *testing.T, setup func(r *pathway.Router)) (*websocket.Conn, <-chan error) {
	t.Helper()

	done := make(chan error, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()

		h := history.New(history.PushState)
		r := pathway.New(pathway.WithLocation(h))
		setup(r)
		done <- New(r).Serve(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, done
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) Reply {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestServe(t *testing.T) {
	var seen []string
	conn, done := serve(t, func(r *pathway.Router) {
		r.MustRegister("/users/:id", nil, func(req *pathway.Request, c *pathway.Chain, next func()) {
			seen = append(seen, req.Param("id"))
		})
	})

	reply := roundTrip(t, conn, `{"type": "navigate", "path": "/users/1"}`)
	assert.Equal(t, Reply{Type: "location", Handled: true, Path: "/users/1", URL: "/users/1"}, reply)

	reply = roundTrip(t, conn, `{"type": "click", "href": "https://example.com/"}`)
	assert.False(t, reply.Handled)
	assert.Equal(t, "/users/1", reply.Path)

	reply = roundTrip(t, conn, `{"type": "resize"}`)
	assert.Contains(t, reply.Error, ErrNoSource.Error())

	reply = roundTrip(t, conn, `{"type": "click", "href": "/users/2"}`)
	assert.True(t, reply.Handled)
	assert.Equal(t, "/users/2", reply.Path)
	assert.Empty(t, reply.Error)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.NoError(t, <-done)
	assert.Equal(t, []string{"1", "2"}, seen)
}

func TestServeAbnormalClose(t *testing.T) {
	conn, done := serve(t, func(r *pathway.Router) {})

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom")))

	err := <-done
	require.Error(t, err)
	var closeErr *websocket.CloseError
	assert.True(t, errors.As(err, &closeErr))
}

type fakeConn struct {
	reads   [][]byte
	replies []Reply
	readErr error
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if len(c.reads) == 0 {
		return 0, nil, c.readErr
	}
	raw := c.reads[0]
	c.reads = c.reads[1:]
	return websocket.TextMessage, raw, nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.replies = append(c.replies, v.(Reply))
	return nil
}

func TestServeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := &fakeConn{reads: [][]byte{[]byte(`{"type": "navigate", "path": "/"}`)}}
	err := New(pathway.New()).Serve(ctx, conn)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, conn.replies)
}

func TestServeWithPlainLocation(t *testing.T) {
	conn := &fakeConn{
		reads:   [][]byte{[]byte(`{"type": "navigate", "path": "/a"}`)},
		readErr: &websocket.CloseError{Code: websocket.CloseGoingAway},
	}
	err := New(pathway.New()).Serve(context.Background(), conn)

	require.NoError(t, err)
	require.Len(t, conn.replies, 1)
	assert.Equal(t, Reply{Type: "location", Handled: true, Path: "/a"}, conn.replies[0])
}
