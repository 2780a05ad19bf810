package bridge

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// Conn is the part of a websocket connection Serve needs.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
}

// Reply is written back after every message Serve reads.
type Reply struct {
	Type string `json:"type"`

	// Handled is false when the host should perform the event's default
	// action, such as following a link that leaves the application.
	Handled bool `json:"handled"`

	// Path is the router path after the message was applied.
	Path string `json:"path"`

	// URL is what the address bar should show, when the location knows it.
	URL string `json:"url,omitempty"`

	Error string `json:"error,omitempty"`
}

// Serve reads host messages from conn until it closes, applying each one and
// replying with the resulting location. All router work happens on the
// calling goroutine.
//
// A normal or going-away close ends Serve with a nil error. ctx is checked
// between messages; close conn to interrupt a blocked read.
//
// Example:
//
//	http.HandleFunc("/router", func(w http.ResponseWriter, req *http.Request) {
//	    conn, err := upgrader.Upgrade(w, req, nil)
//	    if err != nil {
//	        return
//	    }
//	    defer conn.Close()
//	    b := bridge.New(newRouter())
//	    _ = b.Serve(req.Context(), conn)
//	})
func (b *Bridge) Serve(ctx context.Context, conn Conn) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Debug().Msg("host closed connection")
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		handled, perr := b.process(ctx, raw)
		reply := b.reply(handled)
		if perr != nil {
			b.log.Warn().Err(perr).Msg("host message failed")
			reply.Error = perr.Error()
		}
		if err := conn.WriteJSON(reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
}

func (b *Bridge) reply(handled bool) Reply {
	loc := b.router.Location()
	r := Reply{Type: "location", Handled: handled, Path: loc.Path()}
	if u, ok := loc.(urler); ok {
		r.URL = u.URL()
	}
	return r
}
