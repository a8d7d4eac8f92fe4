package remote

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Call invokes one of the functions the player page exposes.
type Call struct {
	Call string `json:"call"`
	Args []any  `json:"args,omitempty"`
}

// Report is a state report pushed by the player page about the video it
// had loaded when the report was sent.
type Report struct {
	Event    string  `json:"event"` // ready, time, duration or state
	VideoID  string  `json:"videoId"`
	Time     float64 `json:"time,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	State    string  `json:"state,omitempty"` // playing, paused or ended
}

// Script runs calls in the player page. Exec does not wait for the page to
// act on the call.
type Script interface {
	Exec(call string, args ...any) error
}

// Conn is the websocket connection to a player page.
type Conn struct {
	ws   *websocket.Conn
	wsMu sync.Mutex
}

var _ Script = (*Conn)(nil)

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) Exec(call string, args ...any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	return c.ws.WriteJSON(Call{Call: call, Args: args})
}

// Reports reads reports from the page and passes them to h until the
// connection fails.
func (c *Conn) Reports(h func(Report)) error {
	for {
		var r Report
		if err := c.ws.ReadJSON(&r); err != nil {
			return err
		}
		h(r)
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
