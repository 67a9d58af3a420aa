package routes

import (
	"net/http"
	"sync"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/capture"
	"github.com/ezrizhu/bgpdash/internal/live"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type statusPayload struct {
	Status  string       `json:"status"`
	Filters *api.Filters `json:"filters,omitempty"`
}

type startPayload struct {
	Filters api.Filters `json:"filters"`
}

// socketClient is one connection on the /bgp namespace. Frames are queued
// on sendCh and written by writeLoop; a full queue drops bgp_update frames.
type socketClient struct {
	conn    *websocket.Conn
	capture *capture.Capturer
	sendCh  chan []byte
	done    chan struct{}
	once    sync.Once
}

func newSocketClient(conn *websocket.Conn, c *capture.Capturer) *socketClient {
	return &socketClient{
		conn:    conn,
		capture: c,
		sendCh:  make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

func (c *socketClient) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *socketClient) queue(frame []byte, drop bool) {
	if drop {
		select {
		case c.sendCh <- frame:
		case <-c.done:
		default:
		}
		return
	}
	select {
	case c.sendCh <- frame:
	case <-c.done:
	}
}

func (c *socketClient) send(event string, data any) {
	frame, err := live.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	c.queue(frame, false)
}

func (c *socketClient) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case frame := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// forward relays captured updates until the client goes away
func (c *socketClient) forward(id int64, events <-chan live.Event) {
	defer c.capture.Unsubscribe(id)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			frame, err := live.Encode(ev.Name, ev.Data)
			if err != nil {
				continue
			}
			c.queue(frame, true)
		case <-c.done:
			return
		}
	}
}

func (c *socketClient) readLoop() {
	defer c.close()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := live.Decode(raw)
		if err != nil {
			c.send(live.EventCaptureError, api.ErrorResponse{Error: "invalid message format"})
			continue
		}
		c.handleCommand(ev)
	}
}

func (c *socketClient) handleCommand(ev live.Event) {
	switch ev.Name {
	case live.CmdStartCapture:
		var req startPayload
		if len(ev.Data) > 0 && string(ev.Data) != "null" {
			if err := j.Unmarshal(ev.Data, &req); err != nil {
				c.send(live.EventCaptureError, api.ErrorResponse{Error: "invalid start_capture payload"})
				return
			}
		}
		if err := c.capture.Start(req.Filters); err != nil {
			c.send(live.EventCaptureError, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.send(live.EventCaptureStarted, statusPayload{Status: "success", Filters: &req.Filters})

	case live.CmdStopCapture:
		if err := c.capture.Stop(); err != nil {
			c.send(live.EventCaptureError, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.send(live.EventCaptureStopped, statusPayload{Status: "success"})

	case live.CmdGetStatus:
		c.send(live.EventCaptureStatus, c.capture.Status())

	default:
		c.send(live.EventCaptureError, api.ErrorResponse{Error: "unknown command: " + ev.Name})
	}
}

// Socket upgrades the request to the /bgp namespace
func (h *Handlers) Socket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newSocketClient(conn, h.Capture)
	log.Debug().Str("remote", r.RemoteAddr).Msg("socket client connected")

	id, events := h.Capture.Subscribe(sendBuffer)
	go c.writeLoop()
	go c.forward(id, events)
	c.send(live.EventConnectionResponse, statusPayload{Status: "connected"})
	c.readLoop()

	log.Debug().Str("remote", r.RemoteAddr).Msg("socket client disconnected")
}
