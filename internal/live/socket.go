package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Socket is an already connected event socket. The Session never dials,
// reconnects or backs off; it only registers handlers and emits commands.
type Socket interface {
	On(event string, fn Handler) (off func())
	Emit(event string, data any) error
	Disconnect() error
}

const writeWait = 5 * time.Second

var ErrClosed = errors.New("socket closed")

// Conn is a Socket over a gorilla websocket connection. Inbound frames are
// dispatched on a single reader goroutine, so handlers see events in the
// order the server sent them.
type Conn struct {
	*Registry

	ws     *websocket.Conn
	logger zerolog.Logger

	wmu        sync.Mutex
	listenOnce sync.Once
	closeOnce  sync.Once
	done       chan struct{}
	err        error
}

// Dial connects to the websocket at url. Call Listen once all handlers are
// registered; frames are not read before that.
func Dial(ctx context.Context, url string, header http.Header, logger zerolog.Logger) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", url, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewConn(ws, logger), nil
}

func NewConn(ws *websocket.Conn, logger zerolog.Logger) *Conn {
	return &Conn{
		Registry: NewRegistry(),
		ws:       ws,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Listen starts the reader goroutine. Calling it more than once has no
// effect.
func (c *Conn) Listen() {
	c.listenOnce.Do(func() {
		go c.readLoop()
	})
}

// Done is closed when the reader exits
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that stopped the reader, once Done is closed
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
			}
			c.logger.Debug().Err(err).Msg("socket read loop exit")
			return
		}
		ev, err := Decode(raw)
		if err != nil || ev.Name == "" {
			c.logger.Warn().Err(err).Int("len", len(raw)).Msg("dropping malformed frame")
			continue
		}
		if n := c.Dispatch(ev.Name, ev.Data); n == 0 {
			c.logger.Debug().Str("event", ev.Name).Msg("no handler registered")
		}
	}
}

func (c *Conn) Emit(event string, data any) error {
	b, err := Encode(event, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

// Disconnect sends a close frame and closes the connection. Only the first
// call has an effect.
func (c *Conn) Disconnect() (err error) {
	c.closeOnce.Do(func() {
		c.wmu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.wmu.Unlock()
		err = c.ws.Close()
	})
	return err
}

// Raw returns the payload as JSON text, "null" when empty
func Raw(data json.RawMessage) string {
	if len(data) == 0 {
		return "null"
	}
	return string(data)
}
