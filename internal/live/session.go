package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrDisconnected = errors.New("session disconnected")

// CaptureError is the payload of a capture_error event
type CaptureError struct {
	Message string          `json:"error"`
	Raw     json.RawMessage `json:"-"`
}

func (e *CaptureError) Error() string {
	return "capture error: " + e.Message
}

func newCaptureError(data json.RawMessage) *CaptureError {
	ce := &CaptureError{Raw: data}
	if err := j.Unmarshal(data, ce); err != nil || ce.Message == "" {
		ce.Message = Raw(data)
	}
	return ce
}

type Options struct {
	// Events selects which inbound events get a default logging handler and
	// are published to Events subscribers. AllEvents if empty.
	Events []string

	// Logger used by the default handlers, log.Logger if nil
	Logger *zerolog.Logger
}

// Session is the command handle of one live connection. It keeps no capture
// state of its own; outcomes of commands arrive as inbound events.
type Session struct {
	sock   Socket
	logger zerolog.Logger
	broker *Broker

	mu       sync.Mutex
	defaults map[string]func()

	closed atomic.Bool
	once   sync.Once
}

type startCapturePayload struct {
	Filters *api.Filters `json:"filters"`
}

// New wires the default handlers for the configured event set onto sock
// and returns the command handle
func New(sock Socket, opts Options) *Session {
	events := opts.Events
	if len(events) == 0 {
		events = AllEvents
	}
	s := &Session{
		sock:     sock,
		logger:   log.Logger,
		broker:   NewBroker(),
		defaults: make(map[string]func(), len(events)),
	}
	if opts.Logger != nil {
		s.logger = *opts.Logger
	}

	for _, event := range events {
		s.defaults[event] = sock.On(event, s.logHandler(event))
		sock.On(event, s.publishHandler(event))
	}
	return s
}

func (s *Session) logHandler(event string) Handler {
	return func(data json.RawMessage) {
		var ev *zerolog.Event
		switch event {
		case EventCaptureError:
			ev = s.logger.Error()
		case EventBGPUpdate:
			ev = s.logger.Debug()
		default:
			ev = s.logger.Info()
		}
		if len(data) > 0 && j.Valid(data) {
			ev = ev.RawJSON("data", data)
		}
		ev.Str("event", event).Msg(describe(event))
	}
}

func describe(event string) string {
	switch event {
	case EventConnectionResponse:
		return "connected to server"
	case EventBGPUpdate:
		return "received BGP update"
	case EventCaptureStarted:
		return "capture started"
	case EventCaptureStopped:
		return "capture stopped"
	case EventCaptureError:
		return "capture error"
	case EventCaptureStatus:
		return "capture status"
	default:
		return "received event"
	}
}

func (s *Session) publishHandler(event string) Handler {
	return func(data json.RawMessage) {
		s.broker.Publish(Event{Name: event, Data: data})
	}
}

// Subscribe adds fn as a handler of event. It runs once per emission, in
// emission order, until cancel is called.
func (s *Session) Subscribe(event string, fn Handler) (cancel func()) {
	return s.sock.On(event, fn)
}

// Replace swaps the default logging handler of event for fn
func (s *Session) Replace(event string, fn Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if off, ok := s.defaults[event]; ok {
		off()
	}
	s.defaults[event] = s.sock.On(event, fn)
}

// Events streams every inbound event of the configured set. Events are
// dropped while the buffer is full. The channel is closed by cancel or
// Disconnect.
func (s *Session) Events(buffer int) (<-chan Event, func()) {
	id, ch := s.broker.Subscribe(buffer)
	return ch, func() { s.broker.Unsubscribe(id) }
}

// StartCapture emits start_capture. With filters the payload is
// {"filters": filters}, without it the command carries no payload.
func (s *Session) StartCapture(filters *api.Filters) error {
	if filters == nil {
		return s.emit(CmdStartCapture, nil)
	}
	return s.emit(CmdStartCapture, startCapturePayload{Filters: filters})
}

// closer is implemented by sockets that report when they stop reading
type closer interface {
	Done() <-chan struct{}
}

// StartCaptureWait emits start_capture and waits for its outcome: the
// capture_started payload, a *CaptureError, ErrClosed if the socket closes
// first, or the context error.
func (s *Session) StartCaptureWait(ctx context.Context, filters *api.Filters) (json.RawMessage, error) {
	type outcome struct {
		data json.RawMessage
		err  error
	}
	result := make(chan outcome, 1)
	deliver := func(o outcome) {
		select {
		case result <- o:
		default:
		}
	}

	offStarted := s.sock.On(EventCaptureStarted, func(data json.RawMessage) {
		deliver(outcome{data: data})
	})
	defer offStarted()
	offErr := s.sock.On(EventCaptureError, func(data json.RawMessage) {
		deliver(outcome{err: newCaptureError(data)})
	})
	defer offErr()

	if err := s.StartCapture(filters); err != nil {
		return nil, err
	}

	var done <-chan struct{}
	if c, ok := s.sock.(closer); ok {
		done = c.Done()
	}

	select {
	case o := <-result:
		return o.data, o.err
	case <-done:
		// an outcome may have arrived just before the socket closed
		select {
		case o := <-result:
			return o.data, o.err
		default:
		}
		if c, ok := s.sock.(interface{ Err() error }); ok && c.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrClosed, c.Err())
		}
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) StopCapture() error {
	return s.emit(CmdStopCapture, nil)
}

// GetStatus requests a capture_status event
func (s *Session) GetStatus() error {
	return s.emit(CmdGetStatus, nil)
}

// Disconnect closes the underlying socket. Only the first call reaches the
// socket; afterwards every command returns ErrDisconnected.
func (s *Session) Disconnect() (err error) {
	s.once.Do(func() {
		s.closed.Store(true)
		err = s.sock.Disconnect()
		s.broker.Close()
	})
	return err
}

func (s *Session) emit(event string, data any) error {
	if s.closed.Load() {
		return ErrDisconnected
	}
	if err := s.sock.Emit(event, data); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}
