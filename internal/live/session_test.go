package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	event string
	data  any
}

type fakeSocket struct {
	*Registry

	mu          sync.Mutex
	emitted     []emitted
	disconnects int
	onEmit      func(event string)
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{Registry: NewRegistry()}
}

func (f *fakeSocket) Emit(event string, data any) error {
	f.mu.Lock()
	f.emitted = append(f.emitted, emitted{event, data})
	f.mu.Unlock()
	if f.onEmit != nil {
		f.onEmit(event)
	}
	return nil
}

func (f *fakeSocket) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

// closingSocket stops reading right after the first command is sent
type closingSocket struct {
	*fakeSocket
	done chan struct{}
}

func (c *closingSocket) Done() <-chan struct{} {
	return c.done
}

func (f *fakeSocket) trigger(event, data string) int {
	return f.Dispatch(event, json.RawMessage(data))
}

func discard() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestStartCapturePayload(t *testing.T) {
	var tests = []struct {
		name     string
		filters  *api.Filters
		expected string
	}{
		{"without filters", nil, `{"event":"start_capture"}`},
		{"with filters", &api.Filters{ASN: 15169, Prefix: "8.8.8.0/24"},
			`{"event":"start_capture","data":{"filters":{"asn":15169,"prefix":"8.8.8.0/24"}}}`},
		{"empty filters", &api.Filters{}, `{"event":"start_capture","data":{"filters":{}}}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sock := newFakeSocket()
			s := New(sock, Options{Logger: discard()})

			require.NoError(t, s.StartCapture(test.filters))
			require.Len(t, sock.emitted, 1)
			assert.Equal(t, CmdStartCapture, sock.emitted[0].event)
			if test.filters == nil {
				assert.Nil(t, sock.emitted[0].data)
			}

			frame, err := Encode(sock.emitted[0].event, sock.emitted[0].data)
			require.NoError(t, err)
			assert.JSONEq(t, test.expected, string(frame))
		})
	}
}

func TestCommands(t *testing.T) {
	sock := newFakeSocket()
	s := New(sock, Options{Logger: discard()})

	require.NoError(t, s.StopCapture())
	require.NoError(t, s.GetStatus())

	require.Len(t, sock.emitted, 2)
	assert.Equal(t, emitted{CmdStopCapture, nil}, sock.emitted[0])
	assert.Equal(t, emitted{CmdGetStatus, nil}, sock.emitted[1])
}

func TestSubscribeOrderAndCancel(t *testing.T) {
	sock := newFakeSocket()
	s := New(sock, Options{Logger: discard()})

	var got []string
	cancel := s.Subscribe(EventBGPUpdate, func(data json.RawMessage) {
		var u api.Update
		require.NoError(t, json.Unmarshal(data, &u))
		got = append(got, u.Prefix)
	})

	sock.trigger(EventBGPUpdate, `{"prefix":"8.8.8.0/24"}`)
	sock.trigger(EventBGPUpdate, `{"prefix":"1.1.1.0/24"}`)
	sock.trigger(EventCaptureStarted, `{"status":"success"}`)
	sock.trigger(EventBGPUpdate, `{"prefix":"2001:db8::/32"}`)

	assert.Equal(t, []string{"8.8.8.0/24", "1.1.1.0/24", "2001:db8::/32"}, got)

	cancel()
	sock.trigger(EventBGPUpdate, `{"prefix":"9.9.9.0/24"}`)
	assert.Len(t, got, 3)
}

func TestDisconnectOnce(t *testing.T) {
	sock := newFakeSocket()
	s := New(sock, Options{Logger: discard()})

	events, _ := s.Events(4)

	require.NoError(t, s.Disconnect())
	require.NoError(t, s.Disconnect())
	assert.Equal(t, 1, sock.disconnects)

	assert.ErrorIs(t, s.StartCapture(nil), ErrDisconnected)
	assert.ErrorIs(t, s.StopCapture(), ErrDisconnected)
	assert.ErrorIs(t, s.GetStatus(), ErrDisconnected)
	assert.Empty(t, sock.emitted)

	_, open := <-events
	assert.False(t, open)
}

func TestDefaultHandlers(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)

	sock := newFakeSocket()
	New(sock, Options{Events: BasicEvents, Logger: &logger})

	// one log handler and one publisher per event
	assert.Equal(t, 2, sock.trigger(EventCaptureError, `{"error":"capture already running"}`))
	assert.Equal(t, 0, sock.trigger(EventConnectionResponse, `{"status":"connected"}`))
	assert.Equal(t, 0, sock.trigger(EventCaptureStatus, `{}`))

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"data":{"error":"capture already running"}`)
	assert.NotContains(t, out, "connected to server")
}

func TestReplace(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)

	sock := newFakeSocket()
	s := New(sock, Options{Logger: &logger})

	var calls int
	s.Replace(EventCaptureStopped, func(json.RawMessage) { calls++ })
	sock.trigger(EventCaptureStopped, `{"status":"success"}`)

	assert.Equal(t, 1, calls)
	assert.NotContains(t, buf.String(), "capture stopped")

	sock.trigger(EventCaptureStarted, `{"status":"success"}`)
	assert.Contains(t, buf.String(), "capture started")
}

func TestEventsStream(t *testing.T) {
	sock := newFakeSocket()
	s := New(sock, Options{Logger: discard()})

	events, cancel := s.Events(8)
	sock.trigger(EventConnectionResponse, `{"status":"connected"}`)
	sock.trigger(EventBGPUpdate, `{"prefix":"8.8.8.0/24"}`)

	first := <-events
	second := <-events
	assert.Equal(t, EventConnectionResponse, first.Name)
	assert.Equal(t, EventBGPUpdate, second.Name)
	assert.JSONEq(t, `{"prefix":"8.8.8.0/24"}`, string(second.Data))

	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestStartCaptureWait(t *testing.T) {
	t.Run("started", func(t *testing.T) {
		sock := newFakeSocket()
		s := New(sock, Options{Logger: discard()})
		sock.onEmit = func(string) {
			sock.trigger(EventCaptureStarted, `{"status":"success","filters":{"asn":15169}}`)
		}

		data, err := s.StartCaptureWait(context.Background(), &api.Filters{ASN: 15169})
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success","filters":{"asn":15169}}`, string(data))
	})

	t.Run("capture error", func(t *testing.T) {
		sock := newFakeSocket()
		s := New(sock, Options{Logger: discard()})
		sock.onEmit = func(string) {
			sock.trigger(EventCaptureError, `{"error":"capture already running"}`)
		}

		_, err := s.StartCaptureWait(context.Background(), nil)
		var ce *CaptureError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "capture already running", ce.Message)
	})

	t.Run("deadline", func(t *testing.T) {
		sock := newFakeSocket()
		s := New(sock, Options{Logger: discard()})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := s.StartCaptureWait(ctx, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Len(t, sock.emitted, 1)
	})

	t.Run("socket closed", func(t *testing.T) {
		sock := &closingSocket{fakeSocket: newFakeSocket(), done: make(chan struct{})}
		s := New(sock, Options{Logger: discard()})
		sock.onEmit = func(string) { close(sock.done) }

		_, err := s.StartCaptureWait(context.Background(), nil)
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("outcome before close", func(t *testing.T) {
		sock := &closingSocket{fakeSocket: newFakeSocket(), done: make(chan struct{})}
		s := New(sock, Options{Logger: discard()})
		sock.onEmit = func(string) {
			sock.trigger(EventCaptureStarted, `{"status":"success"}`)
			close(sock.done)
		}

		data, err := s.StartCaptureWait(context.Background(), nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success"}`, string(data))
	})

	t.Run("handlers are removed", func(t *testing.T) {
		sock := newFakeSocket()
		s := New(sock, Options{Logger: discard()})
		sock.onEmit = func(string) {
			sock.trigger(EventCaptureStarted, `{}`)
		}

		_, err := s.StartCaptureWait(context.Background(), nil)
		require.NoError(t, err)
		// log handler and publisher remain
		assert.Equal(t, 2, sock.trigger(EventCaptureStarted, `{}`))
		assert.Equal(t, 2, sock.trigger(EventCaptureError, `{}`))
	})
}
