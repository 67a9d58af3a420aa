package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEchoBackend answers start_capture with capture_started followed by
// three bgp_update frames, and every other command with capture_status
func newEchoBackend(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		send := func(event string, data any) {
			b, _ := Encode(event, data)
			_ = ws.WriteMessage(websocket.TextMessage, b)
		}
		send(EventConnectionResponse, map[string]string{"status": "connected"})

		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				return
			}
			ev, err := Decode(raw)
			if err != nil {
				continue
			}
			switch ev.Name {
			case CmdStartCapture:
				var req struct {
					Filters *api.Filters `json:"filters"`
				}
				_ = json.Unmarshal(ev.Data, &req)
				send(EventCaptureStarted, map[string]any{"status": "success", "filters": req.Filters})
				for _, p := range []string{"8.8.8.0/24", "8.8.4.0/24", "2001:4860::/32"} {
					send(EventBGPUpdate, api.Update{Prefix: p, OriginAS: 15169})
				}
			default:
				send(EventCaptureStatus, api.CaptureStatus{Running: true})
			}
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func TestConnRoundTrip(t *testing.T) {
	s := newEchoBackend(t)
	url := "ws" + strings.TrimPrefix(s.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, conn, err := Connect(ctx, url, Options{Logger: discard()})
	require.NoError(t, err)

	updates := make(chan string, 3)
	sess.Subscribe(EventBGPUpdate, func(data json.RawMessage) {
		var u api.Update
		if json.Unmarshal(data, &u) == nil {
			updates <- u.Prefix
		}
	})

	started, err := sess.StartCaptureWait(ctx, &api.Filters{ASN: 15169})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","filters":{"asn":15169}}`, string(started))

	var got []string
	for i := 0; i < 3; i++ {
		select {
		case p := <-updates:
			got = append(got, p)
		case <-ctx.Done():
			t.Fatal("timed out waiting for updates")
		}
	}
	assert.Equal(t, []string{"8.8.8.0/24", "8.8.4.0/24", "2001:4860::/32"}, got)

	status := make(chan api.CaptureStatus, 1)
	sess.Subscribe(EventCaptureStatus, func(data json.RawMessage) {
		var st api.CaptureStatus
		_ = json.Unmarshal(data, &st)
		status <- st
	})
	require.NoError(t, sess.GetStatus())
	select {
	case st := <-status:
		assert.True(t, st.Running)
	case <-ctx.Done():
		t.Fatal("timed out waiting for status")
	}

	require.NoError(t, sess.Disconnect())
	select {
	case <-conn.Done():
	case <-ctx.Done():
		t.Fatal("reader did not exit after disconnect")
	}
	assert.ErrorIs(t, conn.Emit(CmdGetStatus, nil), ErrClosed)
}

func TestDialFailure(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	defer s.Close()

	_, err := Dial(context.Background(), "ws"+strings.TrimPrefix(s.URL, "http"), nil, *discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestRegistryOff(t *testing.T) {
	r := NewRegistry()

	var a, b int
	offA := r.On("x", func(json.RawMessage) { a++ })
	r.On("x", func(json.RawMessage) { b++ })

	assert.Equal(t, 2, r.Dispatch("x", nil))
	offA()
	offA()
	assert.Equal(t, 1, r.Dispatch("x", nil))
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestStartCaptureWaitConnectionLost(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// read the command, then drop the connection without a close frame
		_, _, _ = ws.ReadMessage()
		ws.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, conn, err := Connect(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), Options{Logger: discard()})
	require.NoError(t, err)
	defer s.Disconnect()

	_, err = s.StartCaptureWait(context.Background(), nil)
	require.ErrorIs(t, err, ErrClosed)
	assert.Error(t, conn.Err())
}
