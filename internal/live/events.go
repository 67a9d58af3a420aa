package live

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// Inbound events pushed by the backend on the /bgp namespace
const (
	EventConnectionResponse = "connection_response"
	EventBGPUpdate          = "bgp_update"
	EventCaptureStarted     = "capture_started"
	EventCaptureStopped     = "capture_stopped"
	EventCaptureError       = "capture_error"
	EventCaptureStatus      = "capture_status"
)

// Outbound commands
const (
	CmdStartCapture = "start_capture"
	CmdStopCapture  = "stop_capture"
	CmdGetStatus    = "get_status"
)

var (
	// BasicEvents is the event set of backends without connection and
	// status acknowledgements
	BasicEvents = []string{
		EventBGPUpdate, EventCaptureStarted, EventCaptureStopped, EventCaptureError,
	}

	AllEvents = []string{
		EventConnectionResponse, EventBGPUpdate, EventCaptureStarted,
		EventCaptureStopped, EventCaptureError, EventCaptureStatus,
	}
)

var j = jsoniter.ConfigCompatibleWithStandardLibrary

// Event is one frame on the socket: {"event": name, "data": payload}
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// Encode frames an event. A nil data is sent without payload.
func Encode(name string, data any) ([]byte, error) {
	return j.Marshal(outbound{Name: name, Data: data})
}

// NewEvent builds an inbound-shaped event from a payload value
func NewEvent(name string, data any) (Event, error) {
	b, err := j.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: b}, nil
}

func Decode(b []byte) (Event, error) {
	var ev Event
	err := j.Unmarshal(b, &ev)
	return ev, err
}
