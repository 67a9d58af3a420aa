package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var j = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusError is returned for any response outside the 2xx range. It carries
// the response as the server sent it; no classification is attempted.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	body := bytes.TrimSpace(e.Body)
	if len(body) == 0 {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, body)
}

// Message returns the "error" field of a JSON error body, or the raw body
func (e *StatusError) Message() string {
	var res struct {
		Error string `json:"error"`
	}
	if err := j.Unmarshal(e.Body, &res); err == nil && res.Error != "" {
		return res.Error
	}
	return string(bytes.TrimSpace(e.Body))
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
}
