package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// transport logs every outgoing request. Apart from the User-Agent and a
// request ID it passes requests and responses through untouched.
type transport struct {
	rt             http.RoundTripper
	logger         zerolog.Logger
	requestLogging bool
	userAgent      string
	metrics        *metrics
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("User-Agent", t.userAgent)
	if r.Header.Get(requestIDHeader) == "" {
		r.Header.Set(requestIDHeader, uuid.NewString())
	}

	t.logRequest(r)

	start := time.Now()
	resp, err := t.rt.RoundTrip(r)
	duration := time.Since(start)

	if t.metrics != nil {
		code := "error"
		if resp != nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		t.metrics.observe(r.Method, code, duration)
	}

	if t.requestLogging {
		t.logResponse(r, resp, err, duration)
	}
	return resp, err
}

func (t *transport) logRequest(r *http.Request) {
	ev := t.logger.Debug()
	if !ev.Enabled() {
		return
	}
	ev = ev.Str("url", r.URL.String()).
		Str("method", r.Method).
		Interface("headers", r.Header).
		Interface("params", r.URL.Query())

	if r.GetBody != nil && r.ContentLength != 0 {
		if body, err := r.GetBody(); err == nil {
			data, _ := io.ReadAll(body)
			_ = body.Close()
			data = bytes.TrimSpace(data)
			if j.Valid(data) {
				ev = ev.RawJSON("data", data)
			} else {
				ev = ev.Int("data_len", len(data))
			}
		}
	}
	ev.Msg("request")
}

func (t *transport) logResponse(r *http.Request, resp *http.Response, err error, duration time.Duration) {
	logger := t.logger.With().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("request_id", r.Header.Get(requestIDHeader)).
		Dur("duration", duration).
		Logger()

	if err != nil {
		logger.Error().Err(err).Msg("failed to send request")
		return
	}
	if resp == nil {
		logger.Error().Msg("empty response")
		return
	}

	logger = logger.With().Int("status_code", resp.StatusCode).Logger()
	switch {
	case 200 <= resp.StatusCode && resp.StatusCode < 300:
		logger.Info().Msg("completed request")
	case 300 <= resp.StatusCode && resp.StatusCode < 400:
		logger.Info().Msg("further action needed to complete request")
	default:
		logger.Error().Msg("server error returned")
	}
}
