package httpclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fako1024/httpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Params holds query parameters. Values are forwarded as-is.
type Params = httpc.Params

const (
	defaultUserAgent   = "bgpdash-client"
	defaultContentType = "application/json"
)

var acceptedCodes = []int{
	http.StatusOK, http.StatusCreated, http.StatusAccepted,
	http.StatusNonAuthoritativeInfo, http.StatusNoContent,
	http.StatusResetContent, http.StatusPartialContent,
}

// Client issues requests against the dashboard backend. It is safe for
// concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client

	logger         zerolog.Logger
	requestLogging bool
	userAgent      string

	base     http.RoundTripper
	registry prometheus.Registerer
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTransport replaces http.DefaultTransport as the innermost round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.base = rt
		}
	}
}

// WithMetrics registers request counters and latency histograms with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.registry = reg
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for the backend described by cfg
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		timeout:        cfg.Timeout,
		requestLogging: cfg.RequestLogging,
		logger:         log.Logger,
		userAgent:      defaultUserAgent,
		base:           http.DefaultTransport,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}

	t := &transport{
		rt:             otelhttp.NewTransport(c.base),
		logger:         c.logger,
		requestLogging: c.requestLogging,
		userAgent:      c.userAgent,
	}
	if c.registry != nil {
		t.metrics = newMetrics(c.registry)
	}
	c.client = &http.Client{Transport: t}

	return c, nil
}

func (c *Client) Client() *http.Client {
	return c.client
}

// NewURL joins path onto the base URL. Absolute URLs are returned unchanged.
func (c *Client) NewURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) newRequest(method, path string) *httpc.Request {
	return httpc.NewWithClient(method, c.NewURL(path), c.client).
		AcceptedResponseCodes(acceptedCodes).
		ErrorFn(statusError)
}

func (c *Client) run(ctx context.Context, req *httpc.Request) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return req.RunWithContext(ctx)
}

// Get issues a GET with params as the query string and decodes the JSON body
// into out. out may be a *json.RawMessage to keep the body opaque, or nil to
// discard it.
func (c *Client) Get(ctx context.Context, path string, params Params, out any) error {
	req := c.newRequest(http.MethodGet, path)
	if len(params) > 0 {
		req = req.QueryParams(params)
	}
	if out != nil {
		req = req.ParseJSON(out)
	}
	return c.run(ctx, req)
}

type envelope struct {
	Data any `json:"data"`
}

// Post issues a POST whose JSON body is {"data": data}. Callers reading the
// request on the server side must account for the extra nesting level.
func (c *Client) Post(ctx context.Context, path string, data any, out any) error {
	if data == nil {
		data = map[string]any{}
	}
	req := c.newRequest(http.MethodPost, path).EncodeJSON(envelope{Data: data})
	if out != nil {
		req = req.ParseJSON(out)
	}
	return c.run(ctx, req)
}

// Download is the complete response to a binary GET
type Download struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Filename returns the filename advertised in Content-Disposition, if any
func (d *Download) Filename() string {
	cd := d.Header.Get("Content-Disposition")
	for _, part := range strings.Split(cd, ";") {
		part = strings.TrimSpace(part)
		if name, ok := strings.CutPrefix(part, "filename="); ok {
			return strings.Trim(name, `"`)
		}
	}
	return ""
}

// ExportFile issues a GET expecting a binary payload and returns the whole
// response so headers remain accessible
func (c *Client) ExportFile(ctx context.Context, path string, params Params) (*Download, error) {
	var dl *Download

	req := c.newRequest(http.MethodGet, path).
		ParseFn(func(resp *http.Response) error {
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			dl = &Download{
				StatusCode: resp.StatusCode,
				Header:     resp.Header.Clone(),
				Body:       body,
			}
			return nil
		})
	if len(params) > 0 {
		req = req.QueryParams(params)
	}
	if err := c.run(ctx, req); err != nil {
		return nil, err
	}
	return dl, nil
}

// Upload posts body verbatim with the given content type (application/json
// when empty) and decodes the JSON response into out
func (c *Client) Upload(ctx context.Context, path string, body []byte, contentType string, out any) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	req := c.newRequest(http.MethodPost, path).
		Headers(httpc.Params{"Content-Type": contentType}).
		Body(body)
	if out != nil {
		req = req.ParseJSON(out)
	}
	return c.run(ctx, req)
}
