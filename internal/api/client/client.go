package client

import (
	"context"

	"github.com/ezrizhu/bgpdash/internal/httpclient"
)

type Params = httpclient.Params

// Doer is the subset of the HTTP client wrapper the endpoint functions use
type Doer interface {
	Get(ctx context.Context, path string, params httpclient.Params, out any) error
	ExportFile(ctx context.Context, path string, params httpclient.Params) (*httpclient.Download, error)
}

// Client names each backend endpoint. Every method issues exactly one
// request through the underlying Doer and forwards params unvalidated.
type Client struct {
	hc Doer
}

func New(hc Doer) *Client {
	return &Client{hc: hc}
}

// NewFromConfig creates the HTTP client wrapper from cfg and binds the
// endpoints to it
func NewFromConfig(cfg httpclient.Config, opts ...httpclient.Option) (*Client, error) {
	hc, err := httpclient.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return New(hc), nil
}
