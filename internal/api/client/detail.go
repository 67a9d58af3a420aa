package client

import (
	"context"
	"encoding/json"

	"github.com/ezrizhu/bgpdash/internal/api"
)

// The summary and detail views are returned opaque: their shape differs
// between backend versions.

func (c *Client) GetSummary(ctx context.Context, params Params) (json.RawMessage, error) {
	return c.raw(ctx, api.SummaryRoute, params)
}

func (c *Client) GetPrefixDetail(ctx context.Context, params Params) (json.RawMessage, error) {
	return c.raw(ctx, api.PrefixDetailRoute, params)
}

func (c *Client) GetAsnDetail(ctx context.Context, params Params) (json.RawMessage, error) {
	return c.raw(ctx, api.ASNDetailRoute, params)
}

func (c *Client) raw(ctx context.Context, path string, params Params) (json.RawMessage, error) {
	var res json.RawMessage
	if err := c.hc.Get(ctx, path, params, &res); err != nil {
		return nil, err
	}
	return res, nil
}
