package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ezrizhu/bgpdash/internal/api"
)

// GetCountryTopology returns the country level AS topology
func (c *Client) GetCountryTopology(ctx context.Context, params Params) (*api.CountryTopology, error) {
	var res = new(api.CountryTopology)
	if err := c.hc.Get(ctx, api.CountryTopologyRoute, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetAsStats returns the per-day announcement statistics of asn
func (c *Client) GetAsStats(ctx context.Context, asn uint32, params Params) ([]api.ASStat, error) {
	var res []api.ASStat
	if err := c.hc.Get(ctx, fmt.Sprintf("%s/%d", api.ASStatsRoute, asn), params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetAsTopology returns the AS level adjacency graph
func (c *Client) GetAsTopology(ctx context.Context, params Params) (json.RawMessage, error) {
	return c.raw(ctx, api.ASTopologyRoute, params)
}
