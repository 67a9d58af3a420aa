package client

import (
	"context"

	"github.com/ezrizhu/bgpdash/internal/api"
	"github.com/ezrizhu/bgpdash/internal/httpclient"
)

func (c *Client) GetPrefixTrend(ctx context.Context, params Params) ([]api.TrendPoint, error) {
	var res []api.TrendPoint
	if err := c.hc.Get(ctx, api.TrendRoute, params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// SearchUpdates runs a paginated update search. The backend understands
// date, prefix, asn, page and per_page.
func (c *Client) SearchUpdates(ctx context.Context, params Params) (*api.UpdatePage, error) {
	var res = new(api.UpdatePage)
	if err := c.hc.Get(ctx, api.SearchRoute, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// DownloadData asks the backend to fetch a day of updates or RIB data
func (c *Client) DownloadData(ctx context.Context, params Params) (*api.MessageResponse, error) {
	var res = new(api.MessageResponse)
	if err := c.hc.Get(ctx, api.DownloadRoute, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ExportData fetches the download route as a binary payload
func (c *Client) ExportData(ctx context.Context, params Params) (*httpclient.Download, error) {
	return c.hc.ExportFile(ctx, api.DownloadRoute, params)
}
