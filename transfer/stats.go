package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (*types.ServerStats, error) {
	url, err := tool.BuildStatsURL(c.base)
	if err != nil {
		return nil, fmt.Errorf("failed to build stats URL: %v", err)
	}
	var stats types.ServerStats
	if err := c.getJSON(ctx, url, "stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearCache asks the server to drop all cached results and task progress.
func (c *Client) ClearCache(ctx context.Context) (*types.ClearCacheResponse, error) {
	url, err := tool.BuildClearCacheURL(c.base)
	if err != nil {
		return nil, fmt.Errorf("failed to build clear-cache URL: %v", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create clear-cache request: %v", err)
	}
	resp, err := c.do(ctx, req, "clear-cache")
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, serverError("clear-cache", resp, body)
	}
	var out types.ClearCacheResponse
	if err := sonic.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse clear-cache response: %w", err)
	}
	tool.DefaultLogger.Infof("Server cache cleared: %s", out.Message)
	return &out, nil
}
