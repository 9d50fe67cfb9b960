package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// Status queries GET /detect/{task_id}. A 404 is reported as status not_found, not as an error.
func (c *Client) Status(ctx context.Context, taskID string) (*types.DetectStatus, error) {
	url, err := tool.BuildDetectURL(c.base, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to build detect URL: %v", err)
	}
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create detect request: %v", err)
	}
	resp, err := c.do(ctx, req, "detect")
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &types.DetectStatus{Status: types.TaskNotFound}, nil
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, serverError("detect", resp, body)
	}

	var status types.DetectStatus
	if err := sonic.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse detect response: %w", err)
	}
	if status.Status == "" {
		return nil, fmt.Errorf("detect response missing status")
	}
	return &status, nil
}
