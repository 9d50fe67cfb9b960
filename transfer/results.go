package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// Result fetches GET /results/{task_id}. A relative result_image is resolved against the server base.
func (c *Client) Result(ctx context.Context, taskID string) (*types.ResultSet, error) {
	url, err := tool.BuildResultsURL(c.base, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to build results URL: %v", err)
	}
	var rs types.ResultSet
	if err := c.getJSON(ctx, url, "results", &rs); err != nil {
		return nil, err
	}
	if rs.TaskID == "" {
		rs.TaskID = taskID
	}
	if rs.ResultImage != "" {
		resolved, err := tool.ResolveURL(c.base, rs.ResultImage)
		if err != nil {
			tool.DefaultLogger.Warnf("Keeping unresolvable result_image %q: %v", rs.ResultImage, err)
		} else {
			rs.ResultImage = resolved
		}
	}
	return &rs, nil
}

// DownloadURL returns the task-scoped download resource.
func (c *Client) DownloadURL(taskID string) (string, error) {
	return tool.BuildDownloadURL(c.base, taskID)
}

// Download streams GET /download/{task_id} into w. The artifact is not parsed.
func (c *Client) Download(ctx context.Context, taskID string, w io.Writer) (int64, error) {
	url, err := c.DownloadURL(taskID)
	if err != nil {
		return 0, fmt.Errorf("failed to build download URL: %v", err)
	}
	return c.stream(ctx, url, "download", w)
}

// FetchImage streams the result image at uri (as returned in ResultSet.ResultImage) into w.
func (c *Client) FetchImage(ctx context.Context, uri string, w io.Writer) (int64, error) {
	if uri == "" || strings.HasPrefix(uri, "data:") {
		return 0, fmt.Errorf("result image %q is not fetchable", truncate(uri, 32))
	}
	resolved, err := tool.ResolveURL(c.base, uri)
	if err != nil {
		return 0, err
	}
	return c.stream(ctx, resolved, "result image", w)
}

// ImageFileName picks a local file name for a result image URI.
func ImageFileName(uri, taskID string) string {
	name := path.Base(strings.SplitN(uri, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		return "result_" + taskID + ".jpg"
	}
	return name
}

func (c *Client) stream(ctx context.Context, url, what string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s request: %v", what, err)
	}
	req.Header.Del("Accept")
	resp, err := c.do(ctx, req, what)
	if err != nil {
		return 0, err
	}
	defer closeBody(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := readBody(resp)
		return 0, serverError(what, resp, body)
	}
	n, err := tool.CopyWithContext(ctx, w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read %s: %w", what, err)
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
