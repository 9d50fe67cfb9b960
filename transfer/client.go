package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// maxJSONBody bounds JSON responses read from the detection server.
const maxJSONBody = 16 * 1024 * 1024

// Client talks to the multi-layer detection server.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the server at base (e.g. http://localhost:5000).
func New(base string, timeout time.Duration) *Client {
	return NewWithHTTPClient(base, tool.NewHTTPClient(timeout))
}

// NewWithHTTPClient creates a client using an existing *http.Client.
func NewWithHTTPClient(base string, client *http.Client) *Client {
	if client == nil {
		client = tool.NewHTTPClient(0)
	}
	return &Client{base: base, http: client}
}

// Base returns the server base URL.
func (c *Client) Base() string {
	return c.base
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", tool.GenerateRequestID())
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and returns the response; the caller must close the body.
func (c *Client) do(ctx context.Context, req *http.Request, what string) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s cancelled: %w", what, ctx.Err())
		}
		return nil, fmt.Errorf("failed to send %s request: %w", what, err)
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
	}
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// serverError extracts {"error": "..."} from a non-2xx body, falling back to the status line.
func serverError(what string, resp *http.Response, body []byte) error {
	var e types.ErrorResponse
	if len(body) > 0 {
		if err := sonic.Unmarshal(body, &e); err == nil && e.Error != "" {
			return &StatusError{Op: what, StatusCode: resp.StatusCode, Message: e.Error}
		}
	}
	return &StatusError{Op: what, StatusCode: resp.StatusCode, Message: resp.Status}
}

// StatusError is returned when the server answers with a non-success status.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed (%d): %s", e.Op, e.StatusCode, e.Message)
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, url, what string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %v", what, err)
	}
	resp, err := c.do(ctx, req, what)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return serverError(what, resp, body)
	}
	if len(body) == 0 {
		return fmt.Errorf("%s response body is empty", what)
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", what, err)
	}
	return nil
}
