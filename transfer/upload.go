package transfer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// Upload posts the raw image bytes as multipart field "file" and returns the server task ID.
func (c *Client) Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("invalid parameters: fileName must not be empty")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("invalid parameters: data must not be empty")
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("upload cancelled: %w", ctx.Err())
	default:
	}

	url, err := tool.BuildUploadURL(c.base)
	if err != nil {
		return "", fmt.Errorf("failed to build upload URL: %v", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %v", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %v", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(ctx, req, "upload")
	if err != nil {
		return "", err
	}
	defer closeBody(resp)

	respBody, err := readBody(resp)
	if err != nil {
		return "", err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	case http.StatusRequestEntityTooLarge:
		return "", &StatusError{Op: "upload", StatusCode: resp.StatusCode, Message: "file too large"}
	default:
		return "", serverError("upload", resp, respBody)
	}

	var uploaded types.UploadResponse
	if err := sonic.Unmarshal(respBody, &uploaded); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if uploaded.TaskID == "" {
		return "", fmt.Errorf("upload response missing task_id")
	}

	tool.DefaultLogger.Infof("Upload of %s accepted as task %s", fileName, uploaded.TaskID)
	return uploaded.TaskID, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
