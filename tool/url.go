package tool

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildServerURL joins the server base URL with an API path, escaping each task-scoped segment.
func BuildServerURL(base string, segments ...string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", base)
	}
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	rawPrefix := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(segments, "/")
	u.RawPath = rawPrefix + "/" + strings.Join(escaped, "/")
	return u.String(), nil
}

// BuildUploadURL builds the /upload URL.
func BuildUploadURL(base string) (string, error) {
	return BuildServerURL(base, "upload")
}

// BuildDetectURL builds the /detect/{task_id} status URL.
func BuildDetectURL(base, taskID string) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("taskId must not be empty")
	}
	return BuildServerURL(base, "detect", taskID)
}

// BuildResultsURL builds the /results/{task_id} URL.
func BuildResultsURL(base, taskID string) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("taskId must not be empty")
	}
	return BuildServerURL(base, "results", taskID)
}

// BuildDownloadURL builds the /download/{task_id} URL.
func BuildDownloadURL(base, taskID string) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("taskId must not be empty")
	}
	return BuildServerURL(base, "download", taskID)
}

// BuildStatsURL builds the /stats URL.
func BuildStatsURL(base string) (string, error) {
	return BuildServerURL(base, "stats")
}

// BuildClearCacheURL builds the /clear-cache URL.
func BuildClearCacheURL(base string) (string, error) {
	return BuildServerURL(base, "clear-cache")
}

// ResolveURL resolves ref (e.g. a relative result_image path) against the server base URL.
// data: URIs and absolute URLs are returned unchanged.
func ResolveURL(base, ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	b, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("failed to parse reference %q: %v", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

// HostOf returns the host name (without port) of a URL, used for ping probes.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
