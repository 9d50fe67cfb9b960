package types

// TaskStatus is the status reported by GET /detect/{task_id}.
type TaskStatus string

const (
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
	TaskNotFound   TaskStatus = "not_found"
)

// UploadResponse is the body of POST /upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	TaskID   string `json:"task_id"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DetectStatus is the body of GET /detect/{task_id}.
type DetectStatus struct {
	Status   TaskStatus `json:"status"`
	Progress float64    `json:"progress"`
	Message  string     `json:"message,omitempty"`
}

// ClearCacheResponse is the body of POST /clear-cache.
type ClearCacheResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the generic {"error": "..."} body the server uses for 4xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
