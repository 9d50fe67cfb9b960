// Package session implements the upload session: one selection, one in-flight
// detection task, and the result of the last completed task.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/moyoez/detectview/render"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// State of the session's current task.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

const (
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultMaxPollDuration = 10 * time.Minute
)

// ErrNoTask is returned by Wait when nothing was submitted.
var ErrNoTask = errors.New("no task has been submitted")

// API is the detection server surface the session drives.
type API interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
	Status(ctx context.Context, taskID string) (*types.DetectStatus, error)
	Result(ctx context.Context, taskID string) (*types.ResultSet, error)
	DownloadURL(taskID string) (string, error)
}

// Options tune a Session. Zero values fall back to defaults.
type Options struct {
	PollInterval    time.Duration
	MaxPollDuration time.Duration
	MaxUploadSize   int64
	Notifier        Notifier
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	State        State          `json:"state"`
	TaskID       string         `json:"taskId,omitempty"`
	ResultTaskID string         `json:"resultTaskId,omitempty"`
	Progress     float64        `json:"progress"`
	Message      string         `json:"message,omitempty"`
	Selection    *SelectionInfo `json:"selection,omitempty"`
	CanSubmit    bool           `json:"canSubmit"`
	HasResult    bool           `json:"hasResult"`
	LastError    string         `json:"lastError,omitempty"`
}

type task struct {
	id     string
	selGen uint64
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

func newTask(selGen uint64) *task {
	return &task{selGen: selGen, done: make(chan struct{})}
}

func (t *task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

func (t *task) stop() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Session owns the selection, the active task and the last result.
// It is safe for concurrent use.
type Session struct {
	api      API
	opts     Options
	baseCtx  context.Context
	notifier Notifier

	mu        sync.Mutex
	listeners Listeners

	selection *Selection
	selGen    uint64
	preview   *Preview

	state        State
	task         *task
	lastTask     *task
	taskID       string
	resultTaskID string
	lastResult   *types.ResultSet
	progress     float64
	message      string
	lastError    string
}

// New creates a session. Polling loops are bound to ctx: cancelling it stops them.
func New(ctx context.Context, api API, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxPollDuration <= 0 {
		opts.MaxPollDuration = DefaultMaxPollDuration
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = types.MaxUploadSize
	}
	return &Session{
		api:      api,
		opts:     opts,
		baseCtx:  ctx,
		notifier: opts.Notifier,
		state:    StateIdle,
	}
}

// AddListener registers l for all future events.
func (s *Session) AddListener(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:        s.state,
		TaskID:       s.taskID,
		ResultTaskID: s.resultTaskID,
		Progress:     s.progress,
		Message:      s.message,
		CanSubmit:    s.selection != nil && s.state != StateUploading,
		HasResult:    s.lastResult != nil,
		LastError:    s.lastError,
	}
	if s.selection != nil {
		info := s.selection.info(s.preview)
		snap.Selection = &info
	}
	return snap
}

// LastResult returns the result of the most recently completed task, or nil.
func (s *Session) LastResult() *types.ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResult
}

// Result returns the display projection of the last result.
func (s *Session) Result() (render.ResultView, bool) {
	rs := s.LastResult()
	if rs == nil {
		return render.Build(nil), false
	}
	return render.Build(rs), true
}

// Filter returns the last result's view with rows matching query marked visible.
func (s *Session) Filter(query string) (render.ResultView, bool) {
	view, ok := s.Result()
	return view.Filter(query), ok
}

// DownloadURL returns the download resource of the last completed task.
func (s *Session) DownloadURL() (string, error) {
	s.mu.Lock()
	id := s.resultTaskID
	s.mu.Unlock()
	if id == "" {
		return "", types.NewError(types.ErrNoCompletedTask, "", "No completed detection to download", nil)
	}
	return s.api.DownloadURL(id)
}

// Wait blocks until the most recently submitted task ends and returns its outcome:
// nil after a result was loaded, context.Canceled when it was cancelled or superseded,
// a classified *types.Error otherwise.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	t := s.lastTask
	s.mu.Unlock()
	if t == nil {
		return ErrNoTask
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) notify(level types.NoticeLevel, message string) {
	if s.notifier == nil {
		tool.DefaultLogger.Debugf("[Session] notice (%s): %s", level, message)
		return
	}
	s.notifier.Post(level, message)
}
