package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/transfer"
	"github.com/moyoez/detectview/types"
)

// Submit uploads the pending selection and starts polling the new task.
// Any previous task is cancelled first; its loop exits without touching state.
// ctx bounds the upload only. Polling is bound to the session context.
func (s *Session) Submit(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.selection == nil {
		s.mu.Unlock()
		return "", types.NewError(types.ErrNoSelection, "", "Please choose an image first", nil)
	}
	if s.state == StateUploading {
		s.mu.Unlock()
		return "", types.NewError(types.ErrBusy, "", "An upload is already in progress", nil)
	}
	s.supersedeLocked()

	sel := s.selection
	t := newTask(s.selGen)
	uploadCtx, cancelUpload := context.WithCancel(ctx)
	t.cancel = cancelUpload
	s.task = t
	s.lastTask = t
	s.state = StateUploading
	s.taskID = ""
	s.resultTaskID = ""
	s.lastResult = nil
	s.lastError = ""
	s.progress = 0
	s.message = "Uploading..."
	snap := s.snapshotLocked()
	ls := s.listeners
	s.mu.Unlock()

	ls.StateChanged(snap)
	tool.DefaultLogger.Infof("[Session] uploading %s (%d bytes)", sel.Name, len(sel.Data))

	taskID, err := s.api.Upload(uploadCtx, sel.Name, sel.MIME, sel.Data)
	cancelUpload()

	s.mu.Lock()
	if s.task != t {
		s.mu.Unlock()
		e := types.NewError(types.ErrUpload, taskID, "Upload was superseded", context.Canceled)
		t.finish(e)
		return "", e
	}
	if err != nil {
		e := types.NewError(types.ErrUpload, "", uploadFailureMessage(err), err)
		s.task = nil
		s.state = StateIdle
		s.progress = 0
		s.message = ""
		s.lastError = e.Message
		snap = s.snapshotLocked()
		ls = s.listeners
		s.mu.Unlock()

		tool.DefaultLogger.Errorf("[Session] upload failed: %v", err)
		s.notify(types.NoticeError, e.Message)
		ls.StateChanged(snap)
		t.finish(e)
		return "", e
	}

	pollCtx, cancelPoll := context.WithTimeout(s.baseCtx, s.opts.MaxPollDuration)
	t.id = taskID
	t.cancel = cancelPoll
	s.taskID = taskID
	s.state = StatePolling
	s.message = "Processing..."
	snap = s.snapshotLocked()
	ls = s.listeners
	s.mu.Unlock()

	ls.StateChanged(snap)
	go s.poll(pollCtx, t)
	return taskID, nil
}

func uploadFailureMessage(err error) string {
	var se *transfer.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return "Upload failed: " + se.Message
	}
	return "Upload failed"
}

// supersedeLocked cancels the current task, if any. Its loop observes the
// replaced task pointer and exits silently.
func (s *Session) supersedeLocked() {
	if s.task == nil {
		return
	}
	old := s.task
	s.task = nil
	old.stop()
	old.finish(context.Canceled)
}

// poll queries the task status at the poll interval until a terminal status,
// a transport failure, cancellation or the poll deadline.
func (s *Session) poll(ctx context.Context, t *task) {
	defer t.stop()

	limiter := rate.NewLimiter(rate.Every(s.opts.PollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			s.pollStopped(ctx, t, err)
			return
		}
		if !s.isCurrent(t) {
			return
		}

		status, err := s.api.Status(ctx, t.id)
		if err != nil {
			if ctx.Err() != nil {
				s.pollStopped(ctx, t, err)
				return
			}
			s.fail(t, types.NewError(types.ErrPoll, t.id, "Failed to check detection status", err))
			return
		}

		switch status.Status {
		case types.TaskProcessing:
			if !s.updateProgress(t, status) {
				return
			}
		case types.TaskCompleted:
			s.complete(ctx, t)
			return
		case types.TaskError:
			msg := status.Message
			if msg == "" {
				msg = "Detection failed"
			}
			s.fail(t, types.NewError(types.ErrServerReported, t.id, msg, nil))
			return
		case types.TaskNotFound:
			s.fail(t, types.NewError(types.ErrPoll, t.id, "Detection task not found", nil))
			return
		default:
			s.fail(t, types.NewError(types.ErrPoll, t.id, "Failed to check detection status",
				fmt.Errorf("unexpected task status %q", status.Status)))
			return
		}
	}
}

func (s *Session) isCurrent(t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task == t
}

// pollStopped handles a loop that ended because its context did.
// A cancelled context means the task was superseded or the session is shutting down.
// Anything else is the poll deadline.
func (s *Session) pollStopped(ctx context.Context, t *task, cause error) {
	if !s.isCurrent(t) || errors.Is(ctx.Err(), context.Canceled) {
		t.finish(context.Canceled)
		return
	}
	s.fail(t, types.NewError(types.ErrPollTimeout, t.id,
		fmt.Sprintf("Detection did not finish within %s", s.opts.MaxPollDuration), cause))
}

func (s *Session) updateProgress(t *task, status *types.DetectStatus) bool {
	msg := status.Message
	if msg == "" {
		msg = "Processing..."
	}
	s.mu.Lock()
	if s.task != t {
		s.mu.Unlock()
		return false
	}
	s.progress = status.Progress
	s.message = msg
	ls := s.listeners
	s.mu.Unlock()

	ls.Progress(t.id, status.Progress, msg)
	return true
}

func (s *Session) fail(t *task, e *types.Error) {
	s.mu.Lock()
	if s.task != t {
		s.mu.Unlock()
		t.finish(e)
		return
	}
	s.state = StateFailed
	s.taskID = ""
	s.message = ""
	s.lastError = e.Message
	snap := s.snapshotLocked()
	ls := s.listeners
	s.mu.Unlock()

	t.stop()
	tool.DefaultLogger.Warnf("[Session] task %s failed: %v", t.id, e)
	s.notify(types.NoticeError, e.Message)
	ls.StateChanged(snap)
	t.finish(e)
}

// complete marks the task terminal and retrieves its result once.
func (s *Session) complete(ctx context.Context, t *task) {
	s.mu.Lock()
	if s.task != t {
		s.mu.Unlock()
		t.finish(context.Canceled)
		return
	}
	s.state = StateCompleted
	s.taskID = ""
	s.resultTaskID = t.id
	s.progress = 100
	s.message = "Done!"
	snap := s.snapshotLocked()
	ls := s.listeners
	s.mu.Unlock()

	ls.Progress(t.id, 100, "Done!")
	ls.StateChanged(snap)
	s.retrieveResult(ctx, t)
}

// retrieveResult fetches the result of a completed task. A failure is surfaced
// but the task stays completed.
func (s *Session) retrieveResult(ctx context.Context, t *task) {
	rs, err := s.api.Result(ctx, t.id)

	s.mu.Lock()
	if s.task != t {
		s.mu.Unlock()
		t.finish(context.Canceled)
		return
	}
	if err != nil {
		e := types.NewError(types.ErrResultFetch, t.id, "Failed to load detection results", err)
		s.lastError = e.Message
		snap := s.snapshotLocked()
		ls := s.listeners
		s.mu.Unlock()

		tool.DefaultLogger.Errorf("[Session] result fetch for %s failed: %v", t.id, err)
		s.notify(types.NoticeError, e.Message)
		ls.StateChanged(snap)
		t.finish(e)
		return
	}

	s.lastResult = rs
	// the submitted file has been analyzed; a newer selection is kept
	clearedSelection := false
	if s.selection != nil && s.selGen == t.selGen {
		s.selection = nil
		s.preview = nil
		s.selGen++
		clearedSelection = true
	}
	snap := s.snapshotLocked()
	ls := s.listeners
	s.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] task %s completed with %d detections", t.id, rs.TotalDetections)
	ls.ResultReady(t.id, rs)
	if clearedSelection {
		ls.SelectionChanged(nil)
	}
	ls.StateChanged(snap)
	s.notify(types.NoticeSuccess, "Detection complete!")
	t.finish(nil)
}

// Cancel stops an in-flight upload or polling loop and returns to idle.
// It reports whether anything was cancelled.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.task == nil || (s.state != StateUploading && s.state != StatePolling) {
		s.mu.Unlock()
		return false
	}
	id := s.taskID
	s.supersedeLocked()
	s.state = StateIdle
	s.taskID = ""
	s.progress = 0
	s.message = ""
	snap := s.snapshotLocked()
	ls := s.listeners
	s.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] cancelled task %q", id)
	s.notify(types.NoticeInfo, "Detection cancelled")
	ls.StateChanged(snap)
	return true
}

// Reset returns to idle, dropping the task and the last result. The pending
// selection is not touched.
func (s *Session) Reset() {
	s.mu.Lock()
	s.supersedeLocked()
	s.state = StateIdle
	s.taskID = ""
	s.resultTaskID = ""
	s.lastResult = nil
	s.progress = 0
	s.message = ""
	s.lastError = ""
	snap := s.snapshotLocked()
	ls := s.listeners
	s.mu.Unlock()

	ls.StateChanged(snap)
}

// Escape mirrors the escape shortcut: clear the selection if there is one,
// otherwise reset the result.
func (s *Session) Escape() {
	s.mu.Lock()
	hasSelection := s.selection != nil
	s.mu.Unlock()
	if hasSelection {
		s.ClearSelection()
		return
	}
	s.Reset()
}
