package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/moyoez/detectview/transfer"
	"github.com/moyoez/detectview/types"
)

// fakeAPI scripts the detection server. script is called for every status query
// with the 1-based call number for that task.
type fakeAPI struct {
	mu          sync.Mutex
	uploads     int
	uploadErr   error
	uploadGate  chan struct{}
	statusCalls map[string]int
	script      func(taskID string, call int) (*types.DetectStatus, error)
	results     map[string]*types.ResultSet
	resultErr   error
}

func newFakeAPI(script func(taskID string, call int) (*types.DetectStatus, error)) *fakeAPI {
	return &fakeAPI{
		statusCalls: make(map[string]int),
		script:      script,
		results:     make(map[string]*types.ResultSet),
	}
}

func (f *fakeAPI) Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	gate := f.uploadGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return fmt.Sprintf("task-%d", f.uploads), nil
}

func (f *fakeAPI) Status(ctx context.Context, taskID string) (*types.DetectStatus, error) {
	f.mu.Lock()
	f.statusCalls[taskID]++
	call := f.statusCalls[taskID]
	f.mu.Unlock()
	return f.script(taskID, call)
}

func (f *fakeAPI) Result(ctx context.Context, taskID string) (*types.ResultSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resultErr != nil {
		return nil, f.resultErr
	}
	if rs, ok := f.results[taskID]; ok {
		return rs, nil
	}
	return sampleResult(taskID), nil
}

func (f *fakeAPI) DownloadURL(taskID string) (string, error) {
	return "http://detector.test/download/" + taskID, nil
}

func (f *fakeAPI) calls(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[taskID]
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []types.Notice
}

func (n *fakeNotifier) Post(level types.NoticeLevel, message string) *types.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	notice := types.Notice{Level: level, Message: message}
	n.notices = append(n.notices, notice)
	return &notice
}

func (n *fakeNotifier) has(level types.NoticeLevel, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, notice := range n.notices {
		if notice.Level == level && notice.Message == message {
			return true
		}
	}
	return false
}

type recordingListener struct {
	NopListener
	previews chan Preview
	results  chan string
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		previews: make(chan Preview, 8),
		results:  make(chan string, 8),
	}
}

func (l *recordingListener) PreviewReady(p Preview) {
	l.previews <- p
}

func (l *recordingListener) ResultReady(taskID string, rs *types.ResultSet) {
	l.results <- taskID
}

func processing(progress float64) (*types.DetectStatus, error) {
	return &types.DetectStatus{Status: types.TaskProcessing, Progress: progress}, nil
}

func completed() (*types.DetectStatus, error) {
	return &types.DetectStatus{Status: types.TaskCompleted, Progress: 100}, nil
}

func alwaysProcessing(string, int) (*types.DetectStatus, error) {
	return processing(10)
}

func completesOnThirdPoll(_ string, call int) (*types.DetectStatus, error) {
	if call < 3 {
		return processing(float64(call) * 30)
	}
	return completed()
}

func sampleResult(taskID string) *types.ResultSet {
	return &types.ResultSet{
		TaskID:          taskID,
		OriginalFile:    "street.png",
		ResultImage:     "/results/image/result_" + taskID + ".jpg",
		TotalDetections: 3,
		Detections: []types.Detection{
			{Class: "car", Confidence: 0.9, Layer: "1"},
			{Class: "person", Confidence: 0.6, Layer: "2"},
			{Class: "car", Confidence: 0.6, Layer: "2"},
		},
		Layers: []types.LayerCount{
			{Name: "Layer 1", Detections: 1},
			{Name: "Layer 2", Detections: 2},
		},
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestSession(t *testing.T, api API, opts Options) (*Session, *fakeNotifier) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	n := &fakeNotifier{}
	if opts.PollInterval == 0 {
		opts.PollInterval = 5 * time.Millisecond
	}
	opts.Notifier = n
	return New(ctx, api, opts), n
}

func waitTask(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Task did not finish in time, state %s", s.Snapshot().State)
	}
	return err
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSelectFileRejectsNonImage(t *testing.T) {
	s, n := newTestSession(t, newFakeAPI(alwaysProcessing), Options{})

	err := s.SelectFile("notes.txt", []byte("just some text"))
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if s.Snapshot().Selection != nil {
		t.Error("Expected no selection after rejected file")
	}
	if !n.has(types.NoticeError, "Please choose a valid image file") {
		t.Error("Expected an error notice for the rejected file")
	}
}

func TestSelectFileRejectsOversizedImage(t *testing.T) {
	s, n := newTestSession(t, newFakeAPI(alwaysProcessing), Options{MaxUploadSize: 1 << 20})

	data := append(pngBytes(t, 2, 2), make([]byte, 1<<20)...)
	err := s.SelectFile("huge.png", data)
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !n.has(types.NoticeError, "File size must be 1 MB or less") {
		t.Error("Expected a size notice")
	}
}

func TestSelectFileKeepsPriorSelectionOnRejection(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(alwaysProcessing), Options{})

	if err := s.SelectFile("first.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	_ = s.SelectFile("bad.txt", []byte("nope"))

	sel := s.Snapshot().Selection
	if sel == nil || sel.Name != "first.png" {
		t.Fatalf("Expected first.png to stay selected, got %+v", sel)
	}
}

func TestSelectFileRendersPreview(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(alwaysProcessing), Options{})
	l := newRecordingListener()
	s.AddListener(l)

	if err := s.SelectFile("photo.png", pngBytes(t, 4, 3)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}

	select {
	case p := <-l.previews:
		if p.Width != 4 || p.Height != 3 || p.Format != "png" {
			t.Errorf("Unexpected preview %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Preview was never rendered")
	}
	if sel := s.Snapshot().Selection; sel == nil || sel.MIME != "image/png" {
		t.Errorf("Expected image/png selection, got %+v", sel)
	}
}

func TestClearSelectionIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(alwaysProcessing), Options{})

	if err := s.SelectFile("photo.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	s.ClearSelection()
	s.ClearSelection()

	snap := s.Snapshot()
	if snap.Selection != nil || snap.CanSubmit {
		t.Errorf("Expected cleared selection, got %+v", snap)
	}
}

func TestSubmitWithoutSelection(t *testing.T) {
	api := newFakeAPI(alwaysProcessing)
	s, _ := newTestSession(t, api, Options{})

	_, err := s.Submit(context.Background())
	if !errors.Is(err, types.ErrNoSelection) {
		t.Fatalf("Expected no selection error, got %v", err)
	}
	if api.uploads != 0 {
		t.Errorf("Expected no upload, got %d", api.uploads)
	}
}

func TestSubmitPollsUntilCompleted(t *testing.T) {
	api := newFakeAPI(completesOnThirdPoll)
	s, n := newTestSession(t, api, Options{})
	l := newRecordingListener()
	s.AddListener(l)

	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	taskID, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if taskID != "task-1" {
		t.Errorf("Expected task-1, got %q", taskID)
	}
	if err := waitTask(t, s); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	snap := s.Snapshot()
	if snap.State != StateCompleted {
		t.Errorf("Expected completed state, got %s", snap.State)
	}
	if snap.TaskID != "" || snap.ResultTaskID != "task-1" {
		t.Errorf("Unexpected task ids: current %q result %q", snap.TaskID, snap.ResultTaskID)
	}
	if snap.Selection != nil {
		t.Error("Expected the analyzed selection to be cleared")
	}
	if !n.has(types.NoticeSuccess, "Detection complete!") {
		t.Error("Expected a success notice")
	}
	if got := <-l.results; got != "task-1" {
		t.Errorf("Expected ResultReady for task-1, got %q", got)
	}

	view, ok := s.Result()
	if !ok {
		t.Fatal("Expected a result view")
	}
	if view.TotalDetections != 3 || view.AverageText != "70.0%" || len(view.Layers) != 2 {
		t.Errorf("Unexpected view: total %d avg %s layers %d", view.TotalDetections, view.AverageText, len(view.Layers))
	}

	calls := api.calls("task-1")
	if calls != 3 {
		t.Errorf("Expected 3 status queries, got %d", calls)
	}
	time.Sleep(30 * time.Millisecond)
	if got := api.calls("task-1"); got != calls {
		t.Errorf("Polling continued after completion: %d -> %d", calls, got)
	}
}

func TestFilterLastResult(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(completesOnThirdPoll), Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := waitTask(t, s); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	view, _ := s.Filter("CAR")
	if view.VisibleRows != 2 {
		t.Errorf("Expected 2 visible rows, got %d", view.VisibleRows)
	}
	view, _ = s.Filter("")
	if view.VisibleRows != 3 {
		t.Errorf("Expected all rows visible for empty query, got %d", view.VisibleRows)
	}
}

func TestServerReportedError(t *testing.T) {
	api := newFakeAPI(func(string, int) (*types.DetectStatus, error) {
		return &types.DetectStatus{Status: types.TaskError, Message: "model unavailable"}, nil
	})
	s, n := newTestSession(t, api, Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	err := waitTask(t, s)
	if !errors.Is(err, types.ErrServerReported) {
		t.Fatalf("Expected server reported error, got %v", err)
	}
	if types.UserMessage(err) != "model unavailable" {
		t.Errorf("Expected server message, got %q", types.UserMessage(err))
	}
	snap := s.Snapshot()
	if snap.State != StateFailed || snap.TaskID != "" || snap.HasResult {
		t.Errorf("Unexpected snapshot after failure: %+v", snap)
	}
	if !n.has(types.NoticeError, "model unavailable") {
		t.Error("Expected the server message as an error notice")
	}
	time.Sleep(20 * time.Millisecond)
	if got := api.calls("task-1"); got != 1 {
		t.Errorf("Expected polling to stop after the error, got %d queries", got)
	}
}

func TestTaskNotFoundFails(t *testing.T) {
	api := newFakeAPI(func(string, int) (*types.DetectStatus, error) {
		return &types.DetectStatus{Status: types.TaskNotFound}, nil
	})
	s, _ := newTestSession(t, api, Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := waitTask(t, s); !errors.Is(err, types.ErrPoll) {
		t.Fatalf("Expected poll error, got %v", err)
	}
}

func TestStatusTransportFailure(t *testing.T) {
	api := newFakeAPI(func(string, int) (*types.DetectStatus, error) {
		return nil, errors.New("connection refused")
	})
	s, n := newTestSession(t, api, Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := waitTask(t, s); !errors.Is(err, types.ErrPoll) {
		t.Fatalf("Expected poll error, got %v", err)
	}
	if !n.has(types.NoticeError, "Failed to check detection status") {
		t.Error("Expected a status failure notice")
	}
}

func TestUploadFailureKeepsSelection(t *testing.T) {
	api := newFakeAPI(alwaysProcessing)
	api.uploadErr = &transfer.StatusError{Op: "upload", StatusCode: 400, Message: "No file part"}
	s, n := newTestSession(t, api, Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}

	_, err := s.Submit(context.Background())
	if !errors.Is(err, types.ErrUpload) {
		t.Fatalf("Expected upload error, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateIdle || snap.Selection == nil || !snap.CanSubmit {
		t.Errorf("Expected idle state with selection kept, got %+v", snap)
	}
	if !n.has(types.NoticeError, "Upload failed: No file part") {
		t.Error("Expected the upload failure notice")
	}
}

func TestSubmitWhileUploadingIsBusy(t *testing.T) {
	api := newFakeAPI(completesOnThirdPoll)
	api.uploadGate = make(chan struct{})
	s, _ := newTestSession(t, api, Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()
	waitFor(t, "uploading state", func() bool { return s.Snapshot().State == StateUploading })

	if _, err := s.Submit(context.Background()); !errors.Is(err, types.ErrBusy) {
		t.Errorf("Expected busy error, got %v", err)
	}
	close(api.uploadGate)
	if err := <-done; err != nil {
		t.Fatalf("First submit failed: %v", err)
	}
	if err := waitTask(t, s); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
}

func TestPollTimeout(t *testing.T) {
	api := newFakeAPI(alwaysProcessing)
	s, n := newTestSession(t, api, Options{MaxPollDuration: 50 * time.Millisecond})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := waitTask(t, s); !errors.Is(err, types.ErrPollTimeout) {
		t.Fatalf("Expected poll timeout, got %v", err)
	}
	if s.Snapshot().State != StateFailed {
		t.Errorf("Expected failed state, got %s", s.Snapshot().State)
	}
	if !n.has(types.NoticeError, "Detection did not finish within 50ms") {
		t.Error("Expected a timeout notice")
	}
}

func TestCancelStopsPolling(t *testing.T) {
	api := newFakeAPI(alwaysProcessing)
	s, _ := newTestSession(t, api, Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitFor(t, "first poll", func() bool { return api.calls("task-1") > 0 })

	if !s.Cancel() {
		t.Fatal("Expected Cancel to stop the task")
	}
	if err := waitTask(t, s); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancelled task, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateIdle || snap.TaskID != "" {
		t.Errorf("Expected idle state, got %+v", snap)
	}

	time.Sleep(20 * time.Millisecond)
	calls := api.calls("task-1")
	time.Sleep(30 * time.Millisecond)
	if got := api.calls("task-1"); got != calls {
		t.Errorf("Polling continued after cancel: %d -> %d", calls, got)
	}
	if s.Cancel() {
		t.Error("Expected second Cancel to be a no-op")
	}
}

func TestSubmitSupersedesPollingTask(t *testing.T) {
	api := newFakeAPI(func(taskID string, call int) (*types.DetectStatus, error) {
		if taskID == "task-1" {
			return processing(10)
		}
		return completed()
	})
	s, _ := newTestSession(t, api, Options{})
	if err := s.SelectFile("first.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitFor(t, "first poll", func() bool { return api.calls("task-1") > 0 })

	taskID, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("Second submit failed: %v", err)
	}
	if taskID != "task-2" {
		t.Errorf("Expected task-2, got %q", taskID)
	}
	if err := waitTask(t, s); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if rs := s.LastResult(); rs == nil || rs.TaskID != "task-2" {
		t.Errorf("Expected result of task-2, got %+v", rs)
	}

	time.Sleep(20 * time.Millisecond)
	calls := api.calls("task-1")
	time.Sleep(30 * time.Millisecond)
	if got := api.calls("task-1"); got != calls {
		t.Errorf("Superseded task kept polling: %d -> %d", calls, got)
	}
}

func TestResetThenResubmitGetsNewTask(t *testing.T) {
	api := newFakeAPI(completesOnThirdPoll)
	s, _ := newTestSession(t, api, Options{})

	for i, want := range []string{"task-1", "task-2"} {
		if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
			t.Fatalf("SelectFile failed: %v", err)
		}
		taskID, err := s.Submit(context.Background())
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		if taskID != want {
			t.Errorf("Expected %s, got %s", want, taskID)
		}
		if err := waitTask(t, s); err != nil {
			t.Fatalf("Task %s failed: %v", taskID, err)
		}
		s.Reset()

		snap := s.Snapshot()
		if snap.State != StateIdle || snap.HasResult || snap.ResultTaskID != "" {
			t.Errorf("Expected clean idle state after reset, got %+v", snap)
		}
	}
}

func TestSelectionChangedDuringPollingIsKept(t *testing.T) {
	gate := make(chan struct{})
	api := newFakeAPI(func(_ string, call int) (*types.DetectStatus, error) {
		if call == 1 {
			<-gate
			return processing(50)
		}
		return completed()
	})
	s, _ := newTestSession(t, api, Options{})
	if err := s.SelectFile("first.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := s.SelectFile("second.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	close(gate)

	if err := waitTask(t, s); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if sel := s.Snapshot().Selection; sel == nil || sel.Name != "second.png" {
		t.Errorf("Expected second.png to stay selected, got %+v", sel)
	}
}

func TestResultFetchFailureStaysCompleted(t *testing.T) {
	api := newFakeAPI(completesOnThirdPoll)
	api.resultErr = errors.New("boom")
	s, n := newTestSession(t, api, Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := waitTask(t, s); !errors.Is(err, types.ErrResultFetch) {
		t.Fatalf("Expected result fetch error, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != StateCompleted || snap.HasResult {
		t.Errorf("Expected completed state without result, got %+v", snap)
	}
	if !n.has(types.NoticeError, "Failed to load detection results") {
		t.Error("Expected a result failure notice")
	}
}

func TestDownloadURL(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(completesOnThirdPoll), Options{})

	if _, err := s.DownloadURL(); !errors.Is(err, types.ErrNoCompletedTask) {
		t.Fatalf("Expected no completed task error, got %v", err)
	}

	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := waitTask(t, s); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}

	url, err := s.DownloadURL()
	if err != nil {
		t.Fatalf("DownloadURL failed: %v", err)
	}
	if url != "http://detector.test/download/task-1" {
		t.Errorf("Unexpected download URL %q", url)
	}
}

func TestEscape(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(completesOnThirdPoll), Options{})
	if err := s.SelectFile("street.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := waitTask(t, s); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if err := s.SelectFile("next.png", pngBytes(t, 2, 2)); err != nil {
		t.Fatalf("SelectFile failed: %v", err)
	}

	s.Escape()
	snap := s.Snapshot()
	if snap.Selection != nil || !snap.HasResult {
		t.Errorf("First escape should only clear the selection, got %+v", snap)
	}

	s.Escape()
	if s.Snapshot().HasResult {
		t.Error("Second escape should reset the result")
	}
}

func TestWaitWithoutTask(t *testing.T) {
	s, _ := newTestSession(t, newFakeAPI(alwaysProcessing), Options{})
	if err := s.Wait(context.Background()); !errors.Is(err, ErrNoTask) {
		t.Errorf("Expected ErrNoTask, got %v", err)
	}
}
