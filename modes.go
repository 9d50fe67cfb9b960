package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/moyoez/detectview/api"
	"github.com/moyoez/detectview/api/notifyhub"
	"github.com/moyoez/detectview/history"
	"github.com/moyoez/detectview/render"
	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/transfer"
	"github.com/moyoez/detectview/types"
)

const shutdownTimeout = 5 * time.Second

// progressLogger reports session events on the console in one-shot mode.
type progressLogger struct {
	session.NopListener
}

func (progressLogger) PreviewReady(p session.Preview) {
	tool.DefaultLogger.Infof("[Preview] %s: %s %dx%d", p.Name, p.Format, p.Width, p.Height)
}

func (progressLogger) Progress(taskID string, progress float64, message string) {
	tool.DefaultLogger.Infof("[Progress] %s %3.0f%% %s", taskID, progress, message)
}

// runOnce selects the file, submits it, waits for the result and prints it.
func runOnce(ctx context.Context, client *transfer.Client, appCfg types.AppConfig, cfg types.Config) error {
	notices := newNotices(appCfg, cfg)
	sess := newSession(ctx, client, appCfg, notices)
	sess.AddListener(progressLogger{})

	store, closeStore, err := openHistory(appCfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store != nil {
		sess.AddListener(history.NewRecorder(store))
	}

	if err := sess.SelectPath(cfg.UseFile); err != nil {
		return err
	}
	if _, err := sess.Submit(ctx); err != nil {
		return err
	}
	if err := sess.Wait(ctx); err != nil {
		return err
	}

	view, _ := sess.Result()
	if err := render.WriteTerminal(os.Stdout, view, cfg.UseFilter); err != nil {
		return err
	}

	if cfg.UseDownload {
		return saveResult(ctx, client, sess.LastResult(), cfg.UseOutDir)
	}
	return nil
}

// saveResult stores the task's download artifact under dir, falling back to the
// result image URI when the server has no download route for it.
func saveResult(ctx context.Context, client *transfer.Client, rs *types.ResultSet, dir string) error {
	if rs == nil {
		return types.NewError(types.ErrNoCompletedTask, "", "No completed detection to download", nil)
	}
	if dir == "" {
		dir = "."
	}

	path, err := saveFrom(ctx, dir, "result_"+rs.TaskID+".jpg", func(w io.Writer) error {
		_, err := client.Download(ctx, rs.TaskID, w)
		return err
	})
	var se *transfer.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound && rs.ResultImage != "" {
		tool.DefaultLogger.Debugf("Download route missing, fetching result image %s", rs.ResultImage)
		path, err = saveFrom(ctx, dir, transfer.ImageFileName(rs.ResultImage, rs.TaskID), func(w io.Writer) error {
			_, err := client.FetchImage(ctx, rs.ResultImage, w)
			return err
		})
	}
	if err != nil {
		return err
	}
	tool.DefaultLogger.Infof("Saved result to %s", path)
	return nil
}

func saveFrom(ctx context.Context, dir, fileName string, fetch func(io.Writer) error) (string, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(fetch(pw))
	}()
	path, err := tool.SaveStream(ctx, dir, fileName, pr)
	pr.CloseWithError(err)
	return path, err
}

// runServe runs the viewer API with background stats until ctx is cancelled.
func runServe(ctx context.Context, client *transfer.Client, appCfg types.AppConfig, cfg types.Config) error {
	hub := notifyhub.New()
	notices := newNotices(appCfg, cfg)
	notices.AddHub(hub)

	sess := newSession(ctx, client, appCfg, notices)
	bridge := api.NewBridge(hub)
	sess.AddListener(bridge)

	store, closeStore, err := openHistory(appCfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store != nil {
		sess.AddListener(history.NewRecorder(store))
		tool.DefaultLogger.Infof("Recording history to %s", appCfg.HistoryPath)
	}

	m := newMonitor(client, appCfg)
	m.Subscribe(bridge.Stats)
	go m.Run(ctx)

	server := api.NewServer(appCfg.Port, api.Deps{
		Session: sess,
		Monitor: m,
		Notices: notices,
		Hub:     hub,
		Clearer: client,
		History: store,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		tool.DefaultLogger.Info("Shutting down viewer API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		sess.Cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down viewer API: %v", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("viewer API failed: %v", err)
	}
}

func runStats(ctx context.Context, client *transfer.Client, appCfg types.AppConfig) error {
	m := newMonitor(client, appCfg)
	err := m.Refresh(ctx)
	snap, _ := m.Latest()
	fmt.Println(render.FormatStats(snap))
	return err
}

func runClearCache(ctx context.Context, client *transfer.Client) error {
	resp, err := client.ClearCache(ctx)
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func runHistory(ctx context.Context, appCfg types.AppConfig) error {
	store, closeStore, err := openHistory(appCfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return fmt.Errorf("history is disabled, set historyPath or -useHistoryPath")
	}

	entries, err := store.Recent(ctx, 20)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No detections recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			e.TaskID,
			e.OriginalFile,
			strconv.Itoa(e.TotalDetections),
			render.FormatPercent(e.AverageConfidence),
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Recorded", "Task", "File", "Detections", "Avg confidence").
		Rows(rows...)
	fmt.Println(t.Render())
	return nil
}
