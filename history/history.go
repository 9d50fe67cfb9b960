// Package history keeps a local record of completed detection tasks.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/moyoez/detectview/render"
	"github.com/moyoez/detectview/session"
	"github.com/moyoez/detectview/tool"
	"github.com/moyoez/detectview/types"
)

// ErrNotFound is returned by Get for an unknown task.
var ErrNotFound = errors.New("task not found in history")

// Entry is one recorded task.
type Entry struct {
	TaskID            string            `json:"taskId"`
	OriginalFile      string            `json:"originalFile,omitempty"`
	ResultImage       string            `json:"resultImage,omitempty"`
	ServerTimestamp   string            `json:"serverTimestamp,omitempty"`
	TotalDetections   int               `json:"totalDetections"`
	AverageConfidence float64           `json:"averageConfidence"` // percent
	RecordedAt        time.Time         `json:"recordedAt"`
	Detections        []types.Detection `json:"detections,omitempty"`
}

// Store reads and writes history entries.
type Store struct {
	db  *DB
	now func() time.Time
}

func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record stores rs. Recording the same task twice is a no-op.
func (s *Store) Record(ctx context.Context, rs *types.ResultSet) error {
	if rs == nil || rs.TaskID == "" {
		return fmt.Errorf("cannot record a result without task id")
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO tasks (task_id, original_file, result_image, server_timestamp,
			total_detections, average_confidence, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rs.TaskID, rs.OriginalFile, rs.ResultImage, rs.Timestamp,
		rs.TotalDetections, render.AverageConfidence(rs.Detections)*100, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	if n == 0 {
		return nil
	}
	ref, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO detections (task_ref, class, confidence, layer) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, det := range rs.Detections {
		if _, err := stmt.ExecContext(ctx, ref, det.Class, det.Confidence, string(det.Layer)); err != nil {
			return fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit entries, newest first, without their detections.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT task_id, original_file, result_image, server_timestamp,
			total_detections, average_confidence, recorded_at
		FROM tasks ORDER BY recorded_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.TaskID, &e.OriginalFile, &e.ResultImage, &e.ServerTimestamp,
			&e.TotalDetections, &e.AverageConfidence, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one entry with its detections.
func (s *Store) Get(ctx context.Context, taskID string) (*Entry, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var (
		ref int64
		e   Entry
	)
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, task_id, original_file, result_image, server_timestamp,
			total_detections, average_confidence, recorded_at
		FROM tasks WHERE task_id = ?
	`, taskID).Scan(&ref, &e.TaskID, &e.OriginalFile, &e.ResultImage, &e.ServerTimestamp,
		&e.TotalDetections, &e.AverageConfidence, &e.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT class, confidence, layer FROM detections WHERE task_ref = ? ORDER BY id
	`, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			det   types.Detection
			layer string
		)
		if err := rows.Scan(&det.Class, &det.Confidence, &layer); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		det.Layer = types.LayerID(layer)
		e.Detections = append(e.Detections, det)
	}
	return &e, rows.Err()
}

// Recorder records every result the session loads.
type Recorder struct {
	session.NopListener
	store   *Store
	timeout time.Duration
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store, timeout: 5 * time.Second}
}

func (r *Recorder) ResultReady(taskID string, rs *types.ResultSet) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Record(ctx, rs); err != nil {
		tool.DefaultLogger.Errorf("[History] failed to record task %s: %v", taskID, err)
		return
	}
	tool.DefaultLogger.Debugf("[History] recorded task %s", taskID)
}
