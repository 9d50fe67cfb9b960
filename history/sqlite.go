package history

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with a read/write lock.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open creates or opens the history database at path and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL UNIQUE,
		original_file TEXT NOT NULL DEFAULT '',
		result_image TEXT NOT NULL DEFAULT '',
		server_timestamp TEXT NOT NULL DEFAULT '',
		total_detections INTEGER DEFAULT 0,
		average_confidence REAL DEFAULT 0,
		recorded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_ref INTEGER NOT NULL,
		class TEXT NOT NULL,
		confidence REAL DEFAULT 0,
		layer TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (task_ref) REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_recorded_at ON tasks(recorded_at);
	CREATE INDEX IF NOT EXISTS idx_detections_task_ref ON detections(task_ref);
	CREATE INDEX IF NOT EXISTS idx_detections_class ON detections(class);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
