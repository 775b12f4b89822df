package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"lockin/internal/fsutil"
)

// SQLiteBackend stores documents as rows of a single table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewSQLiteBackend opens (or creates) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db, path: path, now: time.Now}
	if err := b.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initialize() error {
	schema := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Path returns the database file, which changes on every write.
func (b *SQLiteBackend) Path(string) string {
	return b.path
}

func (b *SQLiteBackend) Read(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var body []byte
	err := b.db.QueryRow(`SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}

func (b *SQLiteBackend) Write(key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.db.Exec(`
		INSERT INTO documents (key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		key, data, b.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Quarantine renames the row for key to <key>.corrupt.<timestamp>.
func (b *SQLiteBackend) Quarantine(key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	dst := fmt.Sprintf("%s.corrupt.%s", key, b.now().Format(fsutil.QuarantineLayout))
	res, err := b.db.Exec(`UPDATE documents SET key = ? WHERE key = ?`, dst, key)
	if err != nil {
		return "", fmt.Errorf("quarantine %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrNotExist
	}
	return dst, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
