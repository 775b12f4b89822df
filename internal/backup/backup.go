// Package backup keeps timestamped snapshots of the lockin document and
// restores them through the storage layer.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"lockin/internal/fsutil"
	"lockin/internal/storage"
)

// Version constants for the backup format.
const (
	ManifestVersion = "2.0"
	ManifestFile    = "manifest.json"
	DocumentFile    = storage.DocumentKey + ".json"
	BackupsDir      = "backups"
)

const nameLayout = "2006-01-02_150405"

// ErrNotFound is returned for a backup name with no directory behind it.
var ErrNotFound = errors.New("backup not found")

// Manager handles backup and restore operations.
type Manager struct {
	store      *storage.Storage
	backupDir  string // e.g. ~/.lockin/backups
	appVersion string
	clock      clockwork.Clock
	logger     *zap.Logger
}

// Manifest contains metadata about a backup.
type Manifest struct {
	Version    string         `json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	AppVersion string         `json:"app_version"`
	Revision   int64          `json:"revision"`
	Stats      map[string]int `json:"stats"`
}

// Info contains summary information about a backup.
type Info struct {
	Name      string // Directory name (2025-12-15_143022_123)
	Path      string
	CreatedAt time.Time
	Stats     map[string]int // tasks, tasks_done, sessions, unfinished
}

// Option configures a Manager.
type Option func(*Manager)

func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager that snapshots store into dataDir/backups.
func NewManager(store *storage.Storage, dataDir, appVersion string, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		backupDir:  filepath.Join(dataDir, BackupsDir),
		appVersion: appVersion,
		clock:      clockwork.NewRealClock(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the directory backups are written to.
func (m *Manager) Dir() string {
	return m.backupDir
}

// Create snapshots the current document and returns the backup name.
func (m *Manager) Create() (string, error) {
	if err := fsutil.EnsureDir(m.backupDir); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	doc := m.store.Load()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}

	now := m.clock.Now()
	name, backupPath, err := m.reserve(now)
	if err != nil {
		return "", err
	}

	if err := fsutil.WriteFileAtomic(filepath.Join(backupPath, DocumentFile), data, fsutil.FilePerm); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	manifest := Manifest{
		Version:    ManifestVersion,
		CreatedAt:  now,
		AppVersion: m.appVersion,
		Revision:   doc.Revision,
		Stats:      statsFor(doc),
	}
	if err := writeJSON(filepath.Join(backupPath, ManifestFile), manifest); err != nil {
		_ = os.RemoveAll(backupPath)
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	m.logger.Info("backup created", zap.String("name", name), zap.Int64("revision", doc.Revision))
	return name, nil
}

// reserve creates a fresh backup directory named after now. Names carry
// milliseconds; a collision bumps them.
func (m *Manager) reserve(now time.Time) (string, string, error) {
	ms := now.Nanosecond() / int(time.Millisecond)
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("%s_%03d", now.Format(nameLayout), (ms+i)%1000)
		path := filepath.Join(m.backupDir, name)
		err := os.Mkdir(path, fsutil.DirPerm)
		if err == nil {
			return name, path, nil
		}
		if !os.IsExist(err) {
			return "", "", fmt.Errorf("failed to create backup: %w", err)
		}
	}
	return "", "", fmt.Errorf("failed to create backup: no free name for %s", now.Format(nameLayout))
}

// List returns all available backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := m.info(entry.Name())
		if err != nil {
			continue // not ours
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns information about a specific backup.
func (m *Manager) Get(name string) (*Info, error) {
	if err := validateBackupName(name); err != nil {
		return nil, err
	}
	return m.info(name)
}

func (m *Manager) info(name string) (*Info, error) {
	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var manifest Manifest
	if err := readJSON(filepath.Join(backupPath, ManifestFile), &manifest); err != nil {
		createdAt, parseErr := parseBackupName(name)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid backup: %s", name)
		}
		manifest.CreatedAt = createdAt
		manifest.Stats = map[string]int{}
	}
	return &Info{
		Name:      name,
		Path:      backupPath,
		CreatedAt: manifest.CreatedAt,
		Stats:     manifest.Stats,
	}, nil
}

// Restore replaces the current document with a backup. The snapshot must
// decode cleanly enough to be worth restoring; a safety backup of the
// current state is taken first and its name returned.
func (m *Manager) Restore(name string) (string, error) {
	if err := validateBackupName(name); err != nil {
		return "", err
	}
	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(backupPath, DocumentFile))
	if err != nil {
		return "", fmt.Errorf("read snapshot %s: %w", name, err)
	}
	doc, res := storage.Decode(data, nil)
	if res.Status == storage.StatusReset {
		return "", fmt.Errorf("snapshot %s is unusable: %w", name, res.Cause)
	}
	if res.Status == storage.StatusPartial {
		m.logger.Warn("restoring snapshot with corrected fields",
			zap.String("name", name), zap.Strings("paths", res.Paths()))
	}

	safetyName, err := m.Create()
	if err != nil {
		return "", fmt.Errorf("failed to create safety backup: %w", err)
	}

	if err := m.store.Replace(doc); err != nil {
		return safetyName, fmt.Errorf("restore %s (safety backup: %s): %w", name, safetyName, err)
	}
	m.logger.Info("backup restored", zap.String("name", name), zap.String("safety", safetyName))
	return safetyName, nil
}

// RestoreLatest restores from the most recent backup.
func (m *Manager) RestoreLatest() (string, string, error) {
	backups, err := m.List()
	if err != nil {
		return "", "", err
	}
	if len(backups) == 0 {
		return "", "", fmt.Errorf("no backups available")
	}
	safety, err := m.Restore(backups[0].Name)
	return backups[0].Name, safety, err
}

// Delete removes a specific backup.
func (m *Manager) Delete(name string) error {
	if err := validateBackupName(name); err != nil {
		return err
	}
	backupPath := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return os.RemoveAll(backupPath)
}

// Prune removes old backups, keeping only the N most recent.
func (m *Manager) Prune(keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keepCount must be non-negative")
	}

	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keepCount {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keepCount:] {
		if err := m.Delete(b.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func statsFor(doc *storage.Document) map[string]int {
	done := 0
	for _, t := range doc.Tasks {
		if t.Done {
			done++
		}
	}
	unfinished := 0
	if doc.Study.Unfinished != nil {
		unfinished = 1
	}
	return map[string]int{
		"tasks":      len(doc.Tasks),
		"tasks_done": done,
		"sessions":   len(doc.Study.Sessions),
		"unfinished": unfinished,
	}
}

func validateBackupName(name string) error {
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseBackupName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, fsutil.FilePerm)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// parseBackupName accepts 2006-01-02_150405 with an optional _mmm suffix.
func parseBackupName(name string) (time.Time, error) {
	if len(name) == len(nameLayout)+4 {
		base, err := time.Parse(nameLayout, name[:len(nameLayout)])
		if err != nil {
			return time.Time{}, err
		}
		if name[len(nameLayout)] != '_' {
			return time.Time{}, fmt.Errorf("invalid backup format")
		}
		ms, err := strconv.Atoi(name[len(nameLayout)+1:])
		if err != nil || ms < 0 || ms > 999 {
			return time.Time{}, fmt.Errorf("invalid milliseconds")
		}
		return base.Add(time.Duration(ms) * time.Millisecond), nil
	}
	return time.Parse(nameLayout, name)
}
