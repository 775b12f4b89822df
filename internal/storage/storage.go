// Package storage persists the lockin document and implements the task and
// study-session repositories on top of it.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"lockin/internal/metrics"
)

// ErrConflict is returned by Save when the stored document was written by
// someone else after it was loaded.
var ErrConflict = errors.New("document changed since it was loaded")

// maxMutateAttempts bounds how often a command is re-run after a conflict.
const maxMutateAttempts = 3

// Backend kinds accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Storage is the document store. Every command reloads the document from the
// backend, applies one change and writes it back.
type Storage struct {
	backend Backend
	logger  *zap.Logger
	clock   clockwork.Clock
	metrics *metrics.Metrics
	newID   func() string

	// mu serializes load-mutate-save cycles within this process.
	mu sync.Mutex
}

// Option configures a Storage.
type Option func(*Storage)

func WithLogger(l *zap.Logger) Option {
	return func(s *Storage) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp records.
func WithClock(c clockwork.Clock) Option {
	return func(s *Storage) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Storage) { s.metrics = m }
}

// WithIDGenerator overrides uuid.NewString, for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Storage) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New wraps backend in a Storage.
func New(backend Backend, opts ...Option) (*Storage, error) {
	if backend == nil {
		return nil, errors.New("storage: backend is required")
	}
	s := &Storage{
		backend: backend,
		logger:  zap.NewNop(),
		clock:   clockwork.NewRealClock(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open builds the backend named by kind inside dataDir and wraps it.
func Open(kind, dataDir string, opts ...Option) (*Storage, error) {
	var (
		backend Backend
		err     error
	)
	switch kind {
	case "", BackendFile:
		backend, err = NewFileBackend(dataDir)
	case BackendSQLite:
		backend, err = NewSQLiteBackend(filepath.Join(dataDir, DocumentKey+".db"))
	case BackendMemory:
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want file, sqlite or memory)", kind)
	}
	if err != nil {
		return nil, err
	}
	return New(backend, opts...)
}

// Close releases the backend.
func (s *Storage) Close() error {
	return s.backend.Close()
}

// Now returns the current time according to the storage clock.
func (s *Storage) Now() time.Time {
	return s.clock.Now()
}

// Load returns the current document. It never fails: missing or undecodable
// data yields the default document.
func (s *Storage) Load() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, _ := s.load()
	return doc
}

// Inspect decodes the stored document without repairing or persisting
// anything.
func (s *Storage) Inspect() (*Document, DecodeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Read(DocumentKey)
	if err != nil {
		return nil, DecodeResult{}, err
	}
	doc, res := Decode(data, s.newID)
	return doc, res, nil
}

// Save writes doc if the stored revision still matches the one it was
// loaded at, and returns ErrConflict otherwise.
func (s *Storage) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

func (s *Storage) load() (*Document, DecodeResult) {
	data, err := s.backend.Read(DocumentKey)
	if errors.Is(err, ErrNotExist) {
		doc := NewDocument()
		s.metrics.ObserveLoad(metrics.LoadMissing)
		if err := s.write(doc); err != nil {
			s.logger.Warn("could not persist default document", zap.Error(err))
		}
		return doc, DecodeResult{Status: StatusReset, Cause: ErrNotExist}
	}
	if err != nil {
		// Leave the medium untouched so a transient failure never
		// overwrites real data.
		s.metrics.ObserveLoad(metrics.LoadError)
		s.logger.Warn("read document failed, using defaults", zap.Error(err))
		return NewDocument(), DecodeResult{Status: StatusReset, Cause: err}
	}

	doc, res := Decode(data, s.newID)
	switch res.Status {
	case StatusReset:
		s.metrics.ObserveLoad(metrics.LoadReset)
		s.recover(doc, res.Cause)
	case StatusPartial:
		s.metrics.ObserveLoad(metrics.LoadPartial)
		s.logger.Warn("document had invalid fields, using corrected values",
			zap.Strings("paths", res.Paths()))
	default:
		s.metrics.ObserveLoad(metrics.LoadOK)
	}
	return doc, res
}

// recover sets an undecodable document aside (when the backend can) and
// persists the default in its place.
func (s *Storage) recover(doc *Document, cause error) {
	fields := []zap.Field{zap.Error(cause)}
	if q, ok := s.backend.(quarantiner); ok {
		dst, err := q.Quarantine(DocumentKey)
		if err != nil {
			s.logger.Warn("could not quarantine corrupt document", zap.Error(err))
		} else {
			fields = append(fields, zap.String("moved_to", dst))
		}
	}
	s.logger.Warn("document unreadable, reset to defaults", fields...)
	if err := s.write(doc); err != nil {
		s.logger.Warn("could not persist default document", zap.Error(err))
	}
}

func (s *Storage) save(doc *Document) error {
	stored, err := s.storedRevision()
	if err != nil {
		return err
	}
	if stored != doc.Revision {
		s.metrics.ObserveConflict()
		return fmt.Errorf("%w: stored revision %d, loaded %d", ErrConflict, stored, doc.Revision)
	}
	return s.write(doc)
}

func (s *Storage) storedRevision() (int64, error) {
	data, err := s.backend.Read(DocumentKey)
	if errors.Is(err, ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return gjson.GetBytes(data, "revision").Int(), nil
}

// write bumps the revision and persists doc unconditionally.
func (s *Storage) write(doc *Document) error {
	doc.Revision++
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		doc.Revision--
		return fmt.Errorf("serialize document: %w", err)
	}
	if err := s.backend.Write(DocumentKey, data); err != nil {
		doc.Revision--
		s.metrics.ObserveSave(err)
		s.logger.Error("save document failed", zap.Error(err))
		return err
	}
	s.metrics.ObserveSave(nil)
	return nil
}

// mutate runs one load-change-save cycle. fn reports whether it changed the
// document; unchanged documents are not written. The cycle is re-run against
// fresh data when the save hits a conflict.
func (s *Storage) mutate(op string, fn func(doc *Document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		doc, _ := s.load()
		changed, ferr := fn(doc)
		if ferr != nil {
			return ferr
		}
		if !changed {
			return nil
		}

		err = s.save(doc)
		if !errors.Is(err, ErrConflict) {
			break
		}
		s.logger.Debug("document changed underneath, retrying",
			zap.String("op", op), zap.Int("attempt", attempt))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) now() time.Time {
	return normalizeTime(s.clock.Now())
}

// Replace overwrites the stored document's contents with src, keeping the
// revision sequence intact.
func (s *Storage) Replace(src *Document) error {
	if src == nil {
		return errors.New("replace document: nil document")
	}
	return s.mutate("replace document", func(doc *Document) (bool, error) {
		rev := doc.Revision
		*doc = *src.Clone()
		doc.Revision = rev
		return true, nil
	})
}
