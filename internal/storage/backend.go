package storage

import (
	"errors"
	"sync"
)

// ErrNotExist is returned by Backend.Read when no value is stored for a key.
var ErrNotExist = errors.New("storage: key does not exist")

// Backend is the key-value medium holding serialized documents.
type Backend interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Close() error
}

// quarantiner is implemented by backends that can set an undecodable value
// aside instead of overwriting it.
type quarantiner interface {
	Quarantine(key string) (string, error)
}

// pather is implemented by backends backed by a file that can be watched.
type pather interface {
	Path(key string) string
}

// MemoryBackend keeps documents in memory. It is used by tests and by the
// --ephemeral flag.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailWrites makes every Write return the error, for tests.
	FailWrites error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Read(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotExist
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Write(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
