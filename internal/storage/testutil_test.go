package storage

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var testEpoch = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *Storage
	backend *FileBackend
	clock   *clockwork.FakeClock
}

// newFixture creates a file-backed Storage in a temp dir with a fake clock
// and sequential ids.
func newFixture(t testing.TB, opts ...Option) *fixture {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	clock := clockwork.NewFakeClockAt(testEpoch)
	base := []Option{WithClock(clock), WithIDGenerator(sequentialIDs())}
	store, err := New(backend, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{store: store, backend: backend, clock: clock}
}

// raw returns the stored document bytes.
func (f *fixture) raw(t testing.TB) []byte {
	t.Helper()
	data, err := os.ReadFile(f.backend.Path(DocumentKey))
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	return data
}

func (f *fixture) writeRaw(t testing.TB, data string) {
	t.Helper()
	if err := os.WriteFile(f.backend.Path(DocumentKey), []byte(data), 0o600); err != nil {
		t.Fatalf("write document: %v", err)
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func ptr[T any](v T) *T { return &v }
