package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan:
// - Only writes and creates of the listed files pass the filter
// - A burst of writes is coalesced into one change
// - Changes to several files in one window arrive in a single call
// - Run rebuilds at startup and after each change
// - A failing rebuild is logged and watching continues
// - Cancelling the context ends Run without error

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFileWatcher_shouldWatch(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	fw := &FileWatcher{files: map[string]struct{}{schemaPath: {}}}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to watched file", fsnotify.Event{Name: schemaPath, Op: fsnotify.Write}, true},
		{"create of watched file", fsnotify.Event{Name: schemaPath, Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: schemaPath, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: schemaPath, Op: fsnotify.Remove}, false},
		{"sibling file", fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}, false},
		{"editor swap file", fsnotify.Event{Name: schemaPath + ".swp", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fw.shouldWatch(tt.event))
		})
	}
}

func TestNewFileWatcher_Errors(t *testing.T) {
	_, err := NewFileWatcher(nil, 0, func([]Change) {}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewFileWatcher([]string{filepath.Join(t.TempDir(), "missing", "schema.json")}, 0, func([]Change) {}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch directory")
}

func TestFileWatcher_Debounce(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping filesystem test in short mode")
	}

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	var calls atomic.Int32
	fw, err := NewFileWatcher([]string{path}, 200*time.Millisecond, func([]Change) {
		calls.Add(1)
	}, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Start(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"layers":[]}`), 0644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFileWatcher_flush(t *testing.T) {
	// Test: one call per window with every pending file, sorted by path
	var got [][]Change
	fw := &FileWatcher{onChange: func(changes []Change) { got = append(got, changes) }}

	pending := map[string]fsnotify.Op{
		"/work/schema.json": fsnotify.Write,
		"/work/layout.yaml": fsnotify.Create | fsnotify.Write,
		"/work/a.yaml":      fsnotify.Write,
	}
	fw.flush(pending)

	require.Len(t, got, 1)
	assert.Equal(t, []Change{
		{Path: "/work/a.yaml", Op: fsnotify.Write},
		{Path: "/work/layout.yaml", Op: fsnotify.Create | fsnotify.Write},
		{Path: "/work/schema.json", Op: fsnotify.Write},
	}, got[0])
	assert.Empty(t, pending)

	// Nothing pending, nothing delivered
	fw.flush(pending)
	assert.Len(t, got, 1)
}

func TestFileWatcher_CoalescesFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping filesystem test in short mode")
	}

	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	layoutPath := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(layoutPath, []byte("layers: []\n"), 0644))

	var mu sync.Mutex
	var calls [][]Change
	fw, err := NewFileWatcher([]string{schemaPath, layoutPath}, 300*time.Millisecond, func(changes []Change) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, changes)
	}, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Start(ctx)

	require.NoError(t, os.WriteFile(schemaPath, []byte(`{"layers":[]}`), 0644))
	require.NoError(t, os.WriteFile(layoutPath, []byte("layers: [roads]\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) >= 1
	}, 3*time.Second, 20*time.Millisecond)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1)
	paths := make([]string, 0, len(calls[0]))
	for _, ch := range calls[0] {
		paths = append(paths, filepath.Base(ch.Path))
	}
	assert.Equal(t, []string{"layout.yaml", "schema.json"}, paths)
}

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping filesystem test in short mode")
	}

	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	var calls atomic.Int32
	rebuild := func(context.Context) error {
		if calls.Add(1) == 2 {
			return errors.New("schema is broken")
		}
		return nil
	}

	var logs syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{Files: []string{path}, Debounce: 20 * time.Millisecond}, rebuild, zerolog.New(&logs))
	}()

	// Startup build
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 10*time.Millisecond)

	// Failing rebuild is logged
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
		return calls.Load() >= 2
	}, 3*time.Second, 100*time.Millisecond)
	require.Eventually(t, func() bool { return bytes.Contains([]byte(logs.String()), []byte("schema is broken")) }, 3*time.Second, 10*time.Millisecond)

	// And the next change still rebuilds
	before := calls.Load()
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
		return calls.Load() > before
	}, 3*time.Second, 100*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
	assert.Contains(t, logs.String(), `"component":"watch"`)
	assert.Contains(t, logs.String(), "regeneration failed; still watching")
}
