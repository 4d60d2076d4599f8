package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type runningWatcher struct {
	cancel context.CancelFunc
	done   chan error
}

func startWatcher(t *testing.T, w *Watcher) *runningWatcher {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	rw := &runningWatcher{cancel: cancel, done: make(chan error, 1)}
	go func() {
		rw.done <- w.Run(ctx)
	}()
	return rw
}

func (rw *runningWatcher) stop(t *testing.T) {
	t.Helper()

	rw.cancel()
	select {
	case err := <-rw.done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not stop after cancellation")
	}
}

// touchUntil rewrites path until cond holds. Run registers its watch
// asynchronously, so the first writes may go unnoticed.
func touchUntil(t *testing.T, path string, interval time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		if err := os.WriteFile(path, []byte("darkMode: class\n"), 0o600); err != nil {
			t.Fatalf("write declaration: %v", err)
		}
		time.Sleep(interval)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "stylecfg.yaml")
	if err := os.WriteFile(path, []byte("darkMode: media\n"), 0o600); err != nil {
		t.Fatalf("write declaration: %v", err)
	}

	var reloads atomic.Int32
	w := New(path, func() error {
		reloads.Add(1)
		return nil
	}, zaptest.NewLogger(t), WithDebounce(20*time.Millisecond))

	rw := startWatcher(t, w)
	touchUntil(t, path, 50*time.Millisecond, func() bool { return reloads.Load() > 0 })

	// Changes to other files in the directory are ignored.
	time.Sleep(100 * time.Millisecond)
	before := reloads.Load()
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: y\n"), 0o600); err != nil {
		t.Fatalf("write sibling: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	if got := reloads.Load(); got != before {
		t.Fatalf("expected sibling write to be ignored, reloads went from %d to %d", before, got)
	}

	rw.stop(t)
}

func TestWatcherKeepsRunningWhenReloadFails(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "stylecfg.yaml")
	if err := os.WriteFile(path, []byte("darkMode: media\n"), 0o600); err != nil {
		t.Fatalf("write declaration: %v", err)
	}

	var attempts atomic.Int32
	w := New(path, func() error {
		attempts.Add(1)
		return errors.New("invalid declaration")
	}, zaptest.NewLogger(t), WithDebounce(10*time.Millisecond))

	rw := startWatcher(t, w)
	touchUntil(t, path, 50*time.Millisecond, func() bool { return attempts.Load() >= 2 })
	rw.stop(t)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "stylecfg.yaml")
	if err := os.WriteFile(path, []byte("darkMode: media\n"), 0o600); err != nil {
		t.Fatalf("write declaration: %v", err)
	}

	var reloads atomic.Int32
	w := New(path, func() error {
		reloads.Add(1)
		return nil
	}, zaptest.NewLogger(t), WithDebounce(300*time.Millisecond))

	rw := startWatcher(t, w)
	touchUntil(t, path, 500*time.Millisecond, func() bool { return reloads.Load() > 0 })

	// Wait for any trailing reload from the warm-up writes to settle.
	time.Sleep(400 * time.Millisecond)
	before := reloads.Load()
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("darkMode: class\n"), 0o600); err != nil {
			t.Fatalf("write declaration: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(600 * time.Millisecond)

	if got := reloads.Load() - before; got != 1 {
		t.Fatalf("expected one reload for a burst of writes, got %d", got)
	}
	rw.stop(t)
}

func TestRunFailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "stylecfg.yaml")
	w := New(path, func() error { return nil }, zaptest.NewLogger(t))

	if err := w.Run(context.Background()); err == nil {
		t.Fatalf("expected error when the declaration directory does not exist")
	}
}

func TestWithDebounceIgnoresNonPositive(t *testing.T) {
	w := New("stylecfg.yaml", func() error { return nil }, zaptest.NewLogger(t), WithDebounce(0))
	if w.debounce != defaultDebounce {
		t.Fatalf("expected default debounce %s, got %s", defaultDebounce, w.debounce)
	}
}
