package schema

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	if err := os.WriteFile(path, []byte("- name: Foo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var latest *Registry
	var failures int

	go Watch(ctx, path, logger, func(reg *Registry) {
		mu.Lock()
		latest = reg
		mu.Unlock()
	}, func(error) {
		mu.Lock()
		failures++
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(path, []byte("- name: Foo\n- name: Bar\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil && latest.Len() == 2
	}, "registry not reloaded after write")

	_ = os.WriteFile(path, []byte("- name: lower\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failures > 0
	}, "invalid schema did not report a failure")

	mu.Lock()
	defer mu.Unlock()
	if latest.Len() != 2 {
		t.Errorf("failed reload replaced registry: len = %d", latest.Len())
	}
}

func TestWatch_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	_ = os.WriteFile(path, []byte("- name: Foo\n"), 0o644)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	reloads := 0
	go Watch(ctx, path, logger, func(*Registry) {
		mu.Lock()
		reloads++
		mu.Unlock()
	}, nil)

	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644)
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if reloads != 0 {
		t.Errorf("reloads = %d, want 0", reloads)
	}
}
