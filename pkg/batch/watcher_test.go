// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	w, err := NewWatcher(root, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, root
}

func TestHandleEvent(t *testing.T) {
	w, root := newTestWatcher(t)
	if err := os.WriteFile(filepath.Join(root, "doc.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".hidden.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		file       string
		op         fsnotify.Op
		wantChange bool
		wantType   ChangeType
	}{
		{name: "create file", file: "doc.txt", op: fsnotify.Create, wantChange: true, wantType: ChangeCreated},
		{name: "write file", file: "doc.txt", op: fsnotify.Write, wantChange: true, wantType: ChangeUpdated},
		{name: "remove file", file: "removed.txt", op: fsnotify.Remove, wantChange: true, wantType: ChangeDeleted},
		{name: "rename file", file: "renamed.txt", op: fsnotify.Rename, wantChange: true, wantType: ChangeDeleted},
		{name: "chmod ignored", file: "doc.txt", op: fsnotify.Chmod},
		{name: "directory skipped", file: "sub", op: fsnotify.Create},
		{name: "hidden skipped", file: ".hidden.txt", op: fsnotify.Create},
		{name: "created then removed", file: "vanished.txt", op: fsnotify.Create},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, ok := w.handleEvent(fsnotify.Event{Name: filepath.Join(root, tt.file), Op: tt.op})
			if ok != tt.wantChange {
				t.Fatalf("handleEvent ok = %v, want %v", ok, tt.wantChange)
			}
			if !ok {
				return
			}
			if change.Key != tt.file || change.Type != tt.wantType {
				t.Errorf("change = %+v, want %s %s", change, tt.file, tt.wantType)
			}
		})
	}
}

func TestWatcherRun(t *testing.T) {
	w, root := newTestWatcher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batches := make(chan []Change, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changes []Change) error {
			batches <- changes
			return nil
		})
	}()

	if err := os.Mkdir(filepath.Join(root, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to pick up the new directory.
	time.Sleep(200 * time.Millisecond)
	for _, name := range []string{"b.txt", "a.txt", "nested/c.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	seen := map[string]bool{}
	for len(seen) < 3 {
		select {
		case batch := <-batches:
			keys := Keys(batch)
			if !slices.IsSorted(keys) {
				t.Errorf("batch not sorted: %v", keys)
			}
			for _, k := range keys {
				seen[k] = true
			}
		case <-ctx.Done():
			t.Fatalf("timed out, seen %v", seen)
		}
	}
	for _, want := range []string{"a.txt", "b.txt", "nested/c.txt"} {
		if !seen[want] {
			t.Errorf("missing change for %s", want)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestWatcherRunHandlerError(t *testing.T) {
	w, root := newTestWatcher(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	boom := errors.New("sink closed")
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context, []Change) error { return boom })
	}()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("Run returned %v, want %v", err, boom)
		}
	case <-ctx.Done():
		t.Fatal("timed out")
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), time.Second, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
