// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leseb/fileindexer/pkg/observability/logging"
)

// ChangeType is the kind of filesystem change observed for a document.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a single document change, keyed relative to the watched root.
type Change struct {
	Key  string
	Type ChangeType
}

// Watcher reports document changes below a directory tree. Bursts of events
// are coalesced: a batch is delivered once the tree has been quiet for the
// debounce interval.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
}

// NewWatcher watches root and every non-hidden directory below it.
func NewWatcher(root string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{root: abs, debounce: debounce, fsw: fsw, logger: logger}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleEvent maps an fsnotify event to a document change. New directories
// are added to the watch set and produce no change of their own.
func (w *Watcher) handleEvent(ev fsnotify.Event) (Change, bool) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Change{}, false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if isHidden(part) {
			return Change{}, false
		}
	}
	key := filepath.ToSlash(rel)

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return Change{}, false
		}
		if info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watch new directory failed", "path", ev.Name, "error", err)
			}
			return Change{}, false
		}
		return Change{Key: key, Type: ChangeCreated}, true
	case ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return Change{}, false
		}
		return Change{Key: key, Type: ChangeUpdated}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Change{Key: key, Type: ChangeDeleted}, true
	}
	return Change{}, false
}

// Run delivers batches of changes to handle until ctx is done or handle
// fails. Within a batch each key appears once with its latest change, and
// keys are sorted.
func (w *Watcher) Run(ctx context.Context, handle func(context.Context, []Change) error) error {
	pending := make(map[string]ChangeType)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			change, ok := w.handleEvent(ev)
			if !ok {
				continue
			}
			pending[change.Key] = change.Type
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]Change, 0, len(pending))
			for key, typ := range pending {
				batch = append(batch, Change{Key: key, Type: typ})
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].Key < batch[j].Key })
			clear(pending)
			if err := handle(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Keys returns the keys of changes.
func Keys(changes []Change) []string {
	keys := make([]string, len(changes))
	for i, c := range changes {
		keys[i] = c.Key
	}
	return keys
}
