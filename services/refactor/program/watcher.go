// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package program

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
)

// Change reports that a source file was written, created or removed.
type Change struct {
	// Path is absolute.
	Path string

	// Removed is true when the last event seen for Path removed or
	// renamed it.
	Removed bool
}

// ChangeHandler receives one debounced batch of changes.
type ChangeHandler func(changes []Change)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// DebounceWindow is the quiet period after the last event before a
	// batch is delivered.
	DebounceWindow time.Duration

	// IgnoreDirs are directory names never descended into.
	IgnoreDirs []string

	// MaxPending caps the distinct paths held between flushes. Reaching
	// it flushes early.
	MaxPending int
}

// DefaultWatcherOptions returns defaults for JavaScript workspaces.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		DebounceWindow: 100 * time.Millisecond,
		IgnoreDirs:     []string{".git", "node_modules", "dist", "build", ".next", "coverage"},
		MaxPending:     1000,
	}
}

// Watcher reports changes to JSX and TSX sources under a directory tree.
//
// Only files with a known dialect are reported. Directories created while
// watching are added as they appear.
type Watcher struct {
	root     string
	opts     WatcherOptions
	onChange ChangeHandler
	logger   *slog.Logger
	ignore   map[string]bool
}

// NewWatcher creates a watcher for root. Nothing is watched until Run.
func NewWatcher(root string, onChange ChangeHandler, opts WatcherOptions, logger *slog.Logger) *Watcher {
	defaults := DefaultWatcherOptions()
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaults.DebounceWindow
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = defaults.MaxPending
	}
	if logger == nil {
		logger = slog.Default()
	}
	ignore := make(map[string]bool, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		ignore[d] = true
	}
	return &Watcher{
		root:     root,
		opts:     opts,
		onChange: onChange,
		logger:   logger.With(slog.String("component", "program.watcher")),
		ignore:   ignore,
	}
}

// Run watches until ctx is done, delivering batches to the handler from
// the calling goroutine. Pending changes are flushed before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.watchTree(fsw, w.root); err != nil {
		return err
	}

	var (
		pending = newPendingSet()
		timer   = time.NewTimer(w.opts.DebounceWindow)
	)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		if pending.len() == 0 {
			return
		}
		if changes := pending.drain(); w.onChange != nil {
			w.onChange(changes)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				flush()
				return nil
			}
			if w.handleEvent(fsw, event, pending) {
				timer.Reset(w.opts.DebounceWindow)
			}
			if pending.len() >= w.opts.MaxPending {
				flush()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				flush()
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			flush()
		}
	}
}

// handleEvent records event and reports whether a source file changed.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, pending *pendingSet) bool {
	if w.ignored(event.Name) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(fsw, event.Name); err != nil {
				w.logger.Warn("watch new directory failed",
					slog.String("path", event.Name),
					slog.String("error", err.Error()))
			}
			return false
		}
	}
	if ast.DialectForFile(event.Name) == ast.DialectUnknown {
		return false
	}
	if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
		return false
	}
	pending.add(event.Name, event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename))
	return true
}

func (w *Watcher) watchTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.ignore[d.Name()] {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// ignored reports whether path lies under an ignored directory.
func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.ignore[part] {
			return true
		}
	}
	return false
}

// pendingSet coalesces events per path, keeping first-seen order and the
// latest removal state.
type pendingSet struct {
	order   []string
	removed map[string]bool
}

func newPendingSet() *pendingSet {
	return &pendingSet{removed: make(map[string]bool)}
}

func (s *pendingSet) add(path string, removed bool) {
	if _, ok := s.removed[path]; !ok {
		s.order = append(s.order, path)
	}
	s.removed[path] = removed
}

func (s *pendingSet) len() int {
	return len(s.order)
}

func (s *pendingSet) drain() []Change {
	changes := make([]Change, len(s.order))
	for i, path := range s.order {
		changes[i] = Change{Path: path, Removed: s.removed[path]}
	}
	s.order = s.order[:0]
	clear(s.removed)
	return changes
}
