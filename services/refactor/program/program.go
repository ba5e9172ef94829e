// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package program is the refactoring host's view of a workspace.
//
// A Program parses source files on demand, caches their trees, lets
// editors substitute unsaved buffers through overlays, and drops cached
// trees when files change on disk.
//
// Thread Safety:
//
//	Program is safe for concurrent use. Trees it returns are immutable.
package program

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/checker"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

var (
	// ErrFileNotFound is returned when a file has neither an overlay nor
	// an on-disk source.
	ErrFileNotFound = errors.New("source file not found")

	// ErrOutsideRoot is returned for paths that resolve outside the
	// workspace root.
	ErrOutsideRoot = errors.New("path outside workspace root")
)

// Option configures a Program.
type Option func(*Program)

// WithParser sets the parser used for every file.
func WithParser(p *ast.Parser) Option {
	return func(pr *Program) {
		if p != nil {
			pr.parser = p
		}
	}
}

// WithChecker sets the semantic model returned by GetTypeChecker.
func WithChecker(tc checker.TypeChecker) Option {
	return func(pr *Program) {
		if tc != nil {
			pr.checker = tc
		}
	}
}

// WithWatcherOptions configures the watcher started by Watch.
func WithWatcherOptions(opts WatcherOptions) Option {
	return func(pr *Program) {
		pr.watchOpts = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(pr *Program) {
		if logger != nil {
			pr.logger = logger
		}
	}
}

type cacheEntry struct {
	tree    *ast.SourceTree
	modTime time.Time
	size    int64
}

// Program implements registry.Program over a directory tree.
type Program struct {
	root      string
	parser    *ast.Parser
	checker   checker.TypeChecker
	watchOpts WatcherOptions
	logger    *slog.Logger

	mu       sync.RWMutex
	cache    map[string]*cacheEntry
	overlays map[string][]byte
}

// New creates a Program rooted at root.
//
// Inputs:
//
//	root - Workspace directory. Relative roots are made absolute.
//	opts - Optional parser, checker, watcher and logger overrides.
//
// Outputs:
//
//	*Program - Ready to use
//	error - Non-nil if root does not name a directory
func New(root string, opts ...Option) (*Program, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", abs)
	}

	p := &Program{
		root:      abs,
		watchOpts: DefaultWatcherOptions(),
		logger:    slog.Default(),
		cache:     make(map[string]*cacheEntry),
		overlays:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.parser == nil {
		p.parser = ast.NewParser()
	}
	if p.checker == nil {
		p.checker = checker.New()
	}
	p.logger = p.logger.With(slog.String("component", "program"))
	return p, nil
}

// Root returns the absolute workspace root.
func (p *Program) Root() string {
	return p.root
}

// Parser returns the parser used for every file.
func (p *Program) Parser() *ast.Parser {
	return p.parser
}

// GetTypeChecker implements registry.Program.
func (p *Program) GetTypeChecker() checker.TypeChecker {
	return p.checker
}

// GetSourceFile implements registry.Program.
//
// Load failures are logged and reported as absent.
func (p *Program) GetSourceFile(fileName string) (*ast.SourceTree, bool) {
	tree, err := p.LoadSourceFile(context.Background(), fileName)
	if err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			p.logger.Warn("load source file failed",
				slog.String("file", fileName),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return tree, true
}

// LoadSourceFile returns the tree for fileName, parsing it if the cached
// tree is missing or stale.
//
// Description:
//
//	An overlay takes precedence over the file on disk. A cached on-disk
//	tree is reused while the file's size and modification time are
//	unchanged. The returned tree's FileName is fileName as given.
//
// Outputs:
//
//	*ast.SourceTree - The parsed tree
//	error - ErrOutsideRoot, ErrFileNotFound, or a parse error
func (p *Program) LoadSourceFile(ctx context.Context, fileName string) (*ast.SourceTree, error) {
	key, err := p.resolve(fileName)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	overlay, hasOverlay := p.overlays[key]
	cached := p.cache[key]
	p.mu.RUnlock()

	if hasOverlay {
		if cached != nil && cached.modTime.IsZero() && cached.tree.FileName() == fileName {
			return cached.tree, nil
		}
		tree, err := p.parser.Parse(ctx, fileName, overlay)
		if err != nil {
			return nil, err
		}
		p.store(key, &cacheEntry{tree: tree})
		return tree, nil
	}

	info, err := os.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, fileName)
		}
		return nil, fmt.Errorf("stat %s: %w", fileName, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, fileName)
	}

	if cached != nil && !cached.modTime.IsZero() &&
		cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() &&
		cached.tree.FileName() == fileName {
		return cached.tree, nil
	}

	content, err := os.ReadFile(key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	tree, err := p.parser.Parse(ctx, fileName, content)
	if err != nil {
		return nil, err
	}
	p.store(key, &cacheEntry{tree: tree, modTime: info.ModTime(), size: info.Size()})
	return tree, nil
}

// ParseContent parses content as fileName without touching the cache or
// overlays. fileName must still resolve inside the root.
func (p *Program) ParseContent(ctx context.Context, fileName string, content []byte) (*ast.SourceTree, error) {
	if _, err := p.resolve(fileName); err != nil {
		return nil, err
	}
	return p.parser.Parse(ctx, fileName, content)
}

// SetOverlay substitutes content for the file's on-disk source.
func (p *Program) SetOverlay(fileName string, content []byte) error {
	key, err := p.resolve(fileName)
	if err != nil {
		return err
	}
	buf := make([]byte, len(content))
	copy(buf, content)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.overlays[key] = buf
	delete(p.cache, key)
	return nil
}

// ClearOverlay reverts the file to its on-disk source.
func (p *Program) ClearOverlay(fileName string) {
	key, err := p.resolve(fileName)
	if err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.overlays[key]; ok {
		delete(p.overlays, key)
		delete(p.cache, key)
	}
}

// Invalidate drops the cached tree for fileName. Overlays are kept.
func (p *Program) Invalidate(fileName string) {
	key, err := p.resolve(fileName)
	if err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.cache[key]; ok && !entry.modTime.IsZero() {
		delete(p.cache, key)
	}
}

// CachedFiles returns the number of cached trees.
func (p *Program) CachedFiles() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}

// Watch invalidates cached trees when files under the root change.
//
// Blocks until ctx is done.
func (p *Program) Watch(ctx context.Context) error {
	w := NewWatcher(p.root, p.handleChanges, p.watchOpts, p.logger)
	p.logger.Info("watching workspace", slog.String("root", p.root))
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watching %s: %w", p.root, err)
	}
	return nil
}

func (p *Program) handleChanges(changes []Change) {
	for _, c := range changes {
		if ast.DialectForFile(c.Path) == ast.DialectUnknown {
			continue
		}
		p.Invalidate(c.Path)
		p.logger.Debug("invalidated source file",
			slog.String("path", c.Path),
			slog.Bool("removed", c.Removed))
	}
}

func (p *Program) store(key string, entry *cacheEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[key] = entry
}

// resolve maps fileName to a clean absolute path inside the root. Links
// that lead out of the root are rejected.
func (p *Program) resolve(fileName string) (string, error) {
	path := fileName
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.root, path)
	}
	path = filepath.Clean(path)

	if !textedit.Within(p.root, path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, fileName)
	}
	return path, nil
}
