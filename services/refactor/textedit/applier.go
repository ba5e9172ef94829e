// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package textedit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// =============================================================================
// Apply Options
// =============================================================================

// ApplyOptions configures how changes are written.
type ApplyOptions struct {
	// DryRun computes the result without writing files.
	DryRun bool

	// CreateBackups writes the original content to path+BackupSuffix first.
	CreateBackups bool

	// BackupSuffix is the suffix for backup files (default: ".orig").
	BackupSuffix string
}

// DefaultApplyOptions returns the default options.
func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{
		BackupSuffix: ".orig",
	}
}

// =============================================================================
// Apply Result
// =============================================================================

// ApplyResult describes the outcome of applying one FileTextChanges.
type ApplyResult struct {
	// FilePath is the resolved path of the file.
	FilePath string `json:"filePath"`

	// Success is true when the changes were valid and, unless DryRun,
	// written.
	Success bool `json:"success"`

	// Applied is true when the file on disk was rewritten.
	Applied bool `json:"applied"`

	// Error holds the failure message, if any.
	Error string `json:"error,omitempty"`

	// BackupPath is the backup file, if one was created.
	BackupPath string `json:"backupPath,omitempty"`

	// ChangesApplied is the number of text changes applied.
	ChangesApplied int `json:"changesApplied"`

	// BytesWritten is the size of the new content.
	BytesWritten int64 `json:"bytesWritten"`

	// NewContent is the rewritten content. Populated in every mode so dry
	// runs can be previewed.
	NewContent string `json:"-"`
}

// =============================================================================
// Applier
// =============================================================================

// Applier writes FileTextChanges to disk.
//
// # Description
//
// Each file is rewritten atomically: the new content goes to a temporary
// file in the same directory which is then renamed over the original.
// Paths are confined to the base directory.
//
// # Thread Safety
//
// Applier is safe for concurrent use. Writes to the same file are
// serialized with a per-file lock.
type Applier struct {
	basePath string
	options  ApplyOptions
	logger   *slog.Logger

	fileLocks   map[string]*sync.Mutex
	fileLocksMu sync.Mutex
}

// NewApplier creates an applier rooted at basePath.
//
// # Inputs
//
//   - basePath: Base directory for relative paths. Must be absolute.
//   - options: Configuration options.
//
// # Outputs
//
//   - *Applier: Ready-to-use applier.
//   - error: Non-nil if basePath is not an existing absolute directory.
func NewApplier(basePath string, options ApplyOptions) (*Applier, error) {
	if !filepath.IsAbs(basePath) {
		return nil, fmt.Errorf("basePath must be absolute: %s", basePath)
	}

	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("stat basePath: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("basePath is not a directory: %s", basePath)
	}

	if options.BackupSuffix == "" {
		options.BackupSuffix = ".orig"
	}

	return &Applier{
		basePath:  basePath,
		options:   options,
		logger:    slog.Default().With(slog.String("component", "textedit.applier")),
		fileLocks: make(map[string]*sync.Mutex),
	}, nil
}

// Apply applies one file's changes.
func (a *Applier) Apply(ctx context.Context, fc FileTextChanges) (*ApplyResult, error) {
	return a.ApplyChecked(ctx, fc, "")
}

// ApplyChecked applies one file's changes after confirming the file still
// has the content the changes were computed against.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - fc: The changes; spans refer to the file's current content.
//   - expectedHash: Hex SHA-256 of the content the changes were computed
//     against. Empty skips the check.
//
// # Outputs
//
//   - *ApplyResult: Always non-nil.
//   - error: ErrPathEscapesBase, ErrStaleContent, a validation error from
//     ApplyTextChanges, or an I/O error. The file is untouched on error.
func (a *Applier) ApplyChecked(ctx context.Context, fc FileTextChanges, expectedHash string) (*ApplyResult, error) {
	fullPath := a.resolvePath(fc.FileName)
	result := &ApplyResult{FilePath: fullPath}

	if !a.isPathSafe(fullPath) {
		result.Error = ErrPathEscapesBase.Error()
		return result, fmt.Errorf("%w: %s", ErrPathEscapesBase, fc.FileName)
	}

	lock := a.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return result, err
	}

	current, err := os.ReadFile(fullPath)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("reading file: %w", err)
	}

	if expectedHash != "" && HashContent(current) != expectedHash {
		result.Error = ErrStaleContent.Error()
		return result, fmt.Errorf("%w: %s", ErrStaleContent, fc.FileName)
	}

	newContent, err := ApplyTextChanges(string(current), fc.TextChanges)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("applying changes to %s: %w", fc.FileName, err)
	}
	result.NewContent = newContent
	result.ChangesApplied = len(fc.TextChanges)
	result.BytesWritten = int64(len(newContent))

	if a.options.DryRun {
		result.Success = true
		return result, nil
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("stat file: %w", err)
	}

	if a.options.CreateBackups {
		backupPath := fullPath + a.options.BackupSuffix
		if err := os.WriteFile(backupPath, current, info.Mode().Perm()); err != nil {
			a.logger.Warn("backup failed",
				slog.String("path", backupPath),
				slog.String("error", err.Error()))
		} else {
			result.BackupPath = backupPath
		}
	}

	if err := writeAtomic(fullPath, []byte(newContent), info.Mode().Perm()); err != nil {
		result.Error = err.Error()
		return result, err
	}

	a.logger.Debug("applied text changes",
		slog.String("path", fullPath),
		slog.Int("changes", len(fc.TextChanges)),
		slog.Int64("bytes", result.BytesWritten))

	result.Success = true
	result.Applied = true
	return result, nil
}

// ApplyAll applies each FileTextChanges in order, continuing past failures.
//
// Returns a non-nil error only on context cancellation.
func (a *Applier) ApplyAll(ctx context.Context, edits []FileTextChanges) ([]*ApplyResult, error) {
	results := make([]*ApplyResult, 0, len(edits))
	for _, fc := range Merge(edits) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := a.Apply(ctx, fc)
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func (a *Applier) getFileLock(path string) *sync.Mutex {
	a.fileLocksMu.Lock()
	defer a.fileLocksMu.Unlock()

	if lock, ok := a.fileLocks[path]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	a.fileLocks[path] = lock
	return lock
}

func (a *Applier) resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(a.basePath, name)
}

func (a *Applier) isPathSafe(fullPath string) bool {
	return Within(a.basePath, fullPath)
}

// writeAtomic replaces path with data via a temp file and rename.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
