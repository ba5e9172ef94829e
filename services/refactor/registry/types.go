// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry dispatches cursor-driven refactorings.
//
// A Registry is populated once at startup, sealed, and then queried
// concurrently. Hosts ask it which refactorings apply at a position
// (discovery path) and for the edits of a chosen action (edit path).
//
// Thread Safety:
//
//	Registry is safe for concurrent use. Refactor implementations must be
//	safe for concurrent use once registered.
package registry

import (
	"context"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/checker"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

// Program is the host's view of the files being edited.
type Program interface {
	// GetSourceFile returns the parsed tree for a file.
	GetSourceFile(fileName string) (*ast.SourceTree, bool)

	// GetTypeChecker returns the semantic model.
	GetTypeChecker() checker.TypeChecker
}

// Context is the input to every refactor invocation.
type Context struct {
	// File is the tree the cursor is in.
	File *ast.SourceTree

	// StartPosition is the cursor's byte offset in File.
	StartPosition int

	// Program gives access to the authoritative trees and the checker.
	Program Program
}

// RefactorActionInfo identifies one action of a refactoring.
type RefactorActionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// ApplicableRefactorInfo is one refactoring offered at a position.
type ApplicableRefactorInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Actions     []RefactorActionInfo `json:"actions"`
}

// RefactorEditInfo is the patch produced by an action.
type RefactorEditInfo struct {
	Edits []textedit.FileTextChanges `json:"edits"`
}

// Refactor is a registered refactoring.
type Refactor interface {
	// Kinds lists the action kinds the refactoring can produce.
	Kinds() []string

	// Actions lists every action the refactoring defines.
	Actions() []RefactorActionInfo

	// GetAvailableActions reports the actions offered at rc. It must be
	// cheap and must return an empty, non-nil slice when nothing applies.
	GetAvailableActions(ctx context.Context, rc *Context) []ApplicableRefactorInfo

	// GetEditsForAction computes the edits for actionName. A nil result
	// means the action does not apply at rc.
	GetEditsForAction(ctx context.Context, rc *Context, actionName string) *RefactorEditInfo
}
