// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package refactor

import (
	"github.com/AleutianAI/jsxref/services/refactor/registry"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
	"github.com/AleutianAI/jsxref/services/refactor/validate"
)

// Target names a cursor position in a file.
//
// Exactly one of Position or Line/Column locates the cursor. Line and
// Column are 0-indexed, Column counted in bytes.
type Target struct {
	// File is relative to the workspace root, or absolute inside it.
	File string `json:"file" binding:"required"`

	// Position is a byte offset into the file.
	Position *int `json:"position,omitempty"`

	// Line is the 0-indexed line of the cursor.
	Line *int `json:"line,omitempty"`

	// Column is the 0-indexed byte column of the cursor.
	Column *int `json:"column,omitempty"`

	// Content replaces the on-disk text for this request only.
	Content *string `json:"content,omitempty"`
}

// ActionsRequest is the request body for POST /v1/refactor/actions.
type ActionsRequest struct {
	Target

	// Kind restricts results to an action kind or a dotted prefix of one.
	Kind string `json:"kind,omitempty"`
}

// ActionsResponse is the response for POST /v1/refactor/actions.
type ActionsResponse struct {
	File     string `json:"file"`
	Position int    `json:"position"`

	// Refactors is never null.
	Refactors []registry.ApplicableRefactorInfo `json:"refactors"`
}

// EditsRequest is the request body for POST /v1/refactor/edits and
// POST /v1/refactor/preview.
type EditsRequest struct {
	Target

	Refactor string `json:"refactor" binding:"required"`
	Action   string `json:"action" binding:"required"`

	// Diff adds a unified diff per file to the response.
	Diff bool `json:"diff,omitempty"`

	// Verify re-parses the rewritten file and reports the result.
	Verify bool `json:"verify,omitempty"`
}

// EditsResponse is the response for POST /v1/refactor/edits.
type EditsResponse struct {
	File     string `json:"file"`
	Position int    `json:"position"`

	// Applicable is false when the refactoring declined at Position.
	Applicable bool `json:"applicable"`

	Edits []textedit.FileTextChanges `json:"edits,omitempty"`

	// Diffs maps file name to unified diff.
	Diffs map[string]string `json:"diffs,omitempty"`

	// Verification holds one round-trip report per file.
	Verification []*validate.Report `json:"verification,omitempty"`

	// Hashes maps file name to the SHA-256 of the text the edits were
	// computed against.
	Hashes map[string]string `json:"hashes,omitempty"`
}

// RefactorDescriptor describes one registered refactoring.
type RefactorDescriptor struct {
	Name    string                        `json:"name"`
	Actions []registry.RefactorActionInfo `json:"actions"`
}

// RefactorsResponse is the response for GET /v1/refactor/refactors.
type RefactorsResponse struct {
	Refactors []RefactorDescriptor `json:"refactors"`
	Kinds     []string             `json:"kinds"`
}

// HealthResponse is the response for GET /v1/refactor/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Root        string `json:"root"`
	CachedFiles int    `json:"cached_files"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context.
	Details string `json:"details,omitempty"`
}
