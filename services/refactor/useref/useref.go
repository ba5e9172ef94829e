// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package useref implements the "Add React useRef to Component" refactoring.
//
// With the cursor on a markup element inside a function component, the
// refactoring declares a typed reference at the top of the component body:
//
//	const ref = React.useRef<HTMLDivElement>(null);
//
// and attaches it to the element as ref={ref}.
//
// Every "not applicable" outcome is reported as an empty action list or a
// nil edit result, never as an error, because hosts poll the discovery path
// on every cursor move.
//
// Thread Safety:
//
//	Refactor holds no mutable state and is safe for concurrent use.
package useref

import (
	"context"
	"log/slog"
	"time"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/registry"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

const (
	// RefactorName is the registry name and the action name.
	RefactorName = "Add React useRef to Component"

	// ActionName identifies the single action.
	ActionName = RefactorName

	// ActionDescription is shown to users.
	ActionDescription = "Add React useRef to Component"

	// ActionKind is used by hosts to filter refactorings.
	ActionKind = "refactor.react.addUseRef"
)

// Action is the single action of the refactoring.
var Action = registry.RefactorActionInfo{
	Name:        ActionName,
	Description: ActionDescription,
	Kind:        ActionKind,
}

// DeclineReason explains why the refactoring does not apply.
type DeclineReason int

const (
	// Applicable means the refactoring applies.
	Applicable DeclineReason = iota
	DeclineUntypedFile
	DeclineNoSourceFile
	DeclineOutOfRange
	DeclineNotRefTarget
	DeclineNoEnclosingFunction
	DeclineExpressionBody
)

var declineNames = map[DeclineReason]string{
	Applicable:                 "applicable",
	DeclineUntypedFile:         "untyped_file",
	DeclineNoSourceFile:        "no_source_file",
	DeclineOutOfRange:          "out_of_range",
	DeclineNotRefTarget:        "not_ref_target",
	DeclineNoEnclosingFunction: "no_enclosing_function",
	DeclineExpressionBody:      "expression_body",
}

func (r DeclineReason) String() string {
	if name, ok := declineNames[r]; ok {
		return name
	}
	return "unknown"
}

// Option configures a Refactor.
type Option func(*Refactor)

// WithLogger sets the logger used for decline diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refactor) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Refactor implements registry.Refactor.
type Refactor struct {
	logger *slog.Logger
}

// New creates the refactoring.
func New(opts ...Option) *Refactor {
	r := &Refactor{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("refactor", ActionKind))
	return r
}

// Register adds the refactoring to reg under RefactorName.
func Register(reg *registry.Registry, opts ...Option) error {
	return reg.Register(RefactorName, New(opts...))
}

// Kinds implements registry.Refactor.
func (r *Refactor) Kinds() []string {
	return []string{ActionKind}
}

// Actions implements registry.Refactor.
func (r *Refactor) Actions() []registry.RefactorActionInfo {
	return []registry.RefactorActionInfo{Action}
}

// IsAvailable is the cheap gate behind the discovery path.
//
// Description:
//
//	Declines files in an untyped dialect, then checks that the node at the
//	cursor is a markup element. No type resolution is performed.
func (r *Refactor) IsAvailable(rc *registry.Context) (bool, DeclineReason) {
	if rc == nil || rc.File == nil {
		return false, DeclineNoSourceFile
	}
	if rc.File.Dialect().IsUntyped() {
		return false, DeclineUntypedFile
	}
	node, ok := Locate(rc.File, rc.StartPosition)
	if !ok {
		return false, DeclineOutOfRange
	}
	if !IsRefTarget(node) {
		return false, DeclineNotRefTarget
	}
	return true, Applicable
}

// GetAvailableActions implements registry.Refactor.
//
// Returns an empty, non-nil slice when the refactoring does not apply.
func (r *Refactor) GetAvailableActions(ctx context.Context, rc *registry.Context) []registry.ApplicableRefactorInfo {
	ctx, span := startSpan(ctx, "useref.GetAvailableActions", describe(rc))
	defer span.End()
	start := time.Now()

	ok, reason := r.IsAvailable(rc)
	recordInvocation(ctx, "available", reason, time.Since(start))
	if !ok {
		r.logDecline(ctx, "available", reason, rc)
		return []registry.ApplicableRefactorInfo{}
	}

	return []registry.ApplicableRefactorInfo{{
		Name:        RefactorName,
		Description: ActionDescription,
		Actions:     []registry.RefactorActionInfo{Action},
	}}
}

// GetEditsForAction implements registry.Refactor.
//
// Returns nil when the refactoring does not apply at rc.
func (r *Refactor) GetEditsForAction(ctx context.Context, rc *registry.Context, actionName string) *registry.RefactorEditInfo {
	ctx, span := startSpan(ctx, "useref.GetEditsForAction", describe(rc))
	defer span.End()
	start := time.Now()

	info, reason := r.edits(rc)
	recordInvocation(ctx, "edits", reason, time.Since(start))
	if info == nil {
		r.logDecline(ctx, "edits", reason, rc)
	}
	return info
}

// Plan is the resolved shape of one application of the refactoring.
type Plan struct {
	Element  ast.Node
	Function ast.Node
	Body     ast.Node
	TypeName string
}

// Resolve runs the locator, classifier, scope finder and type resolver
// against the program's tree for rc.File.
func Resolve(rc *registry.Context) (*Plan, DeclineReason) {
	if rc == nil || rc.File == nil || rc.Program == nil {
		return nil, DeclineNoSourceFile
	}
	tree, ok := rc.Program.GetSourceFile(rc.File.FileName())
	if !ok || tree == nil {
		return nil, DeclineNoSourceFile
	}

	node, ok := Locate(tree, rc.StartPosition)
	if !ok {
		return nil, DeclineOutOfRange
	}
	if !IsRefTarget(node) {
		return nil, DeclineNotRefTarget
	}

	fn, ok := EnclosingFunction(node)
	if !ok {
		return nil, DeclineNoEnclosingFunction
	}
	body, ok := BlockBody(fn)
	if !ok {
		return nil, DeclineExpressionBody
	}

	return &Plan{
		Element:  node,
		Function: fn,
		Body:     body,
		TypeName: ElementTypeName(node, rc.Program.GetTypeChecker()),
	}, Applicable
}

func (r *Refactor) edits(rc *registry.Context) (*registry.RefactorEditInfo, DeclineReason) {
	plan, reason := Resolve(rc)
	if plan == nil {
		return nil, reason
	}
	changes := SynthesizeEdits(rc.File.FileName(), plan.Element, plan.Body, plan.TypeName)
	return &registry.RefactorEditInfo{Edits: []textedit.FileTextChanges{changes}}, Applicable
}

func (r *Refactor) logDecline(ctx context.Context, path string, reason DeclineReason, rc *registry.Context) {
	d := describe(rc)
	r.logger.DebugContext(ctx, "refactor declined",
		slog.String("path", path),
		slog.String("reason", reason.String()),
		slog.String("file", d.file),
		slog.Int("offset", d.offset))
}

func describe(rc *registry.Context) fileAndOffset {
	if rc == nil || rc.File == nil {
		return fileAndOffset{}
	}
	return fileAndOffset{file: rc.File.FileName(), offset: rc.StartPosition}
}
