// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package refactor is the jsxref refactoring service.
//
// Service resolves cursor targets against a workspace Program and runs
// registered refactorings. Handlers expose it over HTTP; the jsxref CLI
// calls it directly.
package refactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/checker"
	"github.com/AleutianAI/jsxref/services/refactor/program"
	"github.com/AleutianAI/jsxref/services/refactor/registry"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
	"github.com/AleutianAI/jsxref/services/refactor/useref"
	"github.com/AleutianAI/jsxref/services/refactor/validate"
)

// ServiceVersion is reported by the health endpoint and telemetry.
const ServiceVersion = "0.3.0"

var (
	// ErrMissingPosition is returned when a Target has neither Position
	// nor both Line and Column.
	ErrMissingPosition = errors.New("target needs position or line and column")

	// ErrNoApplier is returned by Apply when the service was built
	// without an applier.
	ErrNoApplier = errors.New("service has no applier")
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithApplier enables Apply.
func WithApplier(a *textedit.Applier) ServiceOption {
	return func(s *Service) {
		s.applier = a
	}
}

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs refactorings against a workspace.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Request content never touches
//	the Program's shared overlays.
type Service struct {
	program  *program.Program
	registry *registry.Registry
	applier  *textedit.Applier
	logger   *slog.Logger
}

// NewService creates a service over prog and reg.
func NewService(prog *program.Program, reg *registry.Registry, opts ...ServiceOption) *Service {
	s := &Service{
		program:  prog,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDefaultRegistry returns a sealed registry holding every built-in
// refactoring.
func NewDefaultRegistry(logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.New()
	if err := useref.Register(reg, useref.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("registering %q: %w", useref.RefactorName, err)
	}
	reg.Seal()
	return reg, nil
}

// Program returns the workspace.
func (s *Service) Program() *program.Program {
	return s.program
}

// Actions lists the refactorings applicable at the target.
func (s *Service) Actions(ctx context.Context, req ActionsRequest) (*ActionsResponse, error) {
	rc, err := s.context(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	return &ActionsResponse{
		File:      req.File,
		Position:  rc.StartPosition,
		Refactors: s.registry.GetApplicableRefactors(ctx, rc, req.Kind),
	}, nil
}

// Edits computes the edits for one action at the target.
//
// Description:
//
//	A refactoring that declines yields Applicable false with no error.
//	Unknown refactor or action names are errors. When req.Diff or
//	req.Verify is set, each edited file is diffed or round-tripped
//	against the text the edits were computed from.
//
// Outputs:
//
//	*EditsResponse - Never nil when error is nil
//	error - Target resolution failures, registry.ErrUnknownRefactor,
//	        registry.ErrUnknownAction, or diff/verify failures
func (s *Service) Edits(ctx context.Context, req EditsRequest) (*EditsResponse, error) {
	rc, err := s.context(ctx, req.Target)
	if err != nil {
		return nil, err
	}

	if _, err := s.registry.Lookup(req.Refactor, req.Action); err != nil {
		return nil, err
	}
	resp := &EditsResponse{File: req.File, Position: rc.StartPosition}

	// Edits are only computed for actions discovery offers at the position.
	offered := s.registry.GetApplicableRefactors(ctx, rc, "")
	if !registry.Offered(offered, req.Refactor, req.Action) {
		return resp, nil
	}

	info, err := s.registry.GetEditsForRefactor(ctx, rc, req.Refactor, req.Action)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return resp, nil
	}
	resp.Applicable = true
	resp.Edits = info.Edits
	resp.Hashes = make(map[string]string, len(info.Edits))

	// rc.Program pins rc.File, so hashes, diffs and verification see the
	// same text the spans were computed against.
	for _, fc := range info.Edits {
		tree, ok := rc.Program.GetSourceFile(fc.FileName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", program.ErrFileNotFound, fc.FileName)
		}
		original := tree.Text()
		resp.Hashes[fc.FileName] = tree.Hash()

		if req.Diff {
			d, err := textedit.UnifiedDiffForChanges(fc.FileName, original, fc.TextChanges)
			if err != nil {
				return nil, fmt.Errorf("diff %s: %w", fc.FileName, err)
			}
			if resp.Diffs == nil {
				resp.Diffs = make(map[string]string)
			}
			resp.Diffs[fc.FileName] = d
		}

		if req.Verify {
			report, err := validate.CheckRoundTrip(ctx, s.program.Parser(), fc.FileName, original, fc.TextChanges, useref.RefIdentifier)
			if err != nil {
				return nil, fmt.Errorf("verify %s: %w", fc.FileName, err)
			}
			resp.Verification = append(resp.Verification, report)
		}
	}
	return resp, nil
}

// Preview is Edits with diffs and verification always on.
func (s *Service) Preview(ctx context.Context, req EditsRequest) (*EditsResponse, error) {
	req.Diff = true
	req.Verify = true
	return s.Edits(ctx, req)
}

// Apply writes an applicable EditsResponse to disk.
//
// Each file is checked against the hash its edits were computed from, so
// a file changed since then is rejected with textedit.ErrStaleContent.
func (s *Service) Apply(ctx context.Context, resp *EditsResponse) ([]*textedit.ApplyResult, error) {
	if s.applier == nil {
		return nil, ErrNoApplier
	}
	if resp == nil || !resp.Applicable {
		return nil, nil
	}

	results := make([]*textedit.ApplyResult, 0, len(resp.Edits))
	var errs []error
	for _, fc := range textedit.Merge(resp.Edits) {
		res, err := s.applier.ApplyChecked(ctx, fc, resp.Hashes[fc.FileName])
		results = append(results, res)
		if err != nil {
			s.logger.Warn("apply failed",
				slog.String("file", fc.FileName),
				slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		s.program.Invalidate(fc.FileName)
	}
	return results, errors.Join(errs...)
}

// Refactors describes the registry.
func (s *Service) Refactors() *RefactorsResponse {
	resp := &RefactorsResponse{
		Refactors: []RefactorDescriptor{},
		Kinds:     s.registry.Kinds(),
	}
	for _, name := range s.registry.Names() {
		r, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		resp.Refactors = append(resp.Refactors, RefactorDescriptor{Name: name, Actions: r.Actions()})
	}
	return resp
}

// Health reports service status.
func (s *Service) Health() *HealthResponse {
	return &HealthResponse{
		Status:      "healthy",
		Version:     ServiceVersion,
		Root:        s.program.Root(),
		CachedFiles: s.program.CachedFiles(),
	}
}

// context resolves a Target to a RefactorContext.
func (s *Service) context(ctx context.Context, t Target) (*registry.Context, error) {
	var (
		tree *ast.SourceTree
		err  error
	)
	if t.Content != nil {
		tree, err = s.program.ParseContent(ctx, t.File, []byte(*t.Content))
	} else {
		tree, err = s.program.LoadSourceFile(ctx, t.File)
	}
	if err != nil {
		return nil, err
	}

	pos, err := position(tree, t)
	if err != nil {
		return nil, err
	}

	return &registry.Context{
		File:          tree,
		StartPosition: pos,
		Program:       &snapshotProgram{tree: tree, base: s.program},
	}, nil
}

func position(tree *ast.SourceTree, t Target) (int, error) {
	if t.Position != nil {
		return *t.Position, nil
	}
	if t.Line == nil || t.Column == nil {
		return 0, ErrMissingPosition
	}
	return tree.OffsetAt(*t.Line, *t.Column)
}

// snapshotProgram serves the tree a request was resolved against in front
// of the workspace. Every read of that file within the request sees one
// version of its text, whether it came from the request or from disk.
type snapshotProgram struct {
	tree *ast.SourceTree
	base *program.Program
}

func (p *snapshotProgram) GetSourceFile(fileName string) (*ast.SourceTree, bool) {
	if fileName == p.tree.FileName() {
		return p.tree, true
	}
	return p.base.GetSourceFile(fileName)
}

func (p *snapshotProgram) GetTypeChecker() checker.TypeChecker {
	return p.base.GetTypeChecker()
}
