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
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/program"
	"github.com/AleutianAI/jsxref/services/refactor/registry"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
	"github.com/AleutianAI/jsxref/services/refactor/useref"
)

const fooSource = "function Foo() {\n  return <div className=\"x\">Hi</div>;\n}\n"

const fooRewritten = "function Foo() {\nconst ref = React.useRef<HTMLDivElement>(null);\n\n  return <div ref={ref} className=\"x\">Hi</div>;\n}\n"

func intPtr(i int) *int { return &i }

func newTestService(t *testing.T) (string, *Service) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Foo.tsx"), []byte(fooSource), 0644))

	prog, err := program.New(dir)
	require.NoError(t, err)
	reg, err := NewDefaultRegistry(nil)
	require.NoError(t, err)
	applier, err := textedit.NewApplier(prog.Root(), textedit.DefaultApplyOptions())
	require.NoError(t, err)

	return dir, NewService(prog, reg, WithApplier(applier))
}

func divOffset() int {
	return strings.Index(fooSource, "<div")
}

func TestService_Actions(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Actions(ctx, ActionsRequest{Target: Target{File: "Foo.tsx", Position: intPtr(divOffset())}})
	require.NoError(t, err)
	require.Len(t, resp.Refactors, 1)
	assert.Equal(t, useref.RefactorName, resp.Refactors[0].Name)
	assert.Equal(t, useref.ActionKind, resp.Refactors[0].Actions[0].Kind)

	// Cursor on the keyword "function" is not a JSX element.
	resp, err = svc.Actions(ctx, ActionsRequest{Target: Target{File: "Foo.tsx", Position: intPtr(0)}})
	require.NoError(t, err)
	assert.NotNil(t, resp.Refactors)
	assert.Empty(t, resp.Refactors)

	resp, err = svc.Actions(ctx, ActionsRequest{
		Target: Target{File: "Foo.tsx", Position: intPtr(divOffset())},
		Kind:   "refactor.extract",
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Refactors)
}

func TestService_Actions_LineColumn(t *testing.T) {
	_, svc := newTestService(t)

	resp, err := svc.Actions(context.Background(), ActionsRequest{
		Target: Target{File: "Foo.tsx", Line: intPtr(1), Column: intPtr(9)},
	})
	require.NoError(t, err)
	assert.Equal(t, divOffset(), resp.Position)
	assert.Len(t, resp.Refactors, 1)
}

func TestService_TargetErrors(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		target Target
		want   error
	}{
		{"missing file", Target{File: "Nope.tsx", Position: intPtr(0)}, program.ErrFileNotFound},
		{"outside root", Target{File: "../x.tsx", Position: intPtr(0)}, program.ErrOutsideRoot},
		{"unsupported dialect", Target{File: "main.go", Position: intPtr(0), Content: new(string)}, ast.ErrUnsupportedDialect},
		{"no position", Target{File: "Foo.tsx"}, ErrMissingPosition},
		{"line out of range", Target{File: "Foo.tsx", Line: intPtr(40), Column: intPtr(0)}, ast.ErrOffsetOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Actions(ctx, ActionsRequest{Target: tt.target})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestService_Edits(t *testing.T) {
	_, svc := newTestService(t)

	resp, err := svc.Edits(context.Background(), EditsRequest{
		Target:   Target{File: "Foo.tsx", Position: intPtr(divOffset())},
		Refactor: useref.RefactorName,
		Action:   useref.ActionName,
		Diff:     true,
		Verify:   true,
	})
	require.NoError(t, err)
	require.True(t, resp.Applicable)
	require.Len(t, resp.Edits, 1)
	assert.Equal(t, "Foo.tsx", resp.Edits[0].FileName)
	assert.Len(t, resp.Edits[0].TextChanges, 2)

	assert.Equal(t, textedit.HashContent([]byte(fooSource)), resp.Hashes["Foo.tsx"])
	assert.Contains(t, resp.Diffs["Foo.tsx"], "+const ref = React.useRef<HTMLDivElement>(null);")

	require.Len(t, resp.Verification, 1)
	assert.True(t, resp.Verification[0].OK())
	assert.Equal(t, fooRewritten, resp.Verification[0].NewText)
}

func TestService_Edits_NotApplicable(t *testing.T) {
	_, svc := newTestService(t)

	resp, err := svc.Edits(context.Background(), EditsRequest{
		Target:   Target{File: "Foo.tsx", Position: intPtr(len(fooSource) + 10)},
		Refactor: useref.RefactorName,
		Action:   useref.ActionName,
	})
	require.NoError(t, err)
	assert.False(t, resp.Applicable)
	assert.Empty(t, resp.Edits)
}

func TestService_Edits_UntypedFile(t *testing.T) {
	dir, svc := newTestService(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Foo.jsx"), []byte(fooSource), 0644))

	resp, err := svc.Edits(context.Background(), EditsRequest{
		Target:   Target{File: "Foo.jsx", Position: intPtr(divOffset())},
		Refactor: useref.RefactorName,
		Action:   useref.ActionName,
	})
	require.NoError(t, err)
	assert.False(t, resp.Applicable)
	assert.Empty(t, resp.Edits)
}

func TestService_Edits_UnknownNames(t *testing.T) {
	_, svc := newTestService(t)
	target := Target{File: "Foo.tsx", Position: intPtr(divOffset())}

	_, err := svc.Edits(context.Background(), EditsRequest{Target: target, Refactor: "Inline variable", Action: "x"})
	assert.True(t, errors.Is(err, registry.ErrUnknownRefactor))

	_, err = svc.Edits(context.Background(), EditsRequest{Target: target, Refactor: useref.RefactorName, Action: "x"})
	assert.True(t, errors.Is(err, registry.ErrUnknownAction))
}

func TestService_Edits_RequestContent(t *testing.T) {
	_, svc := newTestService(t)
	content := "const Field = () => {\n  return <input />;\n};\n"

	resp, err := svc.Preview(context.Background(), EditsRequest{
		Target: Target{
			File:     "Foo.tsx",
			Position: intPtr(strings.Index(content, "<input")),
			Content:  &content,
		},
		Refactor: useref.RefactorName,
		Action:   useref.ActionName,
	})
	require.NoError(t, err)
	require.True(t, resp.Applicable)
	assert.Contains(t, resp.Verification[0].NewText, "React.useRef<HTMLInputElement>(null)")

	// The workspace copy is untouched.
	tree, ok := svc.Program().GetSourceFile("Foo.tsx")
	require.True(t, ok)
	assert.Equal(t, fooSource, tree.Text())
}

func TestService_Apply(t *testing.T) {
	dir, svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Edits(ctx, EditsRequest{
		Target:   Target{File: "Foo.tsx", Position: intPtr(divOffset())},
		Refactor: useref.RefactorName,
		Action:   useref.ActionName,
	})
	require.NoError(t, err)

	results, err := svc.Apply(ctx, resp)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Applied)

	data, err := os.ReadFile(filepath.Join(dir, "Foo.tsx"))
	require.NoError(t, err)
	assert.Equal(t, fooRewritten, string(data))

	// The same edits no longer match the file on disk.
	_, err = svc.Apply(ctx, resp)
	assert.True(t, errors.Is(err, textedit.ErrStaleContent))
}

// rewritingRefactor rewrites its file on disk right after computing edits,
// as an editor saving mid-request would.
type rewritingRefactor struct {
	*useref.Refactor
	path    string
	content string
}

func (r *rewritingRefactor) GetEditsForAction(ctx context.Context, rc *registry.Context, actionName string) *registry.RefactorEditInfo {
	info := r.Refactor.GetEditsForAction(ctx, rc, actionName)
	if err := os.WriteFile(r.path, []byte(r.content), 0644); err != nil {
		panic(err)
	}
	return info
}

func TestService_Apply_FileChangedDuringEdits(t *testing.T) {
	dir, full := newTestService(t)
	ctx := context.Background()
	path := filepath.Join(dir, "Foo.tsx")
	changed := "// added line\n" + fooSource

	reg := registry.New()
	require.NoError(t, reg.Register(useref.RefactorName, &rewritingRefactor{
		Refactor: useref.New(),
		path:     path,
		content:  changed,
	}))
	reg.Seal()
	svc := NewService(full.program, reg, WithApplier(full.applier))

	resp, err := svc.Edits(ctx, EditsRequest{
		Target:   Target{File: "Foo.tsx", Position: intPtr(divOffset())},
		Refactor: useref.RefactorName,
		Action:   useref.ActionName,
		Diff:     true,
		Verify:   true,
	})
	require.NoError(t, err)
	require.True(t, resp.Applicable)

	// Hash, diff and verification describe the text the spans came from.
	assert.Equal(t, textedit.HashContent([]byte(fooSource)), resp.Hashes["Foo.tsx"])
	require.Len(t, resp.Verification, 1)
	assert.Equal(t, fooRewritten, resp.Verification[0].NewText)

	_, err = svc.Apply(ctx, resp)
	assert.True(t, errors.Is(err, textedit.ErrStaleContent), "got %v", err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, changed, string(data))
}

func TestService_Apply_WithoutApplier(t *testing.T) {
	_, full := newTestService(t)
	svc := NewService(full.program, full.registry)

	_, err := svc.Apply(context.Background(), &EditsResponse{Applicable: true})
	assert.True(t, errors.Is(err, ErrNoApplier))
}

func TestService_RefactorsAndHealth(t *testing.T) {
	_, svc := newTestService(t)

	refs := svc.Refactors()
	require.Len(t, refs.Refactors, 1)
	assert.Equal(t, useref.RefactorName, refs.Refactors[0].Name)
	assert.Equal(t, []string{useref.ActionKind}, refs.Kinds)

	h := svc.Health()
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, ServiceVersion, h.Version)
}
