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
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const componentText = "function Foo() { return <div>Hi</div>; }\n"

func refChanges(name string) FileTextChanges {
	return FileTextChanges{
		FileName: name,
		TextChanges: []TextChange{
			{Span: TextSpan{Start: 16}, NewText: "\nconst ref = React.useRef<HTMLDivElement>(null);\n"},
			{Span: TextSpan{Start: 24, Length: 5}, NewText: "<div ref={ref}>"},
		},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0640); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewApplier(t *testing.T) {
	t.Run("valid_path", func(t *testing.T) {
		applier, err := NewApplier(t.TempDir(), DefaultApplyOptions())
		if err != nil {
			t.Fatalf("NewApplier() error = %v", err)
		}
		if applier == nil {
			t.Fatal("NewApplier() returned nil")
		}
	})

	t.Run("relative_path_rejected", func(t *testing.T) {
		if _, err := NewApplier("relative/path", DefaultApplyOptions()); err == nil {
			t.Fatal("Expected error for relative path")
		}
	})

	t.Run("file_path_rejected", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "file.txt", "x")
		if _, err := NewApplier(path, DefaultApplyOptions()); err == nil {
			t.Fatal("Expected error for file path (not directory)")
		}
	})
}

func TestApplier_Apply(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Foo.tsx", componentText)

	applier, err := NewApplier(dir, DefaultApplyOptions())
	if err != nil {
		t.Fatal(err)
	}

	result, err := applier.Apply(context.Background(), refChanges("Foo.tsx"))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !result.Success || !result.Applied {
		t.Errorf("Apply() result = %+v", result)
	}
	if result.ChangesApplied != 2 {
		t.Errorf("ChangesApplied = %d, want 2", result.ChangesApplied)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "function Foo() {\nconst ref = React.useRef<HTMLDivElement>(null);\n return <div ref={ref}>Hi</div>; }\n"
	if string(got) != want {
		t.Errorf("file content = %q, want %q", got, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("file mode = %v, want 0640", info.Mode().Perm())
	}
}

func TestApplier_Apply_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Foo.tsx", componentText)

	opts := DefaultApplyOptions()
	opts.DryRun = true
	applier, err := NewApplier(dir, opts)
	if err != nil {
		t.Fatal(err)
	}

	result, err := applier.Apply(context.Background(), refChanges("Foo.tsx"))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !result.Success || result.Applied {
		t.Errorf("dry run result = %+v", result)
	}
	if result.NewContent == componentText {
		t.Error("dry run did not compute new content")
	}

	got, _ := os.ReadFile(path)
	if string(got) != componentText {
		t.Error("dry run modified the file")
	}
}

func TestApplier_Apply_Backup(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Foo.tsx", componentText)

	opts := DefaultApplyOptions()
	opts.CreateBackups = true
	applier, err := NewApplier(dir, opts)
	if err != nil {
		t.Fatal(err)
	}

	result, err := applier.Apply(context.Background(), refChanges("Foo.tsx"))
	if err != nil {
		t.Fatal(err)
	}
	if result.BackupPath != path+".orig" {
		t.Errorf("BackupPath = %q", result.BackupPath)
	}
	backup, err := os.ReadFile(result.BackupPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(backup) != componentText {
		t.Error("backup does not hold the original content")
	}
}

func TestApplier_Apply_Rejections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Foo.tsx", componentText)
	applier, err := NewApplier(dir, DefaultApplyOptions())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	t.Run("path_escape", func(t *testing.T) {
		_, err := applier.Apply(ctx, refChanges("../outside.tsx"))
		if !errors.Is(err, ErrPathEscapesBase) {
			t.Errorf("Apply() error = %v, want ErrPathEscapesBase", err)
		}
	})

	t.Run("symlink_escape", func(t *testing.T) {
		outside := t.TempDir()
		target := writeFile(t, outside, "Outside.tsx", componentText)
		symlinkOrSkip(t, target, filepath.Join(dir, "Linked.tsx"))

		if _, err := applier.Apply(ctx, refChanges("Linked.tsx")); !errors.Is(err, ErrPathEscapesBase) {
			t.Errorf("Apply() error = %v, want ErrPathEscapesBase", err)
		}
		got, _ := os.ReadFile(target)
		if string(got) != componentText {
			t.Error("apply through a link modified a file outside the base")
		}
	})

	t.Run("stale_content", func(t *testing.T) {
		_, err := applier.ApplyChecked(ctx, refChanges("Foo.tsx"), HashContent([]byte("something else")))
		if !errors.Is(err, ErrStaleContent) {
			t.Errorf("ApplyChecked() error = %v, want ErrStaleContent", err)
		}
	})

	t.Run("overlap_leaves_file_untouched", func(t *testing.T) {
		fc := FileTextChanges{FileName: "Foo.tsx", TextChanges: []TextChange{
			{Span: TextSpan{Start: 0, Length: 10}},
			{Span: TextSpan{Start: 5, Length: 10}},
		}}
		if _, err := applier.Apply(ctx, fc); !errors.Is(err, ErrOverlappingChanges) {
			t.Errorf("Apply() error = %v, want ErrOverlappingChanges", err)
		}
		got, _ := os.ReadFile(filepath.Join(dir, "Foo.tsx"))
		if string(got) != componentText {
			t.Error("failed apply modified the file")
		}
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := applier.Apply(cctx, refChanges("Foo.tsx")); !errors.Is(err, context.Canceled) {
			t.Errorf("Apply() error = %v, want context.Canceled", err)
		}
	})
}

func TestApplier_ApplyAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Foo.tsx", componentText)
	applier, err := NewApplier(dir, DefaultApplyOptions())
	if err != nil {
		t.Fatal(err)
	}

	results, err := applier.ApplyAll(context.Background(), []FileTextChanges{
		refChanges("Foo.tsx"),
		{FileName: "Missing.tsx"},
	})
	if err != nil {
		t.Fatalf("ApplyAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("ApplyAll() returned %d results", len(results))
	}
	if !results[0].Success {
		t.Errorf("first result failed: %s", results[0].Error)
	}
	if results[1].Success || results[1].Error == "" {
		t.Errorf("missing file should fail: %+v", results[1])
	}
}
