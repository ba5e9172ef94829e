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
	"fmt"
	"strings"
	"testing"

	"github.com/sourcegraph/go-diff/diff"
)

func TestUnifiedDiff_Identical(t *testing.T) {
	out, err := UnifiedDiff("a.tsx", "same\n", "same\n")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("UnifiedDiff() = %q, want empty", out)
	}
}

func TestUnifiedDiff_SingleInsertion(t *testing.T) {
	out, err := UnifiedDiff("Foo.tsx", "a\nb\nc\n", "a\nX\nb\nc\n")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"--- a/Foo.tsx", "+++ b/Foo.tsx", "@@ -1,3 +1,4 @@", "\n+X\n", "\n b\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}

	fd, err := diff.ParseFileDiff([]byte(out))
	if err != nil {
		t.Fatalf("ParseFileDiff() error = %v\n%s", err, out)
	}
	if len(fd.Hunks) != 1 {
		t.Errorf("got %d hunks, want 1", len(fd.Hunks))
	}
}

func TestUnifiedDiff_SeparateHunks(t *testing.T) {
	var oldLines, newLines []string
	for i := 1; i <= 20; i++ {
		line := fmt.Sprintf("line %d", i)
		oldLines = append(oldLines, line)
		switch i {
		case 2, 18:
			newLines = append(newLines, line+" changed")
		default:
			newLines = append(newLines, line)
		}
	}
	oldText := strings.Join(oldLines, "\n") + "\n"
	newText := strings.Join(newLines, "\n") + "\n"

	out, err := UnifiedDiff("f.ts", oldText, newText)
	if err != nil {
		t.Fatal(err)
	}
	fd, err := diff.ParseFileDiff([]byte(out))
	if err != nil {
		t.Fatalf("ParseFileDiff() error = %v\n%s", err, out)
	}
	if len(fd.Hunks) != 2 {
		t.Fatalf("got %d hunks, want 2:\n%s", len(fd.Hunks), out)
	}
	if fd.Hunks[0].OrigStartLine != 1 || fd.Hunks[0].OrigLines != 5 {
		t.Errorf("first hunk = -%d,%d, want -1,5", fd.Hunks[0].OrigStartLine, fd.Hunks[0].OrigLines)
	}
	if fd.Hunks[1].OrigStartLine != 15 || fd.Hunks[1].OrigLines != 6 {
		t.Errorf("second hunk = -%d,%d, want -15,6", fd.Hunks[1].OrigStartLine, fd.Hunks[1].OrigLines)
	}
}

func TestUnifiedDiff_MergesNearbyChanges(t *testing.T) {
	oldText := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"
	newText := "1\n2x\n3\n4\n5\n6\n7x\n8\n9\n10\n"

	out, err := UnifiedDiff("f.ts", oldText, newText)
	if err != nil {
		t.Fatal(err)
	}
	fd, err := diff.ParseFileDiff([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if len(fd.Hunks) != 1 {
		t.Errorf("got %d hunks, want 1:\n%s", len(fd.Hunks), out)
	}
}

func TestUnifiedDiffForChanges(t *testing.T) {
	out, err := UnifiedDiffForChanges("Foo.tsx", componentText, refChanges("Foo.tsx").TextChanges)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "+const ref = React.useRef<HTMLDivElement>(null);") {
		t.Errorf("diff missing declaration:\n%s", out)
	}
	if !strings.Contains(out, "-function Foo() { return <div>Hi</div>; }") {
		t.Errorf("diff missing removed line:\n%s", out)
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("a\nb\nc")
	want := []string{"a\n", "b\n", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitLines() = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitLines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitLines("") != nil {
		t.Error("splitLines(\"\") should be nil")
	}
}
