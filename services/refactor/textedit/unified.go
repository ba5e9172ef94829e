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

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sourcegraph/go-diff/diff"
)

// DefaultContextLines is the number of unchanged lines around each hunk.
const DefaultContextLines = 3

const noNewlineMarker = "\\ No newline at end of file\n"

// lineOp is one line of a line-level diff.
type lineOp struct {
	kind byte // ' ', '-' or '+'
	text string
}

// UnifiedDiff renders the difference between two versions of a file in
// unified format with DefaultContextLines lines of context.
//
// Returns the empty string when the versions are identical.
func UnifiedDiff(name, oldText, newText string) (string, error) {
	return UnifiedDiffContext(name, oldText, newText, DefaultContextLines)
}

// UnifiedDiffContext is UnifiedDiff with a configurable context size.
func UnifiedDiffContext(name, oldText, newText string, context int) (string, error) {
	if oldText == newText {
		return "", nil
	}
	if context < 0 {
		context = 0
	}

	ops := lineDiff(oldText, newText)
	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
		Hunks:    buildHunks(ops, context),
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("printing diff for %s: %w", name, err)
	}
	return string(out), nil
}

// UnifiedDiffForChanges applies changes to original and renders the result.
func UnifiedDiffForChanges(name, original string, changes []TextChange) (string, error) {
	updated, err := ApplyTextChanges(original, changes)
	if err != nil {
		return "", err
	}
	return UnifiedDiff(name, original, updated)
}

// lineDiff computes a line-granular diff.
func lineDiff(oldText, newText string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		var kind byte
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = ' '
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, line := range splitLines(d.Text) {
			ops = append(ops, lineOp{kind: kind, text: line})
		}
	}
	return ops
}

// splitLines splits text after every newline, keeping the terminators.
func splitLines(text string) []string {
	var lines []string
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

// buildHunks groups changed lines with their surrounding context. Changes
// separated by at most 2*context unchanged lines share a hunk.
func buildHunks(ops []lineOp, context int) []*diff.Hunk {
	// origAt[i] and newAt[i] are the 1-based line numbers of ops[i].
	origAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	o, n := 1, 1
	for i, op := range ops {
		origAt[i], newAt[i] = o, n
		if op.kind != '+' {
			o++
		}
		if op.kind != '-' {
			n++
		}
	}
	origAt[len(ops)], newAt[len(ops)] = o, n

	var hunks []*diff.Hunk
	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].kind == ' ' {
			i++
		}
		if i == len(ops) {
			break
		}

		start := i - context
		if start < 0 {
			start = 0
		}

		end := i
		for {
			for end < len(ops) && ops[end].kind != ' ' {
				end++
			}
			j := end
			for j < len(ops) && ops[j].kind == ' ' {
				j++
			}
			if j == len(ops) || j-end > 2*context {
				end += min(context, j-end)
				break
			}
			end = j
		}

		hunks = append(hunks, makeHunk(ops[start:end], origAt[start], newAt[start]))
		i = end
	}
	return hunks
}

func makeHunk(ops []lineOp, origStart, newStart int) *diff.Hunk {
	var body strings.Builder
	var origLines, newLines int
	for _, op := range ops {
		body.WriteByte(op.kind)
		body.WriteString(op.text)
		if !strings.HasSuffix(op.text, "\n") {
			body.WriteString("\n" + noNewlineMarker)
		}
		if op.kind != '+' {
			origLines++
		}
		if op.kind != '-' {
			newLines++
		}
	}

	// An empty side is anchored at the line before the hunk.
	if origLines == 0 {
		origStart--
	}
	if newLines == 0 {
		newStart--
	}

	return &diff.Hunk{
		OrigStartLine: int32(origStart),
		OrigLines:     int32(origLines),
		NewStartLine:  int32(newStart),
		NewLines:      int32(newLines),
		Body:          []byte(body.String()),
	}
}
