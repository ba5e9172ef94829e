// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"fmt"
	"sort"
)

// Position is a 0-indexed line and byte column within a file.
type Position struct {
	// Line is the 0-indexed line number.
	Line int `json:"line"`

	// Column is the 0-indexed byte offset within the line.
	Column int `json:"column"`
}

// String returns "line:column" using 1-indexed values, as editors display them.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// lineStarts returns the byte offset at which every line begins.
func lineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineCount returns the number of lines in the file.
func (t *SourceTree) LineCount() int {
	return len(t.lines)
}

// OffsetAt converts a 0-indexed line and byte column to a byte offset.
//
// Outputs:
//
//	int - Byte offset into the content
//	error - ErrOffsetOutOfRange if the line does not exist or the column
//	        runs past the end of the line
func (t *SourceTree) OffsetAt(line, column int) (int, error) {
	if line < 0 || line >= len(t.lines) || column < 0 {
		return 0, fmt.Errorf("%w: line %d column %d", ErrOffsetOutOfRange, line, column)
	}
	lineEnd := len(t.content)
	if line+1 < len(t.lines) {
		lineEnd = t.lines[line+1] - 1
	}
	offset := t.lines[line] + column
	if offset > lineEnd {
		return 0, fmt.Errorf("%w: line %d column %d", ErrOffsetOutOfRange, line, column)
	}
	return offset, nil
}

// PositionOf converts a byte offset to a 0-indexed line and column.
func (t *SourceTree) PositionOf(offset int) (Position, error) {
	if offset < 0 || offset > len(t.content) {
		return Position{}, fmt.Errorf("%w: offset %d", ErrOffsetOutOfRange, offset)
	}
	line := sort.Search(len(t.lines), func(i int) bool { return t.lines[i] > offset }) - 1
	return Position{Line: line, Column: offset - t.lines[line]}, nil
}
