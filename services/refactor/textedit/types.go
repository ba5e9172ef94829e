// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package textedit represents, applies and renders span-based text edits.
//
// Every span is a byte range into the ORIGINAL text of a file. A set of
// changes for one file is applied as a single rewrite of that original
// text, never sequentially against intermediate results, so the order in
// which changes are listed does not affect the outcome.
package textedit

import "fmt"

// TextSpan is a half-open byte range [Start, Start+Length).
type TextSpan struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the exclusive end offset.
func (s TextSpan) End() int {
	return s.Start + s.Length
}

// IsEmpty reports whether the span is a pure insertion point.
func (s TextSpan) IsEmpty() bool {
	return s.Length == 0
}

func (s TextSpan) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End())
}

// TextChange replaces the bytes of Span with NewText.
type TextChange struct {
	Span    TextSpan `json:"span"`
	NewText string   `json:"newText"`
}

// IsNoop reports whether applying the change to original leaves it unchanged.
func (c TextChange) IsNoop(original string) bool {
	if c.Span.Start < 0 || c.Span.End() > len(original) {
		return false
	}
	return original[c.Span.Start:c.Span.End()] == c.NewText
}

// FileTextChanges groups the changes for one file.
type FileTextChanges struct {
	FileName    string       `json:"fileName"`
	TextChanges []TextChange `json:"textChanges"`
}

// Merge combines edits per file, preserving first-seen file order and the
// order of changes within each file.
func Merge(edits []FileTextChanges) []FileTextChanges {
	index := make(map[string]int, len(edits))
	var out []FileTextChanges
	for _, fc := range edits {
		i, ok := index[fc.FileName]
		if !ok {
			index[fc.FileName] = len(out)
			out = append(out, FileTextChanges{FileName: fc.FileName})
			i = len(out) - 1
		}
		out[i].TextChanges = append(out[i].TextChanges, fc.TextChanges...)
	}
	return out
}
