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
	"sort"
	"strings"
)

// Validate checks that every change lies within a text of length textLen
// and that no two changes overlap.
//
// Description:
//
//	Two zero-length insertions at the same offset do not overlap. An
//	insertion at the first byte of a replacement does not overlap it.
//
// Outputs:
//
//	[]TextChange - The changes sorted by start offset, insertions before
//	               replacements at the same offset, input order otherwise
//	error - ErrSpanOutOfRange or ErrOverlappingChanges
func Validate(textLen int, changes []TextChange) ([]TextChange, error) {
	sorted := make([]TextChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.Start != sorted[j].Span.Start {
			return sorted[i].Span.Start < sorted[j].Span.Start
		}
		return sorted[i].Span.IsEmpty() && !sorted[j].Span.IsEmpty()
	})

	for i, c := range sorted {
		if c.Span.Start < 0 || c.Span.Length < 0 || c.Span.End() > textLen {
			return nil, fmt.Errorf("%w: %s in text of length %d", ErrSpanOutOfRange, c.Span, textLen)
		}
		if i > 0 && sorted[i-1].Span.End() > c.Span.Start {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlappingChanges, sorted[i-1].Span, c.Span)
		}
	}
	return sorted, nil
}

// ApplyTextChanges applies changes to text in a single pass.
//
// Description:
//
//	All spans refer to the original text. The result is independent of the
//	order of changes except for multiple insertions at the same offset,
//	which appear in input order.
//
// Inputs:
//
//	text - The original text
//	changes - Changes computed against text
//
// Outputs:
//
//	string - The rewritten text
//	error - ErrSpanOutOfRange or ErrOverlappingChanges; text is not modified
func ApplyTextChanges(text string, changes []TextChange) (string, error) {
	sorted, err := Validate(len(text), changes)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	grow := len(text)
	for _, c := range sorted {
		grow += len(c.NewText) - c.Span.Length
	}
	if grow > 0 {
		b.Grow(grow)
	}

	pos := 0
	for _, c := range sorted {
		b.WriteString(text[pos:c.Span.Start])
		b.WriteString(c.NewText)
		pos = c.Span.End()
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}
