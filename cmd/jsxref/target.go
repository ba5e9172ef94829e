// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxref/services/refactor"
)

// ErrBadPosition is returned for a missing, conflicting or malformed
// cursor position.
var ErrBadPosition = errors.New("bad position")

// positionFlags locates the cursor. Line and column are 1-based on the
// command line, like editor status bars, and converted to 0-based.
type positionFlags struct {
	offset int
	line   int
	col    int
}

func (f *positionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.offset, "offset", -1, "Byte offset of the cursor")
	cmd.Flags().IntVar(&f.line, "line", 0, "1-based line of the cursor")
	cmd.Flags().IntVar(&f.col, "col", 0, "1-based byte column of the cursor")
}

// target builds a refactor.Target for file.
func (f *positionFlags) target(file string) (refactor.Target, error) {
	t := refactor.Target{File: file}
	hasOffset := f.offset >= 0
	hasLineCol := f.line != 0 || f.col != 0

	switch {
	case hasOffset && hasLineCol:
		return t, fmt.Errorf("%w: use --offset or --line/--col, not both", ErrBadPosition)
	case hasOffset:
		t.Position = &f.offset
	case hasLineCol:
		if f.line < 1 || f.col < 1 {
			return t, fmt.Errorf("%w: --line and --col are 1-based and both required", ErrBadPosition)
		}
		line, col := f.line-1, f.col-1
		t.Line, t.Column = &line, &col
	default:
		return t, fmt.Errorf("%w: --offset or --line/--col is required", ErrBadPosition)
	}
	return t, nil
}

// parseBatchTarget parses FILE:OFFSET or FILE:LINE:COL (1-based).
func parseBatchTarget(s string) (refactor.Target, error) {
	parts := strings.Split(s, ":")
	nums := make([]int, 0, 2)
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}
	file := strings.Join(parts, ":")
	if file == "" || len(nums) == 0 {
		return refactor.Target{}, fmt.Errorf("%w: %q is not FILE:OFFSET or FILE:LINE:COL", ErrBadPosition, s)
	}

	f := positionFlags{offset: -1}
	if len(nums) == 1 {
		f.offset = nums[0]
	} else {
		f.line, f.col = nums[0], nums[1]
	}
	t, err := f.target(file)
	if err != nil {
		return t, fmt.Errorf("%s: %w", s, err)
	}
	return t, nil
}
