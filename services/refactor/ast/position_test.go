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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceTree_OffsetAt(t *testing.T) {
	tree := mustParse(t, "a.ts", "const a = 1;\nconst bb = 2;")

	tests := []struct {
		line, col int
		want      int
		wantErr   bool
	}{
		{0, 0, 0, false},
		{0, 12, 12, false}, // newline position
		{1, 0, 13, false},
		{1, 13, 26, false}, // end of file
		{1, 14, 0, true},
		{0, 13, 0, true},
		{2, 0, 0, true},
		{-1, 0, 0, true},
	}
	for _, tt := range tests {
		got, err := tree.OffsetAt(tt.line, tt.col)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrOffsetOutOfRange), "line %d col %d", tt.line, tt.col)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "line %d col %d", tt.line, tt.col)
	}
}

func TestSourceTree_PositionOf(t *testing.T) {
	tree := mustParse(t, "a.ts", "const a = 1;\nconst bb = 2;")

	pos, err := tree.PositionOf(0)
	require.NoError(t, err)
	assert.Equal(t, Position{Line: 0, Column: 0}, pos)

	pos, err = tree.PositionOf(19)
	require.NoError(t, err)
	assert.Equal(t, Position{Line: 1, Column: 6}, pos)
	assert.Equal(t, "2:7", pos.String())

	_, err = tree.PositionOf(1000)
	assert.True(t, errors.Is(err, ErrOffsetOutOfRange))

	assert.Equal(t, 2, tree.LineCount())
}

func TestSourceTree_PositionRoundTrip(t *testing.T) {
	tree := mustParse(t, "Foo.tsx", componentSource)
	for offset := 0; offset <= len(componentSource); offset++ {
		pos, err := tree.PositionOf(offset)
		require.NoError(t, err)
		back, err := tree.OffsetAt(pos.Line, pos.Column)
		require.NoError(t, err)
		assert.Equal(t, offset, back)
	}
}
