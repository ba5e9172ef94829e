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
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const componentSource = `function Foo() {
  return <div className="x">Hi</div>;
}
`

func mustParse(t *testing.T, fileName, src string) *SourceTree {
	t.Helper()
	tree, err := NewParser().Parse(context.Background(), fileName, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

// firstOfKind returns the first node of the given kind in pre-order.
func firstOfKind(tree *SourceTree, kind Kind) Node {
	for i := 0; i < tree.NodeCount(); i++ {
		n, _ := tree.NodeByID(NodeID(i))
		if n.Kind() == kind {
			return n
		}
	}
	return Node{}
}

func TestParser_Parse_ClassifiesMarkup(t *testing.T) {
	tree := mustParse(t, "Foo.tsx", componentSource)

	assert.Equal(t, DialectTSX, tree.Dialect())
	assert.False(t, tree.HasErrors())
	assert.Equal(t, "program", tree.Root().Type())
	assert.Equal(t, NodeID(0), tree.Root().ID())

	opening := firstOfKind(tree, KindJsxOpeningElement)
	require.False(t, opening.IsNull())
	assert.Equal(t, `<div className="x">`, opening.Text())
	assert.Equal(t, strings.Index(componentSource, "<div"), opening.Start())

	closing := firstOfKind(tree, KindJsxClosingElement)
	require.False(t, closing.IsNull())
	assert.Equal(t, "</div>", closing.Text())

	tag := opening.ChildByField("name")
	require.False(t, tag.IsNull())
	assert.Equal(t, "div", tag.Text())
}

func TestParser_Parse_ClassifiesFunctions(t *testing.T) {
	tree := mustParse(t, "Foo.tsx", componentSource)

	fn := firstOfKind(tree, KindFunctionLike)
	require.False(t, fn.IsNull())
	assert.Equal(t, "function_declaration", fn.Type())

	body := fn.ChildByField("body")
	require.False(t, body.IsNull())
	assert.Equal(t, KindBlock, body.Kind())
	assert.Equal(t, byte('{'), tree.Content()[body.Start()])
}

func TestParser_Parse_SelfClosingAndArrow(t *testing.T) {
	src := "const Form = () => {\n  return <Input value={1} />;\n};\n"
	tree := mustParse(t, "Form.tsx", src)

	el := firstOfKind(tree, KindJsxSelfClosingElement)
	require.False(t, el.IsNull())
	assert.Equal(t, "<Input value={1} />", el.Text())

	fn := firstOfKind(tree, KindFunctionLike)
	require.False(t, fn.IsNull())
	assert.Equal(t, "arrow_function", fn.Type())
}

func TestParser_Parse_FragmentsAreNotElements(t *testing.T) {
	tree := mustParse(t, "Frag.tsx", "const x = <></>;\n")

	assert.True(t, firstOfKind(tree, KindJsxOpeningElement).IsNull())
	assert.True(t, firstOfKind(tree, KindJsxClosingElement).IsNull())
}

func TestParser_Parse_CommentsExcluded(t *testing.T) {
	tree := mustParse(t, "c.ts", "// leading\nconst a = 1; /* trailing */\n")

	for i := 0; i < tree.NodeCount(); i++ {
		n, _ := tree.NodeByID(NodeID(i))
		assert.NotEqual(t, "comment", n.Type())
	}
}

func TestParser_Parse_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported dialect", func(t *testing.T) {
		_, err := NewParser().Parse(ctx, "main.go", []byte("package main"))
		assert.True(t, errors.Is(err, ErrUnsupportedDialect))
	})

	t.Run("too large", func(t *testing.T) {
		p := NewParser(WithMaxFileSize(8))
		_, err := p.Parse(ctx, "a.ts", []byte("const abc = 1;"))
		assert.True(t, errors.Is(err, ErrFileTooLarge))
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, err := NewParser().Parse(ctx, "a.ts", []byte{0xff, 0xfe, 0xfd})
		assert.True(t, errors.Is(err, ErrInvalidContent))
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewParser().Parse(cctx, "a.ts", []byte("const a = 1;"))
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("syntax errors recovered", func(t *testing.T) {
		tree, err := NewParser().Parse(ctx, "a.tsx", []byte("function ( {"))
		require.NoError(t, err)
		assert.True(t, tree.HasErrors())
	})
}

func TestParser_Parse_CopiesContent(t *testing.T) {
	src := []byte("const a = 1;\n")
	tree, err := NewParser().Parse(context.Background(), "a.ts", src)
	require.NoError(t, err)

	src[0] = 'X'
	assert.Equal(t, "const a = 1;\n", tree.Text())
	assert.Len(t, tree.Hash(), 64)
}

func TestWithMaxFileSize_IgnoresNonPositive(t *testing.T) {
	p := NewParser(WithMaxFileSize(0), WithMaxFileSize(-5))
	assert.Equal(t, DefaultMaxFileSize, p.MaxFileSize())
}

func TestParseOutcome(t *testing.T) {
	clean := mustParse(t, "a.tsx", "const a = 1;\n")
	broken := mustParse(t, "b.tsx", "const = ;\n")

	tests := []struct {
		name string
		tree *SourceTree
		err  error
		want string
	}{
		{"clean", clean, nil, "ok"},
		{"syntax error", broken, nil, "syntax_error"},
		{"unsupported", nil, ErrUnsupportedDialect, "unsupported"},
		{"too large", nil, ErrFileTooLarge, "too_large"},
		{"invalid content", nil, ErrInvalidContent, "invalid_content"},
		{"canceled", nil, context.Canceled, "canceled"},
		{"other", nil, errors.New("boom"), "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOutcome(tt.tree, tt.err))
		})
	}
}
