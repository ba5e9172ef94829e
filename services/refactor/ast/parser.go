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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMaxFileSize is the default upper bound on parsed content (10MB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged (1MB).
	WarnFileSize = 1024 * 1024
)

// knownFields lists the grammar fields recorded on arena nodes.
var knownFields = []string{
	"name", "body", "parameters", "parameter", "return_type", "type",
	"value", "open_tag", "close_tag", "attribute", "object", "property",
	"function", "arguments", "type_arguments", "declaration", "source",
	"alias", "left", "right", "pattern", "label",
}

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Non-positive values are ignored.
//
// Example:
//
//	parser := NewParser(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Parser turns script source into SourceTrees using tree-sitter.
//
// Description:
//
//	Parser selects a grammar from the file's dialect (TSX, TypeScript or
//	JavaScript), parses the content and copies the named nodes into an
//	immutable arena. The tree-sitter tree is closed before Parse returns,
//	so SourceTrees hold no C memory.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use. Each Parse call creates
//	its own tree-sitter parser.
type Parser struct {
	maxFileSize int64
}

// NewParser creates a Parser with the given options.
//
// Outputs:
//   - *Parser: Configured parser instance, never nil
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxFileSize returns the configured size limit in bytes.
func (p *Parser) MaxFileSize() int64 {
	return p.maxFileSize
}

// Parse builds a SourceTree for the given file.
//
// Description:
//
//	Validates size and encoding, parses with the dialect's grammar and
//	converts the result into an arena. Syntax errors do not fail the parse;
//	tree-sitter recovers and the tree reports HasErrors.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - fileName: Name used for dialect selection and reporting.
//   - content: Raw source bytes. Must be valid UTF-8.
//
// Outputs:
//   - *SourceTree: The parsed tree. Never nil on success.
//   - error: Non-nil for complete failures:
//   - ErrFileTooLarge: Content exceeds the size limit
//   - ErrInvalidContent: Content is not valid UTF-8
//   - ErrUnsupportedDialect: Extension has no grammar
//   - Context errors: Context was canceled
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *Parser) Parse(ctx context.Context, fileName string, content []byte) (tree *SourceTree, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	dialect := DialectForFile(fileName)
	ctx, span := tracer.Start(ctx, "Parser.Parse", trace.WithAttributes(
		attribute.String("ast.dialect", dialect.String()),
		attribute.String("ast.file", fileName),
		attribute.Int("ast.content_size", len(content)),
	))
	start := time.Now()
	defer func() {
		observeParse(ctx, span, dialect, start, tree, err)
		span.End()
	}()

	if dialect == DialectUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, fileName)
	}

	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", fileName),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(dialect))

	sitterTree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer sitterTree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	hash := sha256.Sum256(content)
	owned := make([]byte, len(content))
	copy(owned, content)

	tree = &SourceTree{
		fileName: fileName,
		dialect:  dialect,
		content:  owned,
		hash:     hex.EncodeToString(hash[:]),
		lines:    lineStarts(owned),
	}

	root := sitterTree.RootNode()
	if root == nil {
		return tree, nil
	}
	tree.hasErrors = root.HasError()
	tree.build(root, "")

	return tree, nil
}

// languageFor returns the tree-sitter grammar for a dialect.
func languageFor(d Dialect) *sitter.Language {
	switch d {
	case DialectTSX:
		return tsx.GetLanguage()
	case DialectTypeScript:
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// build appends n and its named descendants to the arena in pre-order and
// returns n's id.
func (t *SourceTree) build(n *sitter.Node, field string) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, nodeData{
		kind:  classify(n),
		typ:   n.Type(),
		field: field,
		start: int(n.StartByte()),
		end:   int(n.EndByte()),
	})

	fields := fieldIndex(n)
	var children []NodeID
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		children = append(children, t.build(child, fields[spanKey(child)]))
	}

	d := &t.nodes[id]
	d.children = children
	d.last = NodeID(len(t.nodes) - 1)
	return id
}

type childKey struct {
	start, end uint32
	typ        string
}

func spanKey(n *sitter.Node) childKey {
	return childKey{start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

// fieldIndex maps each field-held child of n to its field name.
func fieldIndex(n *sitter.Node) map[childKey]string {
	var idx map[childKey]string
	for _, f := range knownFields {
		c := n.ChildByFieldName(f)
		if c == nil {
			continue
		}
		if idx == nil {
			idx = make(map[childKey]string, 4)
		}
		idx[spanKey(c)] = f
	}
	return idx
}

// classify maps a grammar node to its refactoring Kind.
//
// Fragments (`<>` and `</>`) parse as opening/closing elements without a
// name; they cannot host attributes and are classified KindOther.
func classify(n *sitter.Node) Kind {
	typ := n.Type()
	switch {
	case typ == "jsx_opening_element":
		if n.ChildByFieldName("name") == nil {
			return KindOther
		}
		return KindJsxOpeningElement
	case typ == "jsx_closing_element":
		if n.ChildByFieldName("name") == nil {
			return KindOther
		}
		return KindJsxClosingElement
	case typ == "jsx_self_closing_element":
		return KindJsxSelfClosingElement
	case typ == "statement_block":
		return KindBlock
	case functionLikeTypes[typ]:
		return KindFunctionLike
	}
	return KindOther
}
