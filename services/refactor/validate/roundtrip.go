// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validate checks refactoring output by applying it and parsing
// the result again.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

// Report is the outcome of a round-trip check.
type Report struct {
	// FileName is the checked file.
	FileName string `json:"fileName"`

	// SyntaxErrorsBefore is true if the original text already had errors.
	SyntaxErrorsBefore bool `json:"syntaxErrorsBefore"`

	// SyntaxErrorsAfter is true if the rewritten text has errors.
	SyntaxErrorsAfter bool `json:"syntaxErrorsAfter"`

	// ErrorPosition locates the first syntax error after rewriting.
	ErrorPosition *ast.Position `json:"errorPosition,omitempty"`

	// HasDeclaration is true if a const <ref> = React.useRef<...>(null)
	// declaration exists after rewriting.
	HasDeclaration bool `json:"hasDeclaration"`

	// HasRefAttribute is true if some element carries ref={<ref>}.
	HasRefAttribute bool `json:"hasRefAttribute"`

	// NewText is the rewritten text.
	NewText string `json:"-"`
}

// OK reports whether the rewrite introduced no syntax errors and produced
// both halves of the reference.
func (r *Report) OK() bool {
	introducedErrors := r.SyntaxErrorsAfter && !r.SyntaxErrorsBefore
	return !introducedErrors && r.HasDeclaration && r.HasRefAttribute
}

// CheckRoundTrip applies changes to original, parses the result and
// inspects it for the reference declaration and attribute.
//
// Description:
//
//	The original is parsed too, so that syntax errors already present in
//	the input are not blamed on the rewrite.
//
// Inputs:
//
//	ctx - Context for cancellation
//	parser - Parser used for both versions
//	fileName - Determines the dialect
//	original - Text the changes were computed against
//	changes - Changes for fileName
//	refName - The reference identifier to look for
//
// Outputs:
//
//	*Report - The findings
//	error - Non-nil if the changes cannot be applied or a version cannot
//	        be parsed at all
func CheckRoundTrip(ctx context.Context, parser *ast.Parser, fileName, original string, changes []textedit.TextChange, refName string) (*Report, error) {
	before, err := parser.Parse(ctx, fileName, []byte(original))
	if err != nil {
		return nil, fmt.Errorf("parsing original: %w", err)
	}

	updated, err := textedit.ApplyTextChanges(original, changes)
	if err != nil {
		return nil, fmt.Errorf("applying changes: %w", err)
	}

	after, err := parser.Parse(ctx, fileName, []byte(updated))
	if err != nil {
		return nil, fmt.Errorf("parsing rewritten text: %w", err)
	}

	report := &Report{
		FileName:           fileName,
		SyntaxErrorsBefore: before.HasErrors(),
		SyntaxErrorsAfter:  after.HasErrors(),
		NewText:            updated,
	}
	if errNode, ok := after.FirstError(); ok {
		if pos, err := after.PositionOf(errNode.Start()); err == nil {
			report.ErrorPosition = &pos
		}
	}

	for i := 0; i < after.NodeCount(); i++ {
		n, _ := after.NodeByID(ast.NodeID(i))
		switch n.Type() {
		case "variable_declarator":
			if isRefDeclarator(n, refName) {
				report.HasDeclaration = true
			}
		case "jsx_attribute":
			if isRefAttribute(n, refName) {
				report.HasRefAttribute = true
			}
		}
	}
	return report, nil
}

// isRefDeclarator matches `name = React.useRef<...>(null)`.
func isRefDeclarator(n ast.Node, name string) bool {
	if n.ChildByField("name").Text() != name {
		return false
	}
	call := n.ChildByField("value")
	if call.Type() != "call_expression" {
		return false
	}
	callee := call.ChildByField("function").Text()
	if callee != "React.useRef" && callee != "useRef" {
		return false
	}
	return compact(call.ChildByField("arguments").Text()) == "(null)"
}

// isRefAttribute matches `ref={name}`.
func isRefAttribute(n ast.Node, name string) bool {
	return compact(n.Text()) == "ref={"+name+"}"
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
