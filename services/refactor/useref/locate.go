// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package useref

import "github.com/AleutianAI/jsxref/services/refactor/ast"

// Locate returns the deepest node whose [start, end) range contains offset.
//
// Description:
//
//	Descends from the root into the single child containing offset at each
//	level; siblings never overlap, so the descent is deterministic. Cost is
//	O(depth * log(fan-out)).
//
// Outputs:
//
//	ast.Node - The deepest containing node
//	bool - False if offset lies outside the root's range
func Locate(tree *ast.SourceTree, offset int) (ast.Node, bool) {
	node := tree.Root()
	if !node.Contains(offset) {
		return ast.Node{}, false
	}
	for {
		child, ok := node.ChildAt(offset)
		if !ok {
			return node, true
		}
		node = child
	}
}

// IsRefTarget reports whether n is an opening, closing or self-closing
// markup element.
func IsRefTarget(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindJsxOpeningElement, ast.KindJsxClosingElement, ast.KindJsxSelfClosingElement:
		return true
	default:
		return false
	}
}

// EnclosingFunction returns the nearest function-like strict ancestor of n.
//
// Returns false when the root is reached first, e.g. for markup at module
// top level.
func EnclosingFunction(n ast.Node) (ast.Node, bool) {
	if n.IsNull() {
		return ast.Node{}, false
	}
	for _, a := range n.Tree().Ancestors(n) {
		if a.Kind() == ast.KindFunctionLike {
			return a, true
		}
	}
	return ast.Node{}, false
}

// BlockBody returns the brace-delimited body of a function.
//
// Returns false for concise arrow functions and for declarations without
// a body, such as overload signatures.
func BlockBody(fn ast.Node) (ast.Node, bool) {
	body := fn.ChildByField("body")
	if body.Kind() != ast.KindBlock {
		return ast.Node{}, false
	}
	return body, true
}
