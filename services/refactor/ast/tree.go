// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides an immutable, arena-backed syntax tree for script
// source files.
//
// A SourceTree is built once from a tree-sitter parse and never mutated.
// Nodes are small values that index into the tree's arena; they carry no
// parent pointers. Ancestor queries re-descend from the root using the
// pre-order id interval recorded for every node.
//
// Design principles:
//   - Only named, non-comment grammar nodes appear in the arena, so token
//     punctuation (`<`, `>`, `{`) belongs to its enclosing construct
//   - Offsets are UTF-8 byte offsets into the original content
//   - Trees are safe for concurrent reads
package ast

import "fmt"

// Kind classifies a node for the refactoring core.
type Kind int

const (
	// KindOther is any node the refactoring core does not distinguish.
	KindOther Kind = iota

	// KindJsxOpeningElement is the opening tag of a markup element, e.g. `<div>`.
	KindJsxOpeningElement

	// KindJsxClosingElement is the closing tag of a markup element, e.g. `</div>`.
	KindJsxClosingElement

	// KindJsxSelfClosingElement is a self-closing tag, e.g. `<Input />`.
	KindJsxSelfClosingElement

	// KindFunctionLike is a plain function, arrow function or method.
	KindFunctionLike

	// KindBlock is a brace-delimited statement block.
	KindBlock
)

var kindNames = map[Kind]string{
	KindOther:                 "other",
	KindJsxOpeningElement:     "jsx_opening_element",
	KindJsxClosingElement:     "jsx_closing_element",
	KindJsxSelfClosingElement: "jsx_self_closing_element",
	KindFunctionLike:          "function_like",
	KindBlock:                 "block",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// functionLikeTypes lists grammar types classified as KindFunctionLike.
var functionLikeTypes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function_expression":            true,
	"function":                       true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true,
}

// NodeID indexes a node inside its SourceTree arena. IDs are assigned in
// pre-order, so the root is always 0.
type NodeID int32

// nodeData is the arena record of one node.
type nodeData struct {
	kind     Kind
	typ      string
	field    string
	start    int
	end      int
	children []NodeID
	last     NodeID // id of the last node in this subtree (pre-order)
}

// SourceTree is the immutable structural representation of one file.
//
// Thread Safety: Safe for concurrent reads. Never mutated after Parse returns.
type SourceTree struct {
	fileName  string
	dialect   Dialect
	content   []byte
	hash      string
	hasErrors bool
	nodes     []nodeData
	lines     []int // byte offset of the start of every line
}

// FileName returns the name the tree was parsed under.
func (t *SourceTree) FileName() string { return t.fileName }

// Dialect returns the dialect the tree was parsed with.
func (t *SourceTree) Dialect() Dialect { return t.dialect }

// Content returns the original source text.
//
// The returned slice must not be modified.
func (t *SourceTree) Content() []byte { return t.content }

// Text returns the original source text as a string.
func (t *SourceTree) Text() string { return string(t.content) }

// Hash returns the hex SHA-256 of the content.
func (t *SourceTree) Hash() string { return t.hash }

// HasErrors reports whether the parser recovered from syntax errors.
func (t *SourceTree) HasErrors() bool { return t.hasErrors }

// NodeCount returns the number of nodes in the arena.
func (t *SourceTree) NodeCount() int { return len(t.nodes) }

// Root returns the root node, or a null Node for an empty arena.
func (t *SourceTree) Root() Node {
	if t == nil || len(t.nodes) == 0 {
		return Node{}
	}
	return Node{tree: t, id: 0}
}

// NodeByID returns the node with the given id.
func (t *SourceTree) NodeByID(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}, false
	}
	return Node{tree: t, id: id}, true
}

// Ancestors returns the strict ancestors of n, nearest first.
//
// Description:
//
//	The tree stores no parent links. Ancestors re-descends from the root,
//	at each level choosing the child whose pre-order interval contains n's
//	id. The walk is O(depth * log(fan-out)) and does not depend on byte
//	ranges, so coinciding ranges cannot make it ambiguous.
//
// Outputs:
//
//	[]Node - Parent first, root last. Empty for the root or a null node.
func (t *SourceTree) Ancestors(n Node) []Node {
	if n.IsNull() || n.tree != t || n.id == 0 {
		return nil
	}

	var path []Node
	cur := NodeID(0)
	for cur != n.id {
		path = append(path, Node{tree: t, id: cur})
		next, ok := t.childContainingID(cur, n.id)
		if !ok {
			return nil
		}
		cur = next
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// childContainingID finds the child of parent whose subtree holds target.
func (t *SourceTree) childContainingID(parent, target NodeID) (NodeID, bool) {
	children := t.nodes[parent].children
	lo, hi := 0, len(children)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.nodes[children[mid]].last < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(children) && children[lo] <= target {
		return children[lo], true
	}
	return 0, false
}

// Node is a positional handle into a SourceTree.
//
// The zero value is the null node. Nodes are comparable; two nodes are equal
// when they refer to the same arena slot of the same tree.
type Node struct {
	tree *SourceTree
	id   NodeID
}

// IsNull reports whether n refers to no node.
func (n Node) IsNull() bool { return n.tree == nil }

// Tree returns the owning tree.
func (n Node) Tree() *SourceTree { return n.tree }

// ID returns the arena id.
func (n Node) ID() NodeID { return n.id }

func (n Node) data() *nodeData { return &n.tree.nodes[n.id] }

// Kind returns the refactoring classification of the node.
func (n Node) Kind() Kind {
	if n.IsNull() {
		return KindOther
	}
	return n.data().kind
}

// Type returns the raw grammar type, e.g. "jsx_opening_element".
func (n Node) Type() string {
	if n.IsNull() {
		return ""
	}
	return n.data().typ
}

// Field returns the grammar field name under which the parent holds n,
// or "" when the child is unnamed.
func (n Node) Field() string {
	if n.IsNull() {
		return ""
	}
	return n.data().field
}

// Start returns the inclusive start byte offset.
func (n Node) Start() int {
	if n.IsNull() {
		return 0
	}
	return n.data().start
}

// End returns the exclusive end byte offset.
func (n Node) End() int {
	if n.IsNull() {
		return 0
	}
	return n.data().end
}

// Len returns the byte length of the node.
func (n Node) Len() int { return n.End() - n.Start() }

// Contains reports whether offset lies in [Start, End).
func (n Node) Contains(offset int) bool {
	return !n.IsNull() && offset >= n.Start() && offset < n.End()
}

// Encloses reports whether other's range lies within n's range.
func (n Node) Encloses(other Node) bool {
	return !n.IsNull() && !other.IsNull() &&
		n.Start() <= other.Start() && other.End() <= n.End()
}

// IsAncestorOf reports whether n is a strict ancestor of other in the same tree.
func (n Node) IsAncestorOf(other Node) bool {
	if n.IsNull() || other.IsNull() || n.tree != other.tree {
		return false
	}
	return n.id < other.id && other.id <= n.data().last
}

// Text returns the source text covered by the node.
func (n Node) Text() string {
	if n.IsNull() {
		return ""
	}
	d := n.data()
	return string(n.tree.content[d.start:d.end])
}

// ChildCount returns the number of children.
func (n Node) ChildCount() int {
	if n.IsNull() {
		return 0
	}
	return len(n.data().children)
}

// Child returns the i-th child, or a null node when out of range.
func (n Node) Child(i int) Node {
	if n.IsNull() || i < 0 || i >= len(n.data().children) {
		return Node{}
	}
	return Node{tree: n.tree, id: n.data().children[i]}
}

// Children returns all children in source order.
func (n Node) Children() []Node {
	if n.IsNull() {
		return nil
	}
	ids := n.data().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, id: id}
	}
	return out
}

// ChildByField returns the first child held under the given field name.
func (n Node) ChildByField(field string) Node {
	if n.IsNull() {
		return Node{}
	}
	for _, id := range n.data().children {
		if n.tree.nodes[id].field == field {
			return Node{tree: n.tree, id: id}
		}
	}
	return Node{}
}

// ChildByType returns the first child with the given grammar type.
func (n Node) ChildByType(typ string) Node {
	if n.IsNull() {
		return Node{}
	}
	for _, id := range n.data().children {
		if n.tree.nodes[id].typ == typ {
			return Node{tree: n.tree, id: id}
		}
	}
	return Node{}
}

// ChildAt returns the unique child whose range contains offset.
//
// Children are non-overlapping and sorted by start offset, so a binary
// search finds the only candidate.
func (n Node) ChildAt(offset int) (Node, bool) {
	if n.IsNull() {
		return Node{}, false
	}
	children := n.data().children
	nodes := n.tree.nodes
	lo, hi := 0, len(children)
	for lo < hi {
		mid := (lo + hi) / 2
		if nodes[children[mid]].end <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(children) {
		c := Node{tree: n.tree, id: children[lo]}
		if c.Contains(offset) {
			return c, true
		}
	}
	return Node{}, false
}

// String returns a debug representation like "jsx_opening_element[12:17]".
func (n Node) String() string {
	if n.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%s[%d:%d]", n.Type(), n.Start(), n.End())
}

// FirstError returns the first ERROR node in source order.
func (t *SourceTree) FirstError() (Node, bool) {
	if !t.hasErrors {
		return Node{}, false
	}
	for i := range t.nodes {
		if t.nodes[i].typ == "ERROR" {
			return Node{tree: t, id: NodeID(i)}, true
		}
	}
	return Node{}, false
}
