// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package checker provides a single-file semantic model over ast.SourceTree.
//
// The model answers the three questions the refactorings ask of a type
// checker: which symbol does an identifier refer to, what is the type of that
// symbol at a location, and how is that type displayed. It resolves names
// lexically within one file and renders types from their declarations; it
// performs no inference across files.
//
// Thread Safety:
//
//	Checker holds no mutable state and is safe for concurrent use.
package checker

import "github.com/AleutianAI/jsxref/services/refactor/ast"

// TypeChecker is the semantic model consumed by refactorings.
type TypeChecker interface {
	// GetSymbolAtLocation resolves the symbol an identifier or member path
	// refers to. Returns false when the name is unbound or the node is not
	// a name.
	GetSymbolAtLocation(node ast.Node) (*Symbol, bool)

	// GetTypeOfSymbolAtLocation returns the type of sym as seen from node.
	GetTypeOfSymbolAtLocation(sym *Symbol, node ast.Node) Type

	// TypeToString renders a type for display.
	TypeToString(t Type) string
}

// SymbolKind classifies the declaration a symbol came from.
type SymbolKind int

const (
	SymbolUnknown SymbolKind = iota
	SymbolIntrinsic
	SymbolFunction
	SymbolClass
	SymbolVariable
	SymbolParameter
	SymbolImport
	SymbolMember
)

var symbolKindNames = map[SymbolKind]string{
	SymbolUnknown:   "unknown",
	SymbolIntrinsic: "intrinsic",
	SymbolFunction:  "function",
	SymbolClass:     "class",
	SymbolVariable:  "variable",
	SymbolParameter: "parameter",
	SymbolImport:    "import",
	SymbolMember:    "member",
}

func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Symbol is a named binding.
type Symbol struct {
	// Name is the bound identifier.
	Name string

	// Kind is the kind of declaration that introduced the binding.
	Kind SymbolKind

	// Declaration is the declaring node. Null for intrinsic elements.
	Declaration ast.Node

	// Element is set for intrinsic markup elements only.
	Element *IntrinsicElement

	// Base is the binding of the leftmost name of a member path such as
	// Foo.Bar. Set for SymbolMember only.
	Base *Symbol
}

// TypeKind is the coarse shape of a Type.
type TypeKind int

const (
	TypeAny TypeKind = iota
	TypeFunction
	TypeClass
	TypeReference
)

// Type is a resolved type. Its display form is fixed at resolution time.
type Type struct {
	Kind TypeKind
	text string
}

// anyType is returned for anything the model cannot describe.
var anyType = Type{Kind: TypeAny, text: "any"}
