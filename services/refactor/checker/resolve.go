// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import "github.com/AleutianAI/jsxref/services/refactor/ast"

// resolveLexical walks the scopes enclosing node, innermost first, and
// returns the first binding of name.
//
// Declarations are hoisted within their scope: a binding declared later in
// the same block still resolves.
func resolveLexical(node ast.Node, name string) (*Symbol, bool) {
	for _, scope := range node.Tree().Ancestors(node) {
		switch {
		case scope.Kind() == ast.KindFunctionLike:
			if sym, ok := bindingInFunction(scope, name); ok {
				return sym, true
			}
		case scope.Type() == "statement_block" || scope.Type() == "program":
			for _, stmt := range scope.Children() {
				if sym, ok := bindingInStatement(stmt, name); ok {
					return sym, true
				}
			}
		}
	}
	return nil, false
}

// bindingInFunction checks the parameters of a function and, for named
// function expressions, the function's own name.
func bindingInFunction(fn ast.Node, name string) (*Symbol, bool) {
	if single := fn.ChildByField("parameter"); single.Text() == name {
		return &Symbol{Name: name, Kind: SymbolParameter, Declaration: single}, true
	}
	for _, p := range fn.ChildByField("parameters").Children() {
		pattern := p
		if p.Type() == "required_parameter" || p.Type() == "optional_parameter" {
			pattern = p.ChildByField("pattern")
		}
		if patternBinds(pattern, name) {
			return &Symbol{Name: name, Kind: SymbolParameter, Declaration: p}, true
		}
	}
	if fn.Type() == "function_expression" || fn.Type() == "function" {
		if fn.ChildByField("name").Text() == name {
			return &Symbol{Name: name, Kind: SymbolFunction, Declaration: fn}, true
		}
	}
	return nil, false
}

// patternBinds reports whether a binding pattern introduces name.
func patternBinds(pattern ast.Node, name string) bool {
	switch pattern.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return pattern.Text() == name
	case "rest_pattern", "assignment_pattern":
		return patternBinds(pattern.Child(0), name)
	case "object_pattern", "array_pattern":
		for _, el := range pattern.Children() {
			if patternBinds(el, name) {
				return true
			}
		}
	case "pair_pattern":
		return patternBinds(pattern.ChildByField("value"), name)
	case "object_assignment_pattern":
		return patternBinds(pattern.ChildByField("left"), name)
	}
	return false
}

// bindingInStatement checks whether a top-level statement of a scope
// declares name.
func bindingInStatement(stmt ast.Node, name string) (*Symbol, bool) {
	switch stmt.Type() {
	case "function_declaration", "generator_function_declaration":
		if stmt.ChildByField("name").Text() == name {
			return &Symbol{Name: name, Kind: SymbolFunction, Declaration: stmt}, true
		}
	case "class_declaration", "abstract_class_declaration":
		if stmt.ChildByField("name").Text() == name {
			return &Symbol{Name: name, Kind: SymbolClass, Declaration: stmt}, true
		}
	case "lexical_declaration", "variable_declaration":
		for _, decl := range stmt.Children() {
			if decl.Type() != "variable_declarator" {
				continue
			}
			if decl.ChildByField("name").Text() == name {
				return &Symbol{Name: name, Kind: SymbolVariable, Declaration: decl}, true
			}
		}
	case "export_statement":
		if decl := stmt.ChildByField("declaration"); !decl.IsNull() {
			return bindingInStatement(decl, name)
		}
		// export default function Name() {} exposes the declaration unfielded.
		for _, child := range stmt.Children() {
			if sym, ok := bindingInStatement(child, name); ok {
				return sym, true
			}
		}
	case "import_statement":
		if clause := stmt.ChildByType("import_clause"); !clause.IsNull() {
			return bindingInImport(clause, name)
		}
	}
	return nil, false
}

func bindingInImport(clause ast.Node, name string) (*Symbol, bool) {
	for _, part := range clause.Children() {
		switch part.Type() {
		case "identifier":
			if part.Text() == name {
				return &Symbol{Name: name, Kind: SymbolImport, Declaration: part}, true
			}
		case "namespace_import":
			if part.ChildByType("identifier").Text() == name {
				return &Symbol{Name: name, Kind: SymbolImport, Declaration: part}, true
			}
		case "named_imports":
			for _, spec := range part.Children() {
				local := spec.ChildByField("alias")
				if local.IsNull() {
					local = spec.ChildByField("name")
				}
				if local.Text() == name {
					return &Symbol{Name: name, Kind: SymbolImport, Declaration: spec}, true
				}
			}
		}
	}
	return nil, false
}
