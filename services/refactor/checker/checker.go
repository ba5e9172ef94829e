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

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
)

// Option configures a Checker.
type Option func(*Checker)

// WithIntrinsics replaces the embedded intrinsic element table.
func WithIntrinsics(table *IntrinsicTable) Option {
	return func(c *Checker) {
		if table != nil {
			c.intrinsics = table
		}
	}
}

// Checker implements TypeChecker for a single source tree at a time.
type Checker struct {
	intrinsics *IntrinsicTable
}

// New creates a Checker backed by the embedded intrinsic table unless
// WithIntrinsics says otherwise.
func New(opts ...Option) *Checker {
	c := &Checker{}
	for _, opt := range opts {
		opt(c)
	}
	if c.intrinsics == nil {
		c.intrinsics = DefaultIntrinsics()
	}
	return c
}

// GetSymbolAtLocation resolves an identifier or a member path.
//
// Description:
//
//	Names that start with a lower-case letter or contain '-' are intrinsic
//	element names and are looked up in the intrinsic table. Every other
//	identifier is resolved lexically, innermost scope first. A member path
//	such as Foo.Bar resolves when its leftmost name does; the result is a
//	SymbolMember whose Base is that binding.
//
// Inputs:
//
//	node - An identifier, member_expression or nested_identifier node.
//	       Namespaced names (svg:rect) are not resolved.
//
// Outputs:
//
//	*Symbol - The resolved symbol
//	bool - False if the name is unbound
func (c *Checker) GetSymbolAtLocation(node ast.Node) (*Symbol, bool) {
	switch node.Type() {
	case "identifier":
	case "member_expression", "nested_identifier":
		return resolveMember(node)
	default:
		return nil, false
	}
	name := node.Text()
	if isIntrinsicName(name) {
		el, ok := c.intrinsics.Lookup(name)
		if !ok {
			return nil, false
		}
		return &Symbol{Name: name, Kind: SymbolIntrinsic, Element: el}, true
	}
	return resolveLexical(node, name)
}

// GetTypeOfSymbolAtLocation renders the declared type of sym.
//
// The location is accepted for interface compatibility; a single-file model
// has no flow narrowing, so the declared type is the type everywhere.
func (c *Checker) GetTypeOfSymbolAtLocation(sym *Symbol, _ ast.Node) Type {
	if sym == nil {
		return anyType
	}
	switch sym.Kind {
	case SymbolIntrinsic:
		return Type{Kind: TypeReference, text: sym.Element.PropsType()}
	case SymbolFunction:
		return Type{Kind: TypeFunction, text: renderFunction(sym.Declaration)}
	case SymbolClass:
		return Type{Kind: TypeClass, text: "typeof " + sym.Name}
	case SymbolVariable:
		return variableType(sym.Declaration)
	case SymbolMember:
		// Members of imports and parameters have no declaration in this file.
		if sym.Base == nil || sym.Base.Kind == SymbolImport || sym.Base.Kind == SymbolParameter {
			return anyType
		}
		return Type{Kind: TypeReference, text: "typeof " + sym.Name}
	case SymbolParameter:
		// A destructured binding does not carry the parameter's annotation.
		if sym.Declaration.ChildByField("pattern").Type() != "identifier" {
			return anyType
		}
		if ann := annotation(sym.Declaration.ChildByField("type")); ann != "" {
			return Type{Kind: TypeReference, text: ann}
		}
		return anyType
	default:
		return anyType
	}
}

// TypeToString returns the display form of t.
func (c *Checker) TypeToString(t Type) string {
	if t.text == "" {
		return "any"
	}
	return t.text
}

// resolveMember resolves the leftmost identifier of a member path lexically.
// Member paths never name intrinsic elements.
func resolveMember(node ast.Node) (*Symbol, bool) {
	head := node
	for head.Type() == "member_expression" || head.Type() == "nested_identifier" {
		head = head.Child(0)
	}
	if head.Type() != "identifier" {
		return nil, false
	}
	base, ok := resolveLexical(node, head.Text())
	if !ok {
		return nil, false
	}
	path := strings.Join(strings.Fields(node.Text()), "")
	return &Symbol{Name: path, Kind: SymbolMember, Declaration: base.Declaration, Base: base}, true
}

func isIntrinsicName(name string) bool {
	if name == "" {
		return false
	}
	first := name[0]
	return (first >= 'a' && first <= 'z') || strings.Contains(name, "-")
}

// variableType derives the type of a variable_declarator.
func variableType(decl ast.Node) Type {
	if ann := annotation(decl.ChildByField("type")); ann != "" {
		return Type{Kind: TypeReference, text: ann}
	}
	value := decl.ChildByField("value")
	switch value.Type() {
	case "arrow_function", "function_expression", "function":
		return Type{Kind: TypeFunction, text: renderFunction(value)}
	case "call_expression":
		if t, ok := forwardRefType(value); ok {
			return t
		}
	}
	return anyType
}

// forwardRefType renders forwardRef<T, P>(...) calls.
func forwardRefType(call ast.Node) (Type, bool) {
	callee := call.ChildByField("function").Text()
	if callee != "forwardRef" && callee != "React.forwardRef" {
		return Type{}, false
	}
	args := call.ChildByField("type_arguments").Children()
	if len(args) != 2 {
		return Type{}, false
	}
	text := fmt.Sprintf("React.ForwardRefExoticComponent<%s & React.RefAttributes<%s>>",
		collapse(args[1].Text()), collapse(args[0].Text()))
	return Type{Kind: TypeReference, text: text}, true
}

// renderFunction renders a function-like declaration as an arrow type.
func renderFunction(fn ast.Node) string {
	var params []string
	if single := fn.ChildByField("parameter"); !single.IsNull() {
		params = append(params, single.Text()+": any")
	}
	for _, p := range fn.ChildByField("parameters").Children() {
		params = append(params, renderParameter(p))
	}

	ret := annotation(fn.ChildByField("return_type"))
	if ret == "" {
		ret = "JSX.Element"
	}
	return "(" + strings.Join(params, ", ") + ") => " + ret
}

func renderParameter(p ast.Node) string {
	switch p.Type() {
	case "required_parameter", "optional_parameter":
		pattern := p.ChildByField("pattern")
		name := collapse(pattern.Text())
		if p.Type() == "optional_parameter" {
			name += "?"
		}
		typ := annotation(p.ChildByField("type"))
		if typ == "" {
			typ = "any"
			if pattern.Type() == "rest_pattern" {
				typ = "any[]"
			}
		}
		return name + ": " + typ
	case "identifier":
		return p.Text() + ": any"
	default:
		return collapse(p.Text())
	}
}

// annotation returns the text of a type_annotation without its colon.
func annotation(n ast.Node) string {
	if n.IsNull() {
		return ""
	}
	return collapse(strings.TrimPrefix(strings.TrimSpace(n.Text()), ":"))
}

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
