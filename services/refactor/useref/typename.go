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

import (
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/checker"
)

// FallbackElementType is the reference type used for closing elements.
const FallbackElementType = "HTMLElement"

// regexTimeout bounds each match against rendered or source text.
const regexTimeout = 100 * time.Millisecond

// attributeBagPattern extracts the host element from an attribute-bag type
// such as React.InputHTMLAttributes<HTMLInputElement>.
var attributeBagPattern = mustCompile(`HTMLAttributes<(\w+)>`)

func mustCompile(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.ECMAScript)
	re.MatchTimeout = regexTimeout
	return re
}

// ElementTypeName derives the generic parameter for a reference to the
// element n.
//
// Description:
//
//	For opening and self-closing elements the tag is resolved through tc.
//	An unresolved tag falls back to its text with the first letter
//	upper-cased. A resolved type whose display form contains
//	HTMLAttributes<Inner> yields Inner; any other display form is used
//	as-is. Closing elements yield FallbackElementType.
//
// Limitations:
//
//	The extraction matches the rendered type text, so aliased or renamed
//	attribute-bag types are not recognised. A member tag such as
//	<Menu.Item> resolves through its leftmost name and renders as
//	typeof Menu.Item, or any when that name is an import or parameter;
//	the member's own declaration is not inspected.
func ElementTypeName(n ast.Node, tc checker.TypeChecker) string {
	if n.Kind() != ast.KindJsxOpeningElement && n.Kind() != ast.KindJsxSelfClosingElement {
		return FallbackElementType
	}

	tag := n.ChildByField("name")
	sym, ok := tc.GetSymbolAtLocation(tag)
	if !ok {
		return capitalize(tag.Text())
	}

	typeName := tc.TypeToString(tc.GetTypeOfSymbolAtLocation(sym, n))
	if m, err := attributeBagPattern.FindStringMatch(typeName); err == nil && m != nil {
		if inner := m.GroupByNumber(1); inner != nil {
			return inner.String()
		}
	}
	return typeName
}

// capitalize upper-cases the first letter of s.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
