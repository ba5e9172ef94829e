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
	"fmt"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

// RefIdentifier is the name of the declared reference.
const RefIdentifier = "ref"

// refAttribute is inserted after the tag name.
const refAttribute = " ref={" + RefIdentifier + "}"

// tagNamePattern matches the first "<identifier" in an element's text,
// including a dotted member path such as <Menu.Item.
var tagNamePattern = mustCompile(`<(\w+(?:\.\w+)*)`)

// Declaration renders the reference declaration for typeName.
func Declaration(typeName string) string {
	return fmt.Sprintf("const %s = React.useRef<%s>(null);", RefIdentifier, typeName)
}

// SynthesizeEdits builds the two changes of the refactoring.
//
// Description:
//
//	The declaration is inserted directly after the opening brace of body,
//	surrounded by newlines. The element's whole span is replaced by its own
//	text with refAttribute inserted after the first "<identifier". When
//	the text has no such match, as for a closing element, the replacement
//	equals the original text.
//
// Inputs:
//
//	fileName - The file the nodes belong to
//	element - An opening, closing or self-closing element
//	body - The brace-delimited body of the enclosing function
//	typeName - Generic parameter for the declaration
//
// Outputs:
//
//	textedit.FileTextChanges - Declaration change first, then the
//	                           attribute change; spans refer to the
//	                           original text and never overlap
func SynthesizeEdits(fileName string, element, body ast.Node, typeName string) textedit.FileTextChanges {
	decl := textedit.TextChange{
		Span:    textedit.TextSpan{Start: body.Start() + 1, Length: 0},
		NewText: "\n" + Declaration(typeName) + "\n",
	}

	original := element.Text()
	modified, err := tagNamePattern.Replace(original, "<$1"+refAttribute, -1, 1)
	if err != nil {
		modified = original
	}
	attr := textedit.TextChange{
		Span:    textedit.TextSpan{Start: element.Start(), Length: element.Len()},
		NewText: modified,
	}

	return textedit.FileTextChanges{
		FileName:    fileName,
		TextChanges: []textedit.TextChange{decl, attr},
	}
}
