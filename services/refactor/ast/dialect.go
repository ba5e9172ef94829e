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
	"path/filepath"
	"strings"
)

// Dialect identifies the flavour of script a file is written in.
type Dialect int

const (
	// DialectUnknown is returned for extensions no grammar handles.
	DialectUnknown Dialect = iota

	// DialectTypeScript covers .ts, .mts and .cts files.
	DialectTypeScript

	// DialectTSX covers .tsx files.
	DialectTSX

	// DialectJavaScript covers .js, .mjs and .cjs files.
	DialectJavaScript

	// DialectJSX covers .jsx files.
	DialectJSX
)

var dialectNames = map[Dialect]string{
	DialectUnknown:    "unknown",
	DialectTypeScript: "typescript",
	DialectTSX:        "tsx",
	DialectJavaScript: "javascript",
	DialectJSX:        "jsx",
}

var dialectByExt = map[string]Dialect{
	".ts":  DialectTypeScript,
	".mts": DialectTypeScript,
	".cts": DialectTypeScript,
	".tsx": DialectTSX,
	".js":  DialectJavaScript,
	".mjs": DialectJavaScript,
	".cjs": DialectJavaScript,
	".jsx": DialectJSX,
}

// String returns the dialect name.
func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return "unknown"
}

// IsUntyped reports whether the dialect carries no type annotations.
//
// JavaScript files fall in this category; semantic type names computed for
// them would be meaningless.
func (d Dialect) IsUntyped() bool {
	return d == DialectJavaScript || d == DialectJSX
}

// DialectForFile maps a file name to its dialect by extension.
//
// Declaration files (".d.ts") are TypeScript. Matching is case-insensitive.
func DialectForFile(fileName string) Dialect {
	ext := strings.ToLower(filepath.Ext(fileName))
	if d, ok := dialectByExt[ext]; ok {
		return d
	}
	return DialectUnknown
}
