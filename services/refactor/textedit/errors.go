// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package textedit

import "errors"

var (
	// ErrOverlappingChanges is returned when two changes to the same file
	// touch the same bytes of the original text.
	ErrOverlappingChanges = errors.New("text changes overlap")

	// ErrSpanOutOfRange is returned when a change span lies outside the text.
	ErrSpanOutOfRange = errors.New("text change span out of range")

	// ErrPathEscapesBase is returned when a target path resolves outside
	// the applier's base directory.
	ErrPathEscapesBase = errors.New("path escapes base directory")

	// ErrStaleContent is returned when the file on disk no longer matches
	// the content the changes were computed against.
	ErrStaleContent = errors.New("file content changed since changes were computed")
)
