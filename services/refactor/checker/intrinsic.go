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
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed intrinsic_elements.yaml
var defaultIntrinsicsYAML []byte

// MaxIntrinsicElements bounds the size of a loaded intrinsic table.
const MaxIntrinsicElements = 1000

// ElementNamespace distinguishes HTML from SVG intrinsic elements.
type ElementNamespace int

const (
	NamespaceHTML ElementNamespace = iota
	NamespaceSVG
)

// IntrinsicElement describes one lower-case markup tag.
type IntrinsicElement struct {
	// Tag is the markup tag name, e.g. "div".
	Tag string

	// Namespace is HTML or SVG.
	Namespace ElementNamespace

	// Element is the DOM interface the tag renders, e.g. "HTMLDivElement".
	Element string

	// Attributes is the React attribute-bag type, e.g. "HTMLAttributes".
	// Empty for SVG elements.
	Attributes string
}

// PropsType renders the props type React declares for the element.
//
// HTML elements render as DetailedHTMLProps over their attribute bag. SVG
// elements render as SVGProps.
func (e *IntrinsicElement) PropsType() string {
	if e.Namespace == NamespaceSVG {
		return fmt.Sprintf("React.SVGProps<%s>", e.Element)
	}
	return fmt.Sprintf("React.DetailedHTMLProps<React.%s<%s>, %s>", e.Attributes, e.Element, e.Element)
}

// intrinsicsYAML is the on-disk shape of the intrinsic table.
type intrinsicsYAML struct {
	HTML map[string]struct {
		Element    string `yaml:"element"`
		Attributes string `yaml:"attributes"`
	} `yaml:"html"`
	SVG map[string]string `yaml:"svg"`
}

// IntrinsicTable maps lower-case tag names to their element descriptions.
//
// Thread Safety: immutable after construction, safe for concurrent use.
type IntrinsicTable struct {
	elements map[string]*IntrinsicElement
}

// LoadIntrinsicTable parses an intrinsic table from YAML.
//
// Description:
//
//	Every HTML entry must name both its DOM interface and its attribute bag.
//	A tag may appear in only one namespace.
//
// Outputs:
//
//	*IntrinsicTable - The parsed table
//	error - Non-nil if the YAML is malformed or an entry is incomplete
func LoadIntrinsicTable(data []byte) (*IntrinsicTable, error) {
	var raw intrinsicsYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling intrinsic table: %w", err)
	}
	if len(raw.HTML)+len(raw.SVG) > MaxIntrinsicElements {
		return nil, fmt.Errorf("too many intrinsic elements: %d (max %d)",
			len(raw.HTML)+len(raw.SVG), MaxIntrinsicElements)
	}

	table := &IntrinsicTable{elements: make(map[string]*IntrinsicElement, len(raw.HTML)+len(raw.SVG))}
	for tag, entry := range raw.HTML {
		if entry.Element == "" || entry.Attributes == "" {
			return nil, fmt.Errorf("html element %q: element and attributes are required", tag)
		}
		table.elements[tag] = &IntrinsicElement{
			Tag:        tag,
			Namespace:  NamespaceHTML,
			Element:    entry.Element,
			Attributes: entry.Attributes,
		}
	}
	for tag, element := range raw.SVG {
		if element == "" {
			return nil, fmt.Errorf("svg element %q: element is required", tag)
		}
		if _, dup := table.elements[tag]; dup {
			return nil, fmt.Errorf("element %q declared in both html and svg", tag)
		}
		table.elements[tag] = &IntrinsicElement{
			Tag:       tag,
			Namespace: NamespaceSVG,
			Element:   element,
		}
	}
	return table, nil
}

// Lookup returns the element for a tag.
func (t *IntrinsicTable) Lookup(tag string) (*IntrinsicElement, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.elements[tag]
	return e, ok
}

// Len returns the number of known elements.
func (t *IntrinsicTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.elements)
}

var (
	defaultIntrinsics     *IntrinsicTable
	defaultIntrinsicsErr  error
	defaultIntrinsicsOnce sync.Once
)

// DefaultIntrinsics returns the embedded intrinsic table.
//
// The embedded YAML is part of the binary; a parse failure is a build
// defect and panics.
func DefaultIntrinsics() *IntrinsicTable {
	defaultIntrinsicsOnce.Do(func() {
		defaultIntrinsics, defaultIntrinsicsErr = LoadIntrinsicTable(defaultIntrinsicsYAML)
	})
	if defaultIntrinsicsErr != nil {
		panic(fmt.Sprintf("embedded intrinsic table: %v", defaultIntrinsicsErr))
	}
	return defaultIntrinsics
}
