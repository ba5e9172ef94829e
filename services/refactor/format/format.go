// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package format renders refactoring results for the terminal or as JSON.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/jsxref/services/refactor"
	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/textedit"
)

// Mode selects the output encoding.
type Mode int

const (
	// ModeText writes human-readable output, colored on terminals.
	ModeText Mode = iota

	// ModeJSON writes one indented JSON document per call.
	ModeJSON
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorAdd    = lipgloss.Color("#2CD7C7")
	colorDel    = lipgloss.Color("#E74C3C")
	colorWarn   = lipgloss.Color("#F4D03F")
	colorMuted  = lipgloss.Color("241")
)

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	add    lipgloss.Style
	del    lipgloss.Style
	hunk   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	errors lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		muted:  lipgloss.NewStyle().Foreground(colorMuted),
		add:    lipgloss.NewStyle().Foreground(colorAdd),
		del:    lipgloss.NewStyle().Foreground(colorDel),
		hunk:   lipgloss.NewStyle().Foreground(colorAccent),
		ok:     lipgloss.NewStyle().Foreground(colorAdd),
		warn:   lipgloss.NewStyle().Foreground(colorWarn),
		errors: lipgloss.NewStyle().Foreground(colorDel).Bold(true),
	}
}

// Printer writes results to one writer.
type Printer struct {
	w     io.Writer
	mode  Mode
	color bool
	st    styles
}

// NewPrinter creates a printer. Text output is colored only when w is a
// terminal.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode, color: isTerminal(w), st: newStyles()}
}

// WithColor forces color on or off.
func (p *Printer) WithColor(on bool) *Printer {
	p.color = on
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Actions prints the refactorings available at a position.
func (p *Printer) Actions(resp *refactor.ActionsResponse) error {
	if p.mode == ModeJSON {
		return p.json(resp)
	}
	header := fmt.Sprintf("%s @ %d", resp.File, resp.Position)
	if len(resp.Refactors) == 0 {
		_, err := fmt.Fprintf(p.w, "%s  %s\n", header, p.render(p.st.muted, "no refactorings available"))
		return err
	}

	var b strings.Builder
	b.WriteString(p.render(p.st.title, header))
	b.WriteString("\n")
	for _, r := range resp.Refactors {
		for _, a := range r.Actions {
			fmt.Fprintf(&b, "  %s  %s\n", a.Name, p.render(p.st.muted, "["+a.Kind+"]"))
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Edits prints an edits response. Files with a diff print the diff;
// others print their text changes.
func (p *Printer) Edits(resp *refactor.EditsResponse) error {
	if p.mode == ModeJSON {
		return p.json(resp)
	}
	if !resp.Applicable {
		_, err := fmt.Fprintf(p.w, "%s @ %d  %s\n", resp.File, resp.Position,
			p.render(p.st.muted, "refactoring not applicable"))
		return err
	}

	var b strings.Builder
	for _, fc := range resp.Edits {
		if d, ok := resp.Diffs[fc.FileName]; ok {
			b.WriteString(p.Diff(d))
			continue
		}
		b.WriteString(p.render(p.st.title, fc.FileName))
		b.WriteString("\n")
		for _, tc := range fc.TextChanges {
			fmt.Fprintf(&b, "  %s %s\n", p.render(p.st.muted, tc.Span.String()), quote(tc.NewText))
		}
	}
	for _, r := range resp.Verification {
		b.WriteString(p.verification(r.FileName, r.OK(), r.SyntaxErrorsAfter && !r.SyntaxErrorsBefore, r.ErrorPosition))
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Applied prints the outcome of writing edits to disk.
func (p *Printer) Applied(results []*textedit.ApplyResult) error {
	if p.mode == ModeJSON {
		return p.json(results)
	}
	var b strings.Builder
	for _, r := range results {
		switch {
		case r.Applied:
			fmt.Fprintf(&b, "%s %s (%d changes)\n", p.render(p.st.ok, "wrote"), r.FilePath, r.ChangesApplied)
		case r.Success:
			fmt.Fprintf(&b, "%s %s (%d changes)\n", p.render(p.st.warn, "dry run"), r.FilePath, r.ChangesApplied)
		default:
			fmt.Fprintf(&b, "%s %s: %s\n", p.render(p.st.errors, "failed"), r.FilePath, r.Error)
		}
		if r.BackupPath != "" {
			fmt.Fprintf(&b, "  %s %s\n", p.render(p.st.muted, "backup"), r.BackupPath)
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// BatchItem is the outcome of one batch target.
type BatchItem struct {
	// Target is the target as given on the command line.
	Target string `json:"target"`

	Edits   *refactor.EditsResponse `json:"edits,omitempty"`
	Applied []*textedit.ApplyResult `json:"applied,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// Batch prints batch outcomes in target order.
func (p *Printer) Batch(items []BatchItem) error {
	if p.mode == ModeJSON {
		return p.json(items)
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(p.w, "%s %s\n", p.render(p.st.muted, "=="), p.render(p.st.title, item.Target)); err != nil {
			return err
		}
		if item.Error != "" {
			if _, err := fmt.Fprintf(p.w, "%s %s\n", p.render(p.st.errors, "error:"), item.Error); err != nil {
				return err
			}
			continue
		}
		if item.Edits != nil {
			if err := p.Edits(item.Edits); err != nil {
				return err
			}
		}
		if len(item.Applied) > 0 {
			if err := p.Applied(item.Applied); err != nil {
				return err
			}
		}
	}
	return nil
}

// Refactors prints the registry listing.
func (p *Printer) Refactors(resp *refactor.RefactorsResponse) error {
	if p.mode == ModeJSON {
		return p.json(resp)
	}
	var b strings.Builder
	for _, r := range resp.Refactors {
		b.WriteString(p.render(p.st.title, r.Name))
		b.WriteString("\n")
		for _, a := range r.Actions {
			fmt.Fprintf(&b, "  %s  %s\n", a.Name, p.render(p.st.muted, a.Kind))
		}
	}
	if len(resp.Kinds) > 0 {
		kinds := append([]string(nil), resp.Kinds...)
		sort.Strings(kinds)
		fmt.Fprintf(&b, "%s %s\n", p.render(p.st.muted, "kinds:"), strings.Join(kinds, ", "))
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Error prints err to the printer's writer.
func (p *Printer) Error(err error) {
	if p.mode == ModeJSON {
		_ = p.json(refactor.ErrorResponse{Error: err.Error()})
		return
	}
	fmt.Fprintf(p.w, "%s %v\n", p.render(p.st.errors, "error:"), err)
}

// Diff colors a unified diff line by line.
func (p *Printer) Diff(d string) string {
	if !p.color {
		return d
	}
	lines := strings.SplitAfter(d, "\n")
	var b strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			b.WriteString(p.st.title.Render(body))
		case strings.HasPrefix(body, "@@"):
			b.WriteString(p.st.hunk.Render(body))
		case strings.HasPrefix(body, "+"):
			b.WriteString(p.st.add.Render(body))
		case strings.HasPrefix(body, "-"):
			b.WriteString(p.st.del.Render(body))
		default:
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}

func (p *Printer) verification(file string, ok, introduced bool, pos *ast.Position) string {
	switch {
	case ok:
		return fmt.Sprintf("%s %s\n", p.render(p.st.ok, "verified"), file)
	case introduced && pos != nil:
		return fmt.Sprintf("%s %s: syntax error at %s\n", p.render(p.st.errors, "verify failed"), file, pos.String())
	default:
		return fmt.Sprintf("%s %s\n", p.render(p.st.warn, "verify incomplete"), file)
	}
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
