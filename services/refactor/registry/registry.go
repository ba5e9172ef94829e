// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateRefactor is returned when a name is registered twice.
	ErrDuplicateRefactor = errors.New("refactor already registered")

	// ErrUnknownRefactor is returned for an unregistered refactor name.
	ErrUnknownRefactor = errors.New("unknown refactor")

	// ErrUnknownAction is returned for an action the refactor does not define.
	ErrUnknownAction = errors.New("unknown refactor action")

	// ErrRegistrySealed is returned when registering after Seal.
	ErrRegistrySealed = errors.New("registry is sealed")
)

// Registry holds the refactorings known to a host.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	refactors map[string]Refactor
	order     []string
	sealed    bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{refactors: make(map[string]Refactor)}
}

// Register adds a refactoring under name.
//
// Description:
//
//	Registration is a startup-time operation. Once the registry is sealed
//	no further refactorings can be added.
//
// Outputs:
//
//	error - ErrDuplicateRefactor or ErrRegistrySealed
func (r *Registry) Register(name string, refactor Refactor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, name)
	}
	if _, exists := r.refactors[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRefactor, name)
	}

	r.refactors[name] = refactor
	r.order = append(r.order, name)

	slog.Debug("refactor registered",
		slog.String("refactor", name),
		slog.Any("kinds", refactor.Kinds()))
	return nil
}

// Seal prevents further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Get returns the refactoring registered under name.
func (r *Registry) Get(name string) (Refactor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refactor, ok := r.refactors[name]
	return refactor, ok
}

// Names returns refactor names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Kinds returns every action kind of every refactoring, sorted and
// de-duplicated.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var kinds []string
	for _, name := range r.order {
		for _, k := range r.refactors[name].Kinds() {
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}
	sort.Strings(kinds)
	return kinds
}

// snapshot returns the registered refactorings in order without holding
// the lock during refactor calls.
func (r *Registry) snapshot() []namedRefactor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]namedRefactor, len(r.order))
	for i, name := range r.order {
		out[i] = namedRefactor{name: name, refactor: r.refactors[name]}
	}
	return out
}

type namedRefactor struct {
	name     string
	refactor Refactor
}

// GetApplicableRefactors collects the refactorings offered at rc.
//
// Description:
//
//	When kind is non-empty only actions whose kind matches it (exactly or
//	as a dotted prefix) are returned, and refactorings left with no
//	actions are dropped.
//
// Outputs:
//
//	[]ApplicableRefactorInfo - Never nil; empty when nothing applies
func (r *Registry) GetApplicableRefactors(ctx context.Context, rc *Context, kind string) []ApplicableRefactorInfo {
	result := []ApplicableRefactorInfo{}
	for _, nr := range r.snapshot() {
		if kind != "" && !anyKindMatches(kind, nr.refactor.Kinds()) {
			continue
		}
		for _, info := range nr.refactor.GetAvailableActions(ctx, rc) {
			if kind != "" {
				info.Actions = filterActions(kind, info.Actions)
				if len(info.Actions) == 0 {
					continue
				}
			}
			result = append(result, info)
		}
	}
	return result
}

// Lookup returns the refactoring registered as refactorName after checking
// that it has an action named actionName.
//
// Outputs:
//
//	Refactor - The registered refactoring
//	error - ErrUnknownRefactor or ErrUnknownAction
func (r *Registry) Lookup(refactorName, actionName string) (Refactor, error) {
	refactor, ok := r.Get(refactorName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRefactor, refactorName)
	}
	for _, a := range refactor.Actions() {
		if a.Name == actionName {
			return refactor, nil
		}
	}
	return nil, fmt.Errorf("%w: %q has no action %q", ErrUnknownAction, refactorName, actionName)
}

// GetEditsForRefactor runs one action.
//
// Outputs:
//
//	*RefactorEditInfo - The edits, or nil when the action does not apply
//	error - ErrUnknownRefactor or ErrUnknownAction
func (r *Registry) GetEditsForRefactor(ctx context.Context, rc *Context, refactorName, actionName string) (*RefactorEditInfo, error) {
	refactor, err := r.Lookup(refactorName, actionName)
	if err != nil {
		return nil, err
	}
	return refactor.GetEditsForAction(ctx, rc, actionName), nil
}

// Offered reports whether infos, as returned by GetApplicableRefactors,
// include the named action.
func Offered(infos []ApplicableRefactorInfo, refactorName, actionName string) bool {
	for _, info := range infos {
		if info.Name != refactorName {
			continue
		}
		for _, a := range info.Actions {
			if a.Name == actionName {
				return true
			}
		}
	}
	return false
}

// KindMatches reports whether kind is selected by the requested kind
// filter. An empty filter selects everything; "refactor.react" selects
// "refactor.react.addUseRef" but not "refactor.reactive".
func KindMatches(requested, kind string) bool {
	if requested == "" || requested == kind {
		return true
	}
	return strings.HasPrefix(kind, requested+".")
}

func anyKindMatches(requested string, kinds []string) bool {
	for _, k := range kinds {
		if KindMatches(requested, k) {
			return true
		}
	}
	return false
}

func filterActions(requested string, actions []RefactorActionInfo) []RefactorActionInfo {
	var out []RefactorActionInfo
	for _, a := range actions {
		if KindMatches(requested, a.Kind) {
			out = append(out, a)
		}
	}
	return out
}
