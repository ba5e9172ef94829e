// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsxref/services/refactor"
	"github.com/AleutianAI/jsxref/services/refactor/useref"
)

// editsOptions are the flags shared by edits and batch.
type editsOptions struct {
	refactorName string
	actionName   string
	diff         bool
	verify       bool
	write        bool
}

func (o *editsOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.refactorName, "refactor", useref.RefactorName, "Refactoring name")
	cmd.Flags().StringVar(&o.actionName, "action", useref.ActionName, "Action name")
	cmd.Flags().BoolVar(&o.diff, "diff", false, "Print a unified diff instead of raw text changes")
	cmd.Flags().BoolVar(&o.verify, "verify", false, "Re-parse the result and check the inserted hook")
	cmd.Flags().BoolVar(&o.write, "write", false, "Write the edits to disk")
}

func (o *editsOptions) request(target refactor.Target) refactor.EditsRequest {
	return refactor.EditsRequest{
		Target:   target,
		Refactor: o.refactorName,
		Action:   o.actionName,
		Diff:     o.diff,
		Verify:   o.verify,
	}
}

func newEditsCmd(a *app) *cobra.Command {
	var (
		pos  positionFlags
		opts editsOptions
	)
	cmd := &cobra.Command{
		Use:   "edits FILE",
		Short: "Compute, and optionally write, the edits for one action",
		Long: "Compute the text changes for an action at a position.\n\n" +
			"Exits with status 3 when the action does not apply at the position.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := pos.target(a.workspacePath(args[0]))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p := a.printer()

			resp, err := a.svc.Edits(ctx, opts.request(target))
			if err != nil {
				return err
			}
			if err := p.Edits(resp); err != nil {
				return err
			}
			if !resp.Applicable {
				return &exitCodeError{code: exitNotApplicable}
			}
			if !opts.write {
				return nil
			}

			results, applyErr := a.svc.Apply(ctx, resp)
			if err := p.Applied(results); err != nil {
				return err
			}
			return applyErr
		},
	}
	pos.bind(cmd)
	opts.bind(cmd)
	return cmd
}
