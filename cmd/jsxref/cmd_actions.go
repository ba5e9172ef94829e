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
)

func newActionsCmd(a *app) *cobra.Command {
	var (
		pos  positionFlags
		kind string
	)
	cmd := &cobra.Command{
		Use:   "actions FILE",
		Short: "List the refactorings available at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := pos.target(a.workspacePath(args[0]))
			if err != nil {
				return err
			}
			resp, err := a.svc.Actions(cmd.Context(), refactor.ActionsRequest{Target: target, Kind: kind})
			if err != nil {
				return err
			}
			return a.printer().Actions(resp)
		},
	}
	pos.bind(cmd)
	cmd.Flags().StringVar(&kind, "kind", "", "Only list actions of this kind or a dotted prefix of it")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered refactorings and their action kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printer().Refactors(a.svc.Refactors())
		},
	}
}
