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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/jsxref/services/refactor"
	"github.com/AleutianAI/jsxref/services/refactor/format"
)

// ErrDuplicateFile is returned when --write is combined with two targets
// in the same file. Each target's spans are computed against the file as
// it was before any of them ran, so only one can be written.
var ErrDuplicateFile = errors.New("multiple targets in one file")

func newBatchCmd(a *app) *cobra.Command {
	var (
		opts editsOptions
		jobs int
	)
	cmd := &cobra.Command{
		Use:   "batch FILE:OFFSET|FILE:LINE:COL ...",
		Short: "Run an action at several positions concurrently",
		Long: "Run an action at several positions concurrently.\n\n" +
			"Exits with status 1 if any target failed, 3 if none failed but some\n" +
			"were not applicable.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := make([]refactor.Target, len(args))
			for i, arg := range args {
				t, err := parseBatchTarget(arg)
				if err != nil {
					return err
				}
				t.File = a.workspacePath(t.File)
				targets[i] = t
			}
			if opts.write {
				if err := checkDistinctFiles(args, targets); err != nil {
					return err
				}
			}

			items, err := a.runBatch(cmd.Context(), args, targets, opts, jobs)
			if err != nil {
				return err
			}
			if err := a.printer().Batch(items); err != nil {
				return err
			}
			return batchExit(items)
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&jobs, "jobs", runtime.NumCPU(), "Maximum targets processed at once")
	return cmd
}

func checkDistinctFiles(args []string, targets []refactor.Target) error {
	seen := make(map[string]string, len(targets))
	for i, t := range targets {
		key := filepath.Clean(t.File)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateFile, prev, args[i])
		}
		seen[key] = args[i]
	}
	return nil
}

// runBatch processes targets with at most jobs in flight. Per-target
// failures are recorded in the items; only cancellation aborts the run.
func (a *app) runBatch(ctx context.Context, args []string, targets []refactor.Target, opts editsOptions, jobs int) ([]format.BatchItem, error) {
	if jobs < 1 {
		jobs = 1
	}
	items := make([]format.BatchItem, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items[i] = a.runBatchTarget(ctx, args[i], t, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *app) runBatchTarget(ctx context.Context, arg string, t refactor.Target, opts editsOptions) format.BatchItem {
	item := format.BatchItem{Target: arg}
	logger := a.logger.Slog().With(slog.String("target", arg))

	resp, err := a.svc.Edits(ctx, opts.request(t))
	if err != nil {
		logger.Debug("batch target failed", slog.String("error", err.Error()))
		item.Error = err.Error()
		return item
	}
	item.Edits = resp
	if !resp.Applicable || !opts.write {
		return item
	}

	results, err := a.svc.Apply(ctx, resp)
	item.Applied = results
	if err != nil {
		item.Error = err.Error()
	}
	return item
}

func batchExit(items []format.BatchItem) error {
	notApplicable := false
	for _, item := range items {
		if item.Error != "" {
			return &exitCodeError{code: exitError}
		}
		if item.Edits != nil && !item.Edits.Applicable {
			notApplicable = true
		}
	}
	if notApplicable {
		return &exitCodeError{code: exitNotApplicable}
	}
	return nil
}
