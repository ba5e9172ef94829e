// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command jsxref offers the "Add React useRef to Component" refactoring
// for JSX and TSX sources from the command line and over HTTP.
//
// Usage:
//
//	jsxref actions src/Form.tsx --line 12 --col 7
//	jsxref edits src/Form.tsx --offset 311 --diff --write
//	jsxref batch src/A.tsx:120 src/B.tsx:88 --write
//	jsxref serve --port 12230 --watch
//	jsxref list
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/AleutianAI/jsxref/services/refactor/format"
)

// Exit codes.
const (
	exitOK            = 0
	exitError         = 1
	exitNotApplicable = 3
)

// exitCodeError carries a process exit code. A nil err means the command
// already reported the outcome.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return "exit status " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ec *exitCodeError
	if errors.As(err, &ec) {
		if ec.err != nil {
			a.errorPrinter().Error(ec.err)
		}
		return ec.code
	}
	a.errorPrinter().Error(err)
	return exitError
}

func (a *app) errorPrinter() *format.Printer {
	return format.NewPrinter(a.stderr, a.mode())
}
