// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package refactor

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/jsxref/services/refactor/ast"
	"github.com/AleutianAI/jsxref/services/refactor/program"
	"github.com/AleutianAI/jsxref/services/refactor/registry"
	"github.com/AleutianAI/jsxref/services/refactor/telemetry"
)

// Handlers contains the HTTP handlers for the refactor API.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// HandleActions handles POST /v1/refactor/actions.
//
// Request Body:
//
//	ActionsRequest
//
// Response:
//
//	200 OK: ActionsResponse, with an empty refactors array when nothing applies
//	400 Bad Request: Malformed body, bad path or position
//	404 Not Found: File does not exist
func (h *Handlers) HandleActions(c *gin.Context) {
	const endpoint = "actions"
	start := time.Now()
	logger := h.requestLogger(c, "HandleActions")

	var req ActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, logger, endpoint, start, err)
		return
	}

	resp, err := h.svc.Actions(c.Request.Context(), req)
	if err != nil {
		h.fail(c, logger, endpoint, start, err)
		return
	}

	outcome := outcomeNotApplicable
	if len(resp.Refactors) > 0 {
		outcome = outcomeApplicable
	}
	observeRequest(endpoint, outcome, start)
	logger.Debug("listed actions",
		slog.String("file", req.File),
		slog.Int("position", resp.Position),
		slog.Int("refactors", len(resp.Refactors)))
	c.JSON(http.StatusOK, resp)
}

// HandleEdits handles POST /v1/refactor/edits.
//
// Response:
//
//	200 OK: EditsResponse; applicable is false when the refactoring declines
//	400 Bad Request: Malformed body, bad path or position
//	404 Not Found: File, refactor or action does not exist
func (h *Handlers) HandleEdits(c *gin.Context) {
	h.handleEdits(c, "edits", "HandleEdits", false)
}

// HandlePreview handles POST /v1/refactor/preview.
//
// Same as HandleEdits, with unified diffs and round-trip verification
// always included.
func (h *Handlers) HandlePreview(c *gin.Context) {
	h.handleEdits(c, "preview", "HandlePreview", true)
}

func (h *Handlers) handleEdits(c *gin.Context, endpoint, name string, preview bool) {
	start := time.Now()
	logger := h.requestLogger(c, name)

	var req EditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, logger, endpoint, start, err)
		return
	}

	var (
		resp *EditsResponse
		err  error
	)
	if preview {
		resp, err = h.svc.Preview(c.Request.Context(), req)
	} else {
		resp, err = h.svc.Edits(c.Request.Context(), req)
	}
	if err != nil {
		h.fail(c, logger, endpoint, start, err)
		return
	}

	if resp.Applicable {
		observeEdits(resp)
		observeRequest(endpoint, outcomeApplicable, start)
	} else {
		observeRequest(endpoint, outcomeNotApplicable, start)
	}
	logger.Debug("computed edits",
		slog.String("file", req.File),
		slog.String("refactor", req.Refactor),
		slog.Bool("applicable", resp.Applicable))
	c.JSON(http.StatusOK, resp)
}

// HandleRefactors handles GET /v1/refactor/refactors.
func (h *Handlers) HandleRefactors(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Refactors())
}

// HandleHealth handles GET /v1/refactor/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return telemetry.LoggerWithRequest(c.Request.Context(), h.logger, requestID(c)).
		With(slog.String("handler", handler))
}

func (h *Handlers) badRequest(c *gin.Context, logger *slog.Logger, endpoint string, start time.Time, err error) {
	logger.Warn("Invalid request body", slog.String("error", err.Error()))
	observeRequest(endpoint, outcomeClientError, start)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request body",
		Code:    "INVALID_REQUEST",
		Details: err.Error(),
	})
}

func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, endpoint string, start time.Time, err error) {
	status, code := classifyError(err)
	outcome := outcomeClientError
	if status >= http.StatusInternalServerError {
		outcome = outcomeServerError
		logger.Error("refactor request failed", slog.String("error", err.Error()))
	} else {
		logger.Info("refactor request rejected",
			slog.String("code", code),
			slog.String("error", err.Error()))
	}
	observeRequest(endpoint, outcome, start)
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// classifyError maps service errors to an HTTP status and error code.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, program.ErrFileNotFound):
		return http.StatusNotFound, "FILE_NOT_FOUND"
	case errors.Is(err, registry.ErrUnknownRefactor):
		return http.StatusNotFound, "UNKNOWN_REFACTOR"
	case errors.Is(err, registry.ErrUnknownAction):
		return http.StatusNotFound, "UNKNOWN_ACTION"
	case errors.Is(err, program.ErrOutsideRoot):
		return http.StatusBadRequest, "INVALID_PATH"
	case errors.Is(err, ast.ErrUnsupportedDialect):
		return http.StatusBadRequest, "UNSUPPORTED_FILE"
	case errors.Is(err, ast.ErrInvalidContent):
		return http.StatusBadRequest, "INVALID_CONTENT"
	case errors.Is(err, ast.ErrOffsetOutOfRange), errors.Is(err, ErrMissingPosition):
		return http.StatusBadRequest, "INVALID_POSITION"
	case errors.Is(err, ast.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	default:
		return http.StatusInternalServerError, "REFACTOR_FAILED"
	}
}
