// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package circuit

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Default wires for the two-phase solve.
const (
	DefaultTarget   = "a"
	DefaultOverride = "b"
)

// Handlers contains the HTTP handlers for the circuit service.
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

// HandleHealth handles GET /v1/circuit/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	health := h.svc.Health(c.Request.Context())

	resp := HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
		Wires:   health.Wires,
		Source:  health.Source,
		Stats:   health.Stats,
	}
	if !health.LoadedAt.IsZero() {
		resp.LoadedAt = health.LoadedAt.UnixMilli()
	}
	c.JSON(http.StatusOK, resp)
}

// HandleInstructions handles POST /v1/circuit/instructions.
//
// Description:
//
//	Extends the board with the given instructions, or replaces it when
//	Replace is set. Nothing is applied if any line is malformed; the error
//	lists every bad line.
func (h *Handlers) HandleInstructions(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleInstructions")

	var req InstructionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	var (
		applied int
		err     error
	)
	if req.Replace {
		applied, err = h.svc.Load(ctx, joinLines(req.Instructions))
	} else {
		applied, err = h.svc.Apply(ctx, req.Instructions)
	}
	if err != nil {
		h.fail(c, logger, "Apply instructions failed", err)
		return
	}

	logger.Info("Instructions applied", "applied", applied, "replace", req.Replace)
	c.JSON(http.StatusOK, InstructionsResponse{
		Applied: applied,
		Wires:   h.svc.Health(ctx).Wires,
		Replace: req.Replace,
	})
}

// HandleGetWire handles GET /v1/circuit/wires/:name.
func (h *Handlers) HandleGetWire(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	name := c.Param("name")
	logger := h.logger.With("request_id", requestID, "handler", "HandleGetWire", "wire", name)

	ctx := c.Request.Context()
	value, err := h.svc.Evaluate(ctx, name)
	if err != nil {
		h.fail(c, logger, "Evaluate failed", err)
		return
	}

	info, err := h.svc.Describe(ctx, name)
	if err != nil {
		h.fail(c, logger, "Describe failed", err)
		return
	}

	c.JSON(http.StatusOK, WireResponse{
		Wire:       name,
		Value:      value,
		Op:         info.Op,
		Expression: info.Expression,
		Inputs:     info.Inputs,
	})
}

// HandleListWires handles GET /v1/circuit/wires.
//
// A wire that cannot be evaluated is reported with its error; the
// response is still 200.
func (h *Handlers) HandleListWires(c *gin.Context) {
	ctx := c.Request.Context()
	signals := h.svc.Signals(ctx)

	resp := SignalsResponse{Signals: make([]SignalResponse, 0, len(signals))}
	for _, sig := range signals {
		row := SignalResponse{Wire: sig.Name, Value: sig.Value}
		if sig.Err != nil {
			row.Error = sig.Err.Error()
			resp.Failed++
		}
		resp.Signals = append(resp.Signals, row)
	}
	resp.Stats = h.svc.Stats(ctx)
	c.JSON(http.StatusOK, resp)
}

// HandleOverride handles POST /v1/circuit/override.
func (h *Handlers) HandleOverride(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleOverride")

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	stats, err := h.svc.Override(c.Request.Context(), req.Wire, *req.Value)
	if err != nil {
		h.fail(c, logger, "Override failed", err)
		return
	}

	c.JSON(http.StatusOK, OverrideResponse{Wire: req.Wire, Value: *req.Value, Stats: stats})
}

// HandleRecalculate handles POST /v1/circuit/recalculate.
func (h *Handlers) HandleRecalculate(c *gin.Context) {
	stats := h.svc.Recalculate(c.Request.Context())
	c.JSON(http.StatusOK, StatsResponse{Stats: stats})
}

// HandleSolve handles POST /v1/circuit/solve.
//
// An empty body solves with the default wires.
func (h *Handlers) HandleSolve(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleSolve")

	var req SolveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid request body",
				Code:    "INVALID_REQUEST",
				Details: err.Error(),
			})
			return
		}
	}
	if req.Target == "" {
		req.Target = DefaultTarget
	}
	if req.Override == "" {
		req.Override = DefaultOverride
	}

	sol, err := h.svc.Solve(c.Request.Context(), req.Target, req.Override)
	if err != nil {
		h.fail(c, logger, "Solve failed", err)
		return
	}

	c.JSON(http.StatusOK, SolveResponse{
		Target:   sol.Target,
		Override: sol.Override,
		First:    sol.First,
		Second:   sol.Second,
	})
}

// HandleCreateSnapshot handles POST /v1/circuit/snapshots.
func (h *Handlers) HandleCreateSnapshot(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleCreateSnapshot")

	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, logger, "Snapshot failed", err)
		return
	}

	logger.Info("Snapshot saved", "snapshot_id", snap.ID, "wires", len(snap.Signals))
	c.JSON(http.StatusCreated, snap)
}

// HandleListSnapshots handles GET /v1/circuit/snapshots.
func (h *Handlers) HandleListSnapshots(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleListSnapshots")

	summaries, err := h.svc.Snapshots(c.Request.Context())
	if err != nil {
		h.fail(c, logger, "List snapshots failed", err)
		return
	}
	c.JSON(http.StatusOK, SnapshotListResponse{Snapshots: summaries})
}

// HandleGetSnapshot handles GET /v1/circuit/snapshots/:id.
func (h *Handlers) HandleGetSnapshot(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	id := c.Param("id")
	logger := h.logger.With("request_id", requestID, "handler", "HandleGetSnapshot", "snapshot_id", id)

	snap, err := h.svc.GetSnapshot(c.Request.Context(), id)
	if err != nil {
		h.fail(c, logger, "Get snapshot failed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// HandleDeleteSnapshot handles DELETE /v1/circuit/snapshots/:id.
func (h *Handlers) HandleDeleteSnapshot(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	id := c.Param("id")
	logger := h.logger.With("request_id", requestID, "handler", "HandleDeleteSnapshot", "snapshot_id", id)

	if err := h.svc.DeleteSnapshot(c.Request.Context(), id); err != nil {
		h.fail(c, logger, "Delete snapshot failed", err)
		return
	}
	logger.Info("Snapshot deleted")
	c.Status(http.StatusNoContent)
}

// fail writes the error response for err and logs it at a level matching
// the status.
func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err, "code", code)
	} else {
		logger.Warn(msg, "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// getOrCreateRequestID returns the X-Request-ID header or a new UUID, and
// echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// joinLines presents instruction lines as a stream.
func joinLines(lines []string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n"))
}
