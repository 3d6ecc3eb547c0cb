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
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianCircuit/services/circuit/snapshot"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc, nil))
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHandleHealth(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	w := doJSON(t, router, http.MethodGet, "/v1/circuit/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceVersion, resp.Version)
	assert.Equal(t, 8, resp.Wires)
	assert.NotZero(t, resp.LoadedAt)
}

func TestHandleInstructions(t *testing.T) {
	router := setupTestRouter(t, newTestService(t, nil))

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/instructions", InstructionsRequest{
		Instructions: []string{"x AND y -> d", "12 -> x", "10 -> y"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[InstructionsResponse](t, w)
	assert.Equal(t, 3, resp.Applied)
	assert.Equal(t, 3, resp.Wires)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = doJSON(t, router, http.MethodGet, "/v1/circuit/wires/d", nil)
	require.Equal(t, http.StatusOK, w.Code)
	wire := decode[WireResponse](t, w)
	assert.Equal(t, uint16(8), wire.Value)
	assert.Equal(t, "x AND y", wire.Expression)
	assert.Equal(t, []string{"x", "y"}, wire.Inputs)
}

func TestHandleInstructions_Replace(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/instructions", InstructionsRequest{
		Instructions: []string{"1 -> a"},
		Replace:      true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[InstructionsResponse](t, w).Wires)

	w = doJSON(t, router, http.MethodGet, "/v1/circuit/wires/x", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleInstructions_Errors(t *testing.T) {
	router := setupTestRouter(t, newTestService(t, nil))

	tests := []struct {
		name string
		body interface{}
		code string
	}{
		{"missing instructions", map[string]any{}, "INVALID_REQUEST"},
		{"empty instructions", InstructionsRequest{Instructions: []string{}}, "INVALID_REQUEST"},
		{"malformed line", InstructionsRequest{Instructions: []string{"x XOR y -> z"}}, "INVALID_INSTRUCTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/v1/circuit/instructions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestHandleGetWire_Errors(t *testing.T) {
	svc := newTestService(t, nil)
	router := setupTestRouter(t, svc)

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/instructions", InstructionsRequest{
		Instructions: []string{"p -> q", "q AND 1 -> r", "s -> t", "t -> s"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	tests := []struct {
		wire   string
		status int
		code   string
	}{
		{"zz", http.StatusNotFound, "UNKNOWN_WIRE"},
		{"r", http.StatusUnprocessableEntity, "UNCONFIGURED_WIRE"},
		{"s", http.StatusUnprocessableEntity, "CYCLIC_DEPENDENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, "/v1/circuit/wires/"+tt.wire, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestHandleListWires(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	w := doJSON(t, router, http.MethodGet, "/v1/circuit/wires", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[SignalsResponse](t, w)
	require.Len(t, resp.Signals, 8)
	assert.Equal(t, 0, resp.Failed)
	assert.Equal(t, "d", resp.Signals[0].Wire)
	assert.Equal(t, uint16(72), resp.Signals[0].Value)
	assert.Equal(t, 8, resp.Stats.Wires)
}

func TestHandleOverride(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/override", map[string]any{"wire": "x", "value": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[OverrideResponse](t, w)
	assert.Equal(t, "x", resp.Wire)
	assert.Equal(t, uint64(1), resp.Stats.Epoch)

	w = doJSON(t, router, http.MethodGet, "/v1/circuit/wires/h", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint16(65535), decode[WireResponse](t, w).Value)
}

func TestHandleOverride_Invalid(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	for _, body := range []map[string]any{
		{"wire": "x"},
		{"value": 3},
		{"wire": "x", "value": 70000},
	} {
		w := doJSON(t, router, http.MethodPost, "/v1/circuit/override", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestHandleRecalculate(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/recalculate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1), decode[StatsResponse](t, w).Stats.Epoch)
}

func TestHandleSolve(t *testing.T) {
	svc := newTestService(t, nil)
	router := setupTestRouter(t, svc)

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/instructions", InstructionsRequest{
		Instructions: []string{"3 -> b", "b LSHIFT 1 -> a", "2 -> m", "m OR 1 -> n"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/v1/circuit/solve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, SolveResponse{Target: "a", Override: "b", First: 6, Second: 12}, decode[SolveResponse](t, w))

	w = doJSON(t, router, http.MethodPost, "/v1/circuit/solve", SolveRequest{Target: "n", Override: "m"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, SolveResponse{Target: "n", Override: "m", First: 3, Second: 3}, decode[SolveResponse](t, w))
}

func TestHandleSnapshots(t *testing.T) {
	router := setupTestRouter(t, func() *Service {
		svc := newTestService(t, newTestSnapshotStore(t))
		_, err := svc.Apply(t.Context(), []string{"42 -> a"})
		require.NoError(t, err)
		return svc
	}())

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/snapshots", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[snapshot.Snapshot](t, w)
	require.NotEmpty(t, created.ID)

	w = doJSON(t, router, http.MethodGet, "/v1/circuit/snapshots/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[snapshot.Snapshot](t, w)
	v, ok := got.Value("a")
	assert.True(t, ok)
	assert.Equal(t, uint16(42), v)

	w = doJSON(t, router, http.MethodGet, "/v1/circuit/snapshots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[SnapshotListResponse](t, w).Snapshots, 1)

	w = doJSON(t, router, http.MethodDelete, "/v1/circuit/snapshots/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/circuit/snapshots/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SNAPSHOT_NOT_FOUND", decode[ErrorResponse](t, w).Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/circuit/snapshots/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSnapshots_Disabled(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	w := doJSON(t, router, http.MethodPost, "/v1/circuit/snapshots", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SNAPSHOTS_DISABLED", decode[ErrorResponse](t, w).Code)
}

func TestRequestIDEchoed(t *testing.T) {
	router := setupTestRouter(t, newLoadedService(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/circuit/wires/x", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestNewRouter_RateLimitAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultServiceConfig()
	cfg.Registerer = reg
	svc, err := NewService(cfg)
	require.NoError(t, err)

	router := NewRouter(NewHandlers(svc, nil), RouterConfig{
		RateLimit: 0.001,
		Burst:     1,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	w := doJSON(t, router, http.MethodGet, "/v1/circuit/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/circuit/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", decode[ErrorResponse](t, w).Code)

	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "circuit_service_parse_failures_total")
}
