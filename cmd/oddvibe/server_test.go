package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/ezoic/oddvibe/datasets"
	"github.com/ezoic/oddvibe/pkg/config"
	"github.com/ezoic/oddvibe/robust"
)

func newTestServer(t *testing.T) *WeightServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Iterations = 200
	return NewWeightServer(cfg, 2)
}

func do(t *testing.T, s *WeightServer, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func sampleRequest(t *testing.T) *WeightsRequest {
	t.Helper()
	sample, err := datasets.DefaultCorruptedLinear().Generate()
	require.NoError(t, err)

	r, _ := sample.X.Dims()
	req := &WeightsRequest{
		Features: make([][]float64, r),
		Target:   make([]float64, r),
	}
	for i := 0; i < r; i++ {
		req.Features[i] = []float64{sample.X.At(i, 0), sample.X.At(i, 1)}
		req.Target[i] = sample.Y.AtVec(i)
	}
	return req
}

func TestServerHealth(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServerConfigAndPolicies(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, 200, cfg.Iterations)
	assert.Equal(t, "cauchy", cfg.Policy)

	w = do(t, s, http.MethodGet, "/v1/policies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var policies []PolicyInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &policies))
	require.Len(t, policies, 4)
	for _, p := range policies {
		assert.Greater(t, p.Cutoff, 0.0, p.Name)
	}
}

func TestServerPostWeights(t *testing.T) {
	s := newTestServer(t)
	req := sampleRequest(t)
	seed := int64(11)
	req.Seed = &seed
	req.Top = 3

	w := do(t, s, http.MethodPost, "/v1/weights", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res WeightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	_, err := uuid.Parse(res.ID)
	assert.NoError(t, err)
	assert.Equal(t, seed, res.Seed)
	assert.Equal(t, "cauchy", res.Policy)
	assert.Equal(t, 200, res.Iterations)
	require.Len(t, res.Weights, 50)
	assert.InDelta(t, 1.0, floats.Sum(res.Weights), 1e-9)
	assert.Len(t, res.Suspicious, 3)

	again := do(t, s, http.MethodPost, "/v1/weights", req)
	var res2 WeightsResponse
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &res2))
	assert.Equal(t, res.Weights, res2.Weights)
	assert.NotEqual(t, res.ID, res2.ID)
}

func TestServerPostWeightsOverrides(t *testing.T) {
	req := sampleRequest(t)
	req.Iterations = 20
	req.Policy = "tukey"
	req.Cutoff = 3

	w := do(t, newTestServer(t), http.MethodPost, "/v1/weights", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res WeightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 20, res.Iterations)
	assert.Equal(t, "tukey", res.Policy)
	assert.Equal(t, 3.0, res.Cutoff)
	assert.Len(t, res.Suspicious, 10)
}

func TestServerPostWeightsCutoffWithoutPolicy(t *testing.T) {
	s := newTestServer(t)

	req := sampleRequest(t)
	w := do(t, s, http.MethodPost, "/v1/weights", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var base WeightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &base))
	assert.Equal(t, "cauchy", base.Policy)
	assert.Equal(t, robust.Cauchy().Cutoff, base.Cutoff)

	req.Cutoff = 1
	w = do(t, s, http.MethodPost, "/v1/weights", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tuned WeightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tuned))
	assert.Equal(t, "cauchy", tuned.Policy)
	assert.Equal(t, 1.0, tuned.Cutoff)
	assert.NotEqual(t, base.Weights, tuned.Weights)
}

func TestServerPostWeightsBadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty body", map[string]any{}},
		{"missing target", map[string]any{"features": [][]float64{{1}, {2}}}},
		{"empty row", map[string]any{"features": [][]float64{{1}, {}}, "target": []float64{1, 2}}},
		{"ragged rows", map[string]any{"features": [][]float64{{1, 2}, {3}}, "target": []float64{1, 2}}},
		{"target length", map[string]any{"features": [][]float64{{1}, {2}, {3}}, "target": []float64{1, 2}}},
		{"unknown policy", map[string]any{"features": [][]float64{{1}, {2}}, "target": []float64{1, 2}, "policy": "median"}},
		{"too many iterations", map[string]any{"features": [][]float64{{1}, {2}}, "target": []float64{1, 2}, "iterations": 1000001}},
		{"negative cutoff", map[string]any{"features": [][]float64{{1}, {2}}, "target": []float64{1, 2}, "cutoff": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/weights", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
