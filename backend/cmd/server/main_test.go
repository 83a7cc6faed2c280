package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lineage-verifier/backend/internal/graph"
	"lineage-verifier/backend/internal/lineage"
	"lineage-verifier/backend/pkg/config"
)

type stubLoader struct {
	charts map[string]lineage.Document
}

func (s stubLoader) LoadLineage(ctx context.Context, chart string) (*lineage.Graph, error) {
	doc, ok := s.charts[chart]
	if !ok {
		return nil, graph.ErrChartNotFound{Chart: chart}
	}
	return doc.Graph()
}

func testConfig() *config.Config {
	return &config.Config{Port: "8080", Env: "test", RaiseException: true}
}

func setupRouter(t *testing.T, cfg *config.Config, loader chartLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router, err := newRouter(cfg, zap.NewNop(), loader)
	require.NoError(t, err)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)
	postJSON(router, "/api/verify", `{"persons":[{"id":"a","name":"Anna"}]}`)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lineage_verifications_total")
}

func TestStagesEndpoint(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/stages", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	stages, ok := decode(t, w)["stages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, stages, 16)
	first := stages[0].(map[string]interface{})
	assert.Equal(t, "uniqueness", first["stage"])
}

func TestVerifyEndpoint_Passes(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)

	w := postJSON(router, "/api/verify", `{
		"persons": [
			{"id": "a", "name": "John"},
			{"id": "b", "name": "John Smith"},
			{"id": "c", "name": "Mary"}
		],
		"edges": [{"child": "b", "parent": "c"}]
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.NotEmpty(t, response["run_id"])
	collisions, ok := response["collisions"].([]interface{})
	require.True(t, ok)
	require.Len(t, collisions, 1)
	assert.Equal(t, map[string]interface{}{"shorter": "John", "longer": "John Smith"}, collisions[0])
	assert.Contains(t, response["stderr"], "Name starts with someone else's name: John  --- John Smith")
}

func TestVerifyEndpoint_StructuralViolation(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)

	w := postJSON(router, "/api/verify", `{
		"persons": [
			{"id": "x", "name": "X"},
			{"id": "a", "name": "A"},
			{"id": "b", "name": "B"},
			{"id": "c", "name": "C"}
		],
		"edges": [
			{"child": "x", "parent": "a"},
			{"child": "x", "parent": "b"},
			{"child": "x", "parent": "c"}
		]
	}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	response := decode(t, w)
	assert.Equal(t, "structural", response["check"])
	assert.Equal(t, []interface{}{"X", "A", "B", "C"}, response["names"])
	assert.Contains(t, response["error"], "three parents: X")
}

func TestVerifyEndpoint_InvalidRequest(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)

	t.Run("malformed body", func(t *testing.T) {
		w := postJSON(router, "/api/verify", `{"persons":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown edge target", func(t *testing.T) {
		w := postJSON(router, "/api/verify", `{
			"persons": [{"id": "a", "name": "A"}],
			"edges": [{"child": "a", "parent": "missing"}]
		}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown stage", func(t *testing.T) {
		w := postJSON(router, "/api/verify", `{"persons": [], "enable": ["no-such-stage"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown policy", func(t *testing.T) {
		w := postJSON(router, "/api/verify", `{"persons": [], "on_soft_violation": "ignore"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVerifyEndpoint_SoftViolationPolicy(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)
	body := func(policy string) string {
		return `{
			"persons": [{"id": "a", "name": "Anna K. Pekka", "attrs": {"description": "farmer"}}],
			"enable": ["naming-convention"],
			"on_soft_violation": "` + policy + `"
		}`
	}

	w := postJSON(router, "/api/verify", body("escalate"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "naming-convention", decode(t, w)["check"])

	w = postJSON(router, "/api/verify", body("log-only"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["stderr"], "not using ** for description: Anna K. Pekka")
}

func TestVerifyEndpoint_ConfigDisablesStage(t *testing.T) {
	cfg := testConfig()
	cfg.DisableStages = []string{"uniqueness"}
	router := setupRouter(t, cfg, nil)

	w := postJSON(router, "/api/verify", `{"persons": [{"id": "a", "name": "A"}, {"id": "b", "name": "A"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// request toggles do not leak into the next request
	w = postJSON(router, "/api/verify", `{"persons": [{"id": "a", "name": "A"}, {"id": "b", "name": "A"}], "enable": ["uniqueness"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = postJSON(router, "/api/verify", `{"persons": [{"id": "a", "name": "A"}, {"id": "b", "name": "A"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChartVerifyEndpoint(t *testing.T) {
	loader := stubLoader{charts: map[string]lineage.Document{
		"family": {Persons: []lineage.DocumentPerson{{ID: "a", Name: "Anna"}}},
	}}
	router := setupRouter(t, testConfig(), loader)

	w := postJSON(router, "/api/charts/family/verify", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(router, "/api/charts/other/verify", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChartVerifyEndpoint_DisabledWithoutNeo4j(t *testing.T) {
	router := setupRouter(t, testConfig(), nil)

	w := postJSON(router, "/api/charts/family/verify", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
