package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"braindump/application/queries"
	domainconfig "braindump/domain/config"
	"braindump/domain/core/aggregates"
	domainservices "braindump/domain/services"
	"braindump/infrastructure/di"
	"braindump/infrastructure/persistence/memory"
	"braindump/interfaces/http/rest"
	"braindump/pkg/auth"
	pkgerrors "braindump/pkg/errors"
	"braindump/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRouter wires the full application over in-memory storage. A nil
// validator switches authentication off.
func newTestRouter(t *testing.T, validator *auth.JWTValidator) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	dc := domainconfig.DefaultDomainConfig()
	dc.DebounceWindow = time.Hour

	storage := memory.NewDocumentStore()
	metrics := observability.NewCollector("braindump")
	coordinator := di.ProvidePersistenceCoordinator(storage, nil, dc, metrics, logger)
	layout := domainservices.NewLayoutEngine(dc)
	store := di.ProvideGraphStore(storage, coordinator, layout, dc, logger)
	topics := di.ProvideTopicService(store, coordinator, domainservices.NewTopicPlanner(dc), metrics, logger)
	synonyms := di.ProvideSynonymService(store, domainservices.NewSynonymMatcher(dc), logger)

	commandBus, err := di.ProvideCommandBus(store, coordinator, topics, synonyms, logger)
	require.NoError(t, err)
	queryBus, err := di.ProvideQueryBus(store, coordinator, synonyms, domainservices.NewVisibilityResolver(), layout, logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		coordinator.Close()
		coordinator.Wait()
	})

	return rest.NewRouter(commandBus, queryBus, validator, metrics, pkgerrors.NewErrorHandler(logger, false), rest.RouterConfig{
		EnableMetrics: true,
		AuthDisabled:  validator == nil,
	}, logger).Setup()
}

func do(t *testing.T, h http.Handler, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type jsonNode struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Position map[string]float64     `json:"position"`
	Data     map[string]interface{} `json:"data"`
}

func thought(id, variant, label, category string) jsonNode {
	data := map[string]interface{}{"label": label}
	if category != "" {
		data["category"] = category
	}
	return jsonNode{ID: id, Type: variant, Position: map[string]float64{"x": 0, "y": 0}, Data: data}
}

func link(source, target string) map[string]string {
	return map[string]string{"source": source, "target": target}
}

func createTasks(t *testing.T, h http.Handler, userID string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v2/entries", userID, map[string]interface{}{
		"title": "Tasks",
		"nodes": []jsonNode{
			thought("root", "root", "Root", ""),
			thought("tasks", "category", "tasks", "tasks"),
			thought("a", "thought", "A", "tasks"),
			thought("b", "thought", "B", "tasks"),
		},
		"edges": []map[string]string{link("root", "tasks"), link("tasks", "a"), link("tasks", "b")},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created aggregates.DocumentRecord
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)
	assert.Len(t, created.Nodes, 4)
	assert.Len(t, created.Edges, 3)
	return created.ID
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestRouter_CollapsingCategoryHidesItsThoughts(t *testing.T) {
	h := newTestRouter(t, nil)
	id := createTasks(t, h, "user-1")

	rec := do(t, h, http.MethodPost, "/api/v2/entries/"+id+"/nodes/tasks/collapse", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"nodeId":"tasks","isCollapsed":true}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v2/entries/"+id+"/graph", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var graph queries.VisibleGraphResult
	decode(t, rec, &graph)
	var visible []string
	for _, n := range graph.Nodes {
		visible = append(visible, n.ID)
	}
	assert.Equal(t, []string{"root", "tasks"}, visible)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "e-root-tasks", graph.Edges[0].ID)
	assert.Equal(t, []string{"a", "b"}, graph.HiddenIDs)

	// expanding restores everything
	do(t, h, http.MethodPost, "/api/v2/entries/"+id+"/nodes/tasks/collapse", "user-1", nil)
	rec = do(t, h, http.MethodGet, "/api/v2/entries/"+id+"/graph", "user-1", nil)
	decode(t, rec, &graph)
	assert.Len(t, graph.Nodes, 4)
	assert.Len(t, graph.Edges, 3)
}

func TestRouter_EntriesAreScopedToTheirOwner(t *testing.T) {
	h := newTestRouter(t, nil)
	id := createTasks(t, h, "user-1")

	rec := do(t, h, http.MethodGet, "/api/v2/entries/"+id, "user-2", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body pkgerrors.ErrorResponse
	decode(t, rec, &body)
	assert.True(t, body.Error)
	assert.Equal(t, "NOT_FOUND", body.Type)

	rec = do(t, h, http.MethodGet, "/api/v2/entries", "user-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v2/entries", "user-1", nil)
	var items []queries.EntryListItem
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
}

func TestRouter_RejectsInvalidRequests(t *testing.T) {
	h := newTestRouter(t, nil)
	id := createTasks(t, h, "user-1")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown node type", http.MethodPost, "/api/v2/entries/" + id + "/nodes", `{"type":"blob","label":"x"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v2/entries/" + id + "/nodes", `{"type":`, http.StatusBadRequest},
		{"unknown layout mode", http.MethodPut, "/api/v2/entries/" + id + "/nodes/root/layout-mode", `{"layoutMode":"diagonal"}`, http.StatusBadRequest},
		{"edge to missing node", http.MethodPost, "/api/v2/entries/" + id + "/edges", `{"source":"root","target":"nope"}`, http.StatusBadRequest},
		{"duplicate edge", http.MethodPost, "/api/v2/entries/" + id + "/edges", `{"source":"root","target":"tasks"}`, http.StatusConflict},
		{"missing entry", http.MethodGet, "/api/v2/entries/missing/graph", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("X-User-ID", "user-1")
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_NodeLifecycle(t *testing.T) {
	h := newTestRouter(t, nil)
	id := createTasks(t, h, "user-1")
	base := "/api/v2/entries/" + id

	rec := do(t, h, http.MethodPost, base+"/nodes/a/children", "user-1", map[string]string{"label": "A.1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var child jsonNode
	decode(t, rec, &child)
	assert.Equal(t, "thought", child.Type)
	assert.Equal(t, "tasks", child.Data["category"])

	rec = do(t, h, http.MethodPatch, base+"/nodes/"+child.ID, "user-1", map[string]interface{}{
		"data": map[string]interface{}{"label": "renamed"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodDelete, base+"/nodes/a", "user-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, base, "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc aggregates.DocumentRecord
	decode(t, rec, &doc)
	assert.Len(t, doc.Nodes, 4)
	for _, e := range doc.Edges {
		assert.NotEqual(t, "a", e.Source)
		assert.NotEqual(t, "a", e.Target)
	}

	rec = do(t, h, http.MethodPost, base+"/save", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"saved"`)
}

func TestRouter_ExtractAndDissolveTopic(t *testing.T) {
	h := newTestRouter(t, nil)
	id := createTasks(t, h, "user-1")
	base := "/api/v2/entries/" + id

	rec := do(t, h, http.MethodPost, base+"/nodes/tasks/topic", "user-1", map[string]string{"initialThoughts": "later"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var topic aggregates.DocumentRecord
	decode(t, rec, &topic)
	assert.Equal(t, aggregates.DocumentTopicFocused, topic.Type)
	assert.Len(t, topic.Nodes, 3)
	assert.Equal(t, id, topic.ParentBrainDumpID)

	rec = do(t, h, http.MethodGet, base+"/graph", "user-1", nil)
	var graph queries.VisibleGraphResult
	decode(t, rec, &graph)
	assert.Len(t, graph.Nodes, 2)

	rec = do(t, h, http.MethodDelete, base+"/nodes/tasks/topic", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var restored aggregates.DocumentRecord
	decode(t, rec, &restored)
	assert.Len(t, restored.Nodes, 4)
	assert.Len(t, restored.Edges, 3)

	rec = do(t, h, http.MethodGet, "/api/v2/entries/"+topic.ID, "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_FindMatches(t *testing.T) {
	h := newTestRouter(t, nil)
	createTasks(t, h, "user-1")

	rec := do(t, h, http.MethodGet, "/api/v2/matches?q=TASKS", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var matches []domainservices.Match
	decode(t, rec, &matches)
	require.Len(t, matches, 1)
	assert.Equal(t, "tasks", matches[0].Node.ID)
	assert.Equal(t, domainservices.MatchExact, matches[0].MatchType)
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "test-secret", Issuer: "braindump"})
	require.NoError(t, err)
	h := newTestRouter(t, validator)

	rec := do(t, h, http.MethodGet, "/api/v2/entries", "user-1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := validator.GenerateToken("user-1", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v2/entries", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouter_ServesMetrics(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, http.MethodGet, "/health", "", nil)

	rec := do(t, h, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `braindump_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
