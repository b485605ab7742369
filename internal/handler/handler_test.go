package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"familytree_go/internal/repository"
	"familytree_go/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	log := zap.NewNop()
	db, err := repository.InitDB(context.Background(), repository.Config{
		Type:     repository.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "familytree.db"),
		LogLevel: "silent",
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	uploadDir := t.TempDir()
	uploads, err := service.NewUploadService(service.UploadConfig{Dir: uploadDir}, log, opts.Metrics)
	require.NoError(t, err)

	persons := repository.NewPersonRepository(db)
	trees := repository.NewFamilyTreeRepository(db)
	relations := repository.NewRelationshipRepository(db)
	h := New(Services{
		Persons:   service.NewPersonService(persons, trees, log, opts.Metrics),
		Trees:     service.NewFamilyTreeService(trees, persons, log, opts.Metrics),
		Relations: service.NewRelationshipService(relations, persons, log, opts.Metrics),
		Views:     service.NewTreeService(persons, log),
		Uploads:   uploads,
	}, log)

	opts.UploadDir = uploadDir
	return &testServer{t: t, router: NewRouter(h, opts)}
}

func (s *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

type personJSON struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Generation   int    `json:"generation"`
	IsAlive      bool   `json:"is_alive"`
	SpouseID     *uint  `json:"spouse_id"`
	FatherID     *uint  `json:"father_id"`
	FamilyTreeID uint   `json:"family_tree_id"`
}

func (s *testServer) createPerson(body gin.H) personJSON {
	s.t.Helper()
	w, resp := s.do(http.MethodPost, "/api/persons", body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var p personJSON
	require.NoError(s.t, json.Unmarshal(resp.Data, &p))
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	w, _ := s.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "timestamp")
	assert.Contains(t, body, "uptime")
}

func TestPersonLifecycle(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	alice := s.createPerson(gin.H{"name": "Alice", "gender": "female"})
	assert.Equal(t, 1, alice.Generation)
	assert.True(t, alice.IsAlive)
	assert.Equal(t, uint(1), alice.FamilyTreeID)

	w, resp := s.do(http.MethodGet, fmt.Sprintf("/api/persons/%d", alice.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = s.do(http.MethodPut, fmt.Sprintf("/api/persons/%d", alice.ID), gin.H{"occupation": "doctor"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "person updated", resp.Message)

	w, resp = s.do(http.MethodGet, "/api/persons?search=Ali", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Count)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/persons/%d", alice.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/api/persons/%d", alice.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestCreatePersonErrors(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w, resp := s.do(http.MethodPost, "/api/persons", gin.H{"gender": "male"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "name")

	w, _ = s.do(http.MethodPost, "/api/persons", gin.H{"name": "A", "generation": "one"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/persons/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpouseEndpoints(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	a := s.createPerson(gin.H{"name": "A", "gender": "male"})
	b := s.createPerson(gin.H{"name": "B", "gender": "female"})

	w, resp := s.do(http.MethodPost, fmt.Sprintf("/api/persons/%d/spouse", a.ID), gin.H{"spouse_id": b.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p personJSON
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	require.NotNil(t, p.SpouseID)
	assert.Equal(t, b.ID, *p.SpouseID)

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/api/persons/%d/family", b.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var family struct {
		Spouse *personJSON `json:"spouse"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &family))
	require.NotNil(t, family.Spouse)
	assert.Equal(t, a.ID, family.Spouse.ID)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/persons/%d/spouse", b.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/api/persons/%d", a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Nil(t, p.SpouseID)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/persons/%d/spouse", a.ID), gin.H{"spouse_id": a.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFamilyTreeEndpoints(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w, resp := s.do(http.MethodDelete, "/api/familytrees/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, resp.Success)

	w, resp = s.do(http.MethodPost, "/api/familytrees", gin.H{"name": "Second"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tree struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &tree))

	s.createPerson(gin.H{"name": "M", "family_tree_id": tree.ID})

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/api/familytrees/%d/members", tree.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Count)

	w, resp = s.do(http.MethodGet, "/api/familytrees", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, resp.Count)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/familytrees/%d/clone", tree.ID), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/familytrees/%d", tree.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/familytrees/%d", tree.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubgraphEndpoint(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	grandpa := s.createPerson(gin.H{"name": "Grandpa", "gender": "male"})
	dad := s.createPerson(gin.H{"name": "Dad", "gender": "male", "generation": 2, "father_id": grandpa.ID})
	kid := s.createPerson(gin.H{"name": "Kid", "generation": 3, "father_id": dad.ID})

	w, resp := s.do(http.MethodGet, fmt.Sprintf("/api/tree/%d?depth=0", dad.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var people []personJSON
	require.NoError(t, json.Unmarshal(resp.Data, &people))
	ids := make([]uint, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []uint{dad.ID, kid.ID}, ids)

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/api/tree/%d", dad.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, resp.Count)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/tree/%d?depth=-1", dad.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/tree/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = s.do(http.MethodGet, "/api/tree/generation/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Count)

	w, _ = s.do(http.MethodGet, "/api/tree/layout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRelationshipEndpoints(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	a := s.createPerson(gin.H{"name": "A"})
	b := s.createPerson(gin.H{"name": "B"})

	w, resp := s.do(http.MethodPost, "/api/relations/sibling", gin.H{"person_id_1": a.ID, "person_id_2": b.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/api/relations/person/%d/type/sibling", a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Count)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/relations/person/%d/type/cousin", a.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/relations", gin.H{
		"person_id": a.ID, "related_person_id": b.ID, "relationship_type": "sibling",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(http.MethodDelete, fmt.Sprintf("/api/relations/person/%d", b.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownAPIRoute(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	w, resp := s.do(http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestWriteRoutesRequireToken(t *testing.T) {
	auth := service.NewAuth(service.AuthConfig{SecretKey: "secret", TokenDuration: time.Hour})
	s := newTestServer(t, RouterOptions{Auth: auth})

	w, resp := s.do(http.MethodPost, "/api/persons", gin.H{"name": "A"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)

	// 读操作不需要令牌
	w, _ = s.do(http.MethodGet, "/api/persons", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.token = "garbage"
	w, _ = s.do(http.MethodPost, "/api/persons", gin.H{"name": "A"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateToken("admin", "editor")
	require.NoError(t, err)
	s.token = token
	s.createPerson(gin.H{"name": "A"})
}

func TestRateLimitAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)
	s := newTestServer(t, RouterOptions{
		Metrics:  metrics,
		Gatherer: reg,
		Limiter:  service.NewTokenBucketLimiter(rate.Limit(0.001), 1, time.Minute),
	})

	w, _ := s.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, resp := s.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, resp.Success)

	w, _ = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "familytree_http_requests_total")
	assert.Contains(t, w.Body.String(), "familytree_rate_limited_total 1")
}
