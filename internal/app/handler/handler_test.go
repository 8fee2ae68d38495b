package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"

	"asdm/internal/app/config"
	"asdm/internal/app/ds"
	"asdm/internal/app/redis"
	"asdm/internal/app/repository"
	"asdm/internal/app/role"
	"asdm/internal/app/storage"
)

const testPassword = "motdepasse1"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	h      *Handler
	repo   *repository.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	repo, err := repository.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	mr := miniredis.RunT(t)
	sessions := redis.NewWithClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), config.RedisConfig{}, time.Hour)

	files, err := storage.NewLocalStore(afero.NewMemMapFs(), "media")
	require.NoError(t, err)

	cfg := &config.Config{
		SiteTitle:   "Administration ASDM",
		CORSOrigins: []string{"http://localhost:3000"},
		Session:     config.SessionConfig{CookieName: "sessionid", TTL: time.Hour},
		Storage:     config.StorageConfig{Backend: "local", MaxSize: 1 << 20},
	}
	h := NewHandler(repo, sessions, files, cfg)
	h.PasswordCost = bcrypt.MinCost
	RegisterValidatorTags()

	router := gin.New()
	h.RegisterRoutes(router)
	return &testServer{t: t, router: router, h: h, repo: repo}
}

func (ts *testServer) seedUser(email string, rl role.Role) *ds.User {
	ts.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(ts.t, err)
	u := &ds.User{
		LastName:     "Ndiaye",
		FirstName:    strings.Split(email, "@")[0],
		Email:        email,
		PasswordHash: string(hash),
		Role:         rl,
		CreatedAt:    time.Now(),
	}
	require.NoError(ts.t, ts.repo.CreateUser(context.Background(), u))
	return u
}

// login returns the session id of a fresh session for email.
func (ts *testServer) login(email string) string {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(ts.t, http.StatusOK, w.Code, w.Body.String())
	return decode(ts.t, w)["session_id"].(string)
}

func (ts *testServer) do(method, path, sid string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.Header.Set("X-Session-ID", sid)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	errs, ok := decode(t, w)["errors"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return errs
}

func TestPingAndIndex(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", decode(t, w)["message"])

	w = ts.do(http.MethodGet, "/api", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Administration ASDM", decode(t, w)["title"])
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser("awa@asdm.sn", role.Demandeur)

	w := ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "awa@asdm.sn", "password": "mauvais"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "inconnu@asdm.sn", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "awa@asdm.sn"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "AWA@asdm.sn", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	sid := decode(t, w)["session_id"].(string)
	assert.NotEmpty(t, sid)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "sessionid="+sid)

	w = ts.do(http.MethodGet, "/auth/profile", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "awa@asdm.sn", decode(t, w)["email"])

	w = ts.do(http.MethodPost, "/auth/logout", sid, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/auth/profile", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile_WithoutSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/api/demandes", "not-a-session", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateUser_Registration(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser("admin@asdm.sn", role.Admin)

	body := map[string]string{"nom": "Fall", "prenom": "Moussa", "email": "moussa@asdm.sn", "password": testPassword}
	w := ts.do(http.MethodPost, "/api/utilisateurs", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "demandeur", created["role"])
	assert.NotContains(t, created, "password")

	w = ts.do(http.MethodPost, "/api/utilisateurs", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_exists", fieldErrors(t, w)["email"])

	agent := map[string]string{"nom": "Sy", "email": "sy@asdm.sn", "password": testPassword, "role": "agent"}
	w = ts.do(http.MethodPost, "/api/utilisateurs", "", agent)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPost, "/api/utilisateurs", ts.login("admin@asdm.sn"), agent)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "agent", decode(t, w)["role"])

	w = ts.do(http.MethodPost, "/api/utilisateurs", "", map[string]string{"nom": "X", "email": "pas-un-email", "password": "court"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := fieldErrors(t, w)
	assert.Equal(t, "invalid_email", errs["email"])
	assert.Equal(t, "too_short", errs["password"])
}

func TestUpdateUser_RoleIsImmutable(t *testing.T) {
	ts := newTestServer(t)
	ts.seedUser("awa@asdm.sn", role.Demandeur)
	agent := ts.seedUser("agent@asdm.sn", role.Agent)
	ts.seedUser("admin@asdm.sn", role.Admin)
	applicant := ts.login("awa@asdm.sn")
	agentSid := ts.login("agent@asdm.sn")
	admin := ts.login("admin@asdm.sn")

	id := uint(ts.submit(applicant, map[string]any{"type": "equipement", "montant": 750000})["id"].(float64))
	path := fmt.Sprintf("/api/demandes/%d", id)
	w := ts.do(http.MethodPost, path+"/assigner-agent", admin, map[string]any{"agent_id": agent.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	userPath := fmt.Sprintf("/api/utilisateurs/%d", agent.ID)
	w = ts.do(http.MethodPut, userPath, admin, map[string]string{"role": "demandeur"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "immutable", fieldErrors(t, w)["role"])

	// same role is accepted with the other fields
	w = ts.do(http.MethodPut, userPath, admin, map[string]string{"role": "agent", "prenom": "Ibrahima"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "agent", decode(t, w)["role"])

	w = ts.do(http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assigned, ok := decode(t, w)["agent_traitant"].(map[string]any)
	require.True(t, ok, w.Body.String())
	assert.Equal(t, "agent", assigned["role"])

	w = ts.do(http.MethodPost, path+"/accepter", agentSid, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUsers_Access(t *testing.T) {
	ts := newTestServer(t)
	awa := ts.seedUser("awa@asdm.sn", role.Demandeur)
	omar := ts.seedUser("omar@asdm.sn", role.Demandeur)
	ts.seedUser("admin@asdm.sn", role.Admin)
	sid := ts.login("awa@asdm.sn")

	w := ts.do(http.MethodGet, "/api/utilisateurs", sid, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodGet, fmt.Sprintf("/api/utilisateurs/%d", omar.ID), sid, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodGet, "/api/utilisateurs/me", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, awa.ID, decode(t, w)["id"])

	w = ts.do(http.MethodPut, fmt.Sprintf("/api/utilisateurs/%d", awa.ID), sid, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "immutable", fieldErrors(t, w)["role"])

	w = ts.do(http.MethodPut, fmt.Sprintf("/api/utilisateurs/%d", awa.ID), sid, map[string]string{"telephone": "+221770000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "+221770000000", decode(t, w)["telephone"])

	admin := ts.login("admin@asdm.sn")
	w = ts.do(http.MethodGet, "/api/utilisateurs?role=demandeur", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	w = ts.do(http.MethodGet, "/api/utilisateurs?role=chef", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodDelete, fmt.Sprintf("/api/utilisateurs/%d", omar.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(http.MethodGet, fmt.Sprintf("/api/utilisateurs/%d", omar.ID), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodGet, "/ping", "", nil)

	w := ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `asdm_http_requests_total{method="GET",path="/ping",status="200"}`)
}
