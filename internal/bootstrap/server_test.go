package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Domenick1991/wingquest/api"
	"github.com/Domenick1991/wingquest/config"
	"github.com/Domenick1991/wingquest/internal/service/chat"
	"github.com/Domenick1991/wingquest/internal/service/checkin"
	"github.com/Domenick1991/wingquest/internal/storage"
	"github.com/Domenick1991/wingquest/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s stubChecker) CheckConnection(context.Context) error { return s.err }

func testDeps(events ConnectionChecker) Deps {
	store := storage.NewMemoryStorage()
	return Deps{
		Backends:      api.ClientFactory("http://127.0.0.1:1"),
		Registry:      checkin.NewRegistry(time.Minute),
		Conversations: chat.NewConversationStore(store),
		Hub:           websocket.NewHub(nil),
		Storage:       store,
		Events:        events,
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestRouter_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := NewRouter(testConfig(), testDeps(stubChecker{}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kafka":"ok"`)

	router = NewRouter(testConfig(), testDeps(stubChecker{err: errors.New("no brokers")}))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no brokers")
}

func TestRouter_ProtectedRoutesWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testConfig(), testDeps(nil))

	for _, path := range []string{"/api/orders", "/api/orders/stats", "/api/trips/recent", "/api/conversations"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-UI-Path", "/admin/orders")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Contains(t, w.Body.String(), `"login_route":"/admin/login"`, path)
	}
}

func TestRouter_SwaggerDocs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openapi.json"), []byte(`{"openapi":"3.0.3"}`), 0o644))

	cfg := testConfig()
	cfg.HTTP.SwaggerDir = dir
	router := NewRouter(cfg, testDeps(nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/index.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger")
}

func TestNewServers_HealthService(t *testing.T) {
	s := newServers(testConfig(), testDeps(nil))
	require.NotNil(t, s.grpcServer)
	info := s.grpcServer.GetServiceInfo()
	_, ok := info["grpc.health.v1.Health"]
	assert.True(t, ok)
}
