package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"Directory/internal/config"
	dom "Directory/internal/domain"
	"Directory/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(driver string) config.Config {
	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "v0.0.0-test"
	cfg.Store.Driver = driver
	return cfg
}

func TestNewWithSQLiteServesAccounts(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "directory.db")
	ctx := context.Background()

	a, err := New(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(ctx) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts",
		strings.NewReader(`{"username":"alice","email":"alice@x.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/by-username/alice", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "directory.db")
	ctx := context.Background()

	first, err := New(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	_, err = first.Service().Create(ctx, dom.Account{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second, err := New(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close(ctx) })
	list, err := second.Service().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestServiceRoutes(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(config.DriverMemory), logger.Discard())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "v0.0.0-test", body["version"])

	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger-doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/accounts/by-email/{email}")
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig("mongo"), logger.Discard())
	assert.Error(t, err)
}
