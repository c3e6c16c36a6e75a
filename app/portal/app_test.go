package portal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/app/portal"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/auth"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/config"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/idle"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/kvstore"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/pipeline"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/pkg/clock"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// backend is a minimal API: it issues a CSRF token bound to a cookie and
// rejects logins that do not present both.
type backend struct {
	csrfFetches atomic.Int32
	meCalls     atomic.Int32
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/csrf-token":
		b.csrfFetches.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "_csrf", Value: "secret", Path: "/"})
		_, _ = w.Write([]byte(`{"csrfToken":"csrf-1"}`))

	case "/api/auth/login":
		c, err := r.Cookie("_csrf")
		if err != nil || c.Value != "secret" || r.Header.Get("X-CSRF-Token") != "csrf-1" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"invalid csrf token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"admin-token"}`))

	case "/api/auth/me":
		b.meCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer admin-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user":{"id":"a1","name":"Ada Obi","user_type":"admin"}}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newConfig(baseURL string) portal.Config {
	return portal.Config{
		API: pipeline.Config{
			BaseURL:    baseURL + "/api",
			CSRFHeader: "X-CSRF-Token",
		},
		AppName:          "portal-test",
		StorageDriver:    portal.DriverMemory,
		MetricsNamespace: "test",
	}
}

func newApp(t *testing.T, cfg portal.Config, opts ...portal.AppOption) *portal.App {
	t.Helper()
	base := []portal.AppOption{
		portal.WithConfig(cfg),
		portal.WithLogger(logger.Discard()),
	}
	app, err := portal.NewApp(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_AdminLoginThroughCookieBoundCSRF(t *testing.T) {
	t.Parallel()

	b := &backend{}
	srv := httptest.NewServer(b)
	defer srv.Close()

	app := newApp(t, newConfig(srv.URL), portal.WithClock(clock.NewMock(t0)))

	u, err := app.Admin().Login(context.Background(), auth.Credentials{Identifier: "admin@mlc.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "a1", u.ID)
	assert.Equal(t, auth.RoleAdmin, u.Role)
	assert.Equal(t, int32(1), b.csrfFetches.Load())
	assert.Equal(t, idle.Watching, app.Monitor().State(portal.AudienceAdmin))

	_, ok := app.Customer().CurrentUser()
	assert.False(t, ok, "audiences do not share sessions")

	assert.Equal(t, 1.0, testutil.ToFloat64(app.Metrics().Logins.WithLabelValues(portal.AudienceAdmin, "success")))
	assert.NoError(t, app.Healthcheck(context.Background()))
}

func TestApp_RestoresSessionAcrossRestart(t *testing.T) {
	t.Parallel()

	b := &backend{}
	srv := httptest.NewServer(b)
	defer srv.Close()

	cfg := newConfig(srv.URL)
	cfg.StorageDriver = portal.DriverFile
	cfg.StorageFilePath = filepath.Join(t.TempDir(), "state", "session.json")

	mock := clock.NewMock(t0)
	first, err := portal.NewApp(context.Background(), portal.WithConfig(cfg), portal.WithLogger(logger.Discard()), portal.WithClock(mock))
	require.NoError(t, err)
	_, err = first.Admin().Login(context.Background(), auth.Credentials{Identifier: "admin@mlc.com", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	mock.Advance(3 * time.Minute)
	second := newApp(t, cfg, portal.WithClock(mock))
	require.NoError(t, second.Start(context.Background()))

	u, ok := second.Admin().CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "a1", u.ID)
	assert.Equal(t, idle.Watching, second.Monitor().State(portal.AudienceAdmin))

	_, ok = second.Customer().CurrentUser()
	assert.False(t, ok)
}

func TestApp_StaleSessionIsNotRestored(t *testing.T) {
	t.Parallel()

	b := &backend{}
	srv := httptest.NewServer(b)
	defer srv.Close()

	cfg := newConfig(srv.URL)
	cfg.StorageDriver = portal.DriverSQLite
	cfg.StorageSQLiteDSN = "file:" + filepath.Join(t.TempDir(), "portal.db")

	mock := clock.NewMock(t0)
	first, err := portal.NewApp(context.Background(), portal.WithConfig(cfg), portal.WithLogger(logger.Discard()), portal.WithClock(mock))
	require.NoError(t, err)
	_, err = first.Admin().Login(context.Background(), auth.Credentials{Identifier: "admin@mlc.com", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, first.Close())
	meBefore := b.meCalls.Load()

	mock.Set(t0.Add(45 * time.Minute))
	second := newApp(t, cfg, portal.WithClock(mock))
	require.NoError(t, second.Start(context.Background()))

	_, ok := second.Admin().CurrentUser()
	assert.False(t, ok)
	assert.Equal(t, meBefore, b.meCalls.Load(), "no who-am-I for an idle session")
	assert.NoError(t, second.Healthcheck(context.Background()))
}

func TestApp_WithStore(t *testing.T) {
	t.Parallel()

	b := &backend{}
	srv := httptest.NewServer(b)
	defer srv.Close()

	kv := kvstore.NewMemoryStore()
	reg := prometheus.NewRegistry()
	app := newApp(t, newConfig(srv.URL), portal.WithStore(kv), portal.WithRegisterer(reg))

	_, err := app.Admin().Login(context.Background(), auth.Credentials{Identifier: "admin@mlc.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 2, kv.Len(), "token and activity timestamp")

	require.NoError(t, app.Admin().Logout(context.Background()))
	assert.Equal(t, 0, kv.Len())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestApp_InvalidSetup(t *testing.T) {
	t.Parallel()

	cfg := newConfig("http://localhost:1")
	cfg.StorageDriver = "postgres"
	_, err := portal.NewApp(context.Background(), portal.WithConfig(cfg))
	assert.ErrorIs(t, err, portal.ErrUnknownDriver)

	cfg = newConfig("")
	_, err = portal.NewApp(context.Background(), portal.WithConfig(cfg))
	assert.ErrorIs(t, err, pipeline.ErrInvalidBaseURL)

	_, err = portal.NewApp(context.Background(), portal.WithLogger(nil))
	assert.Error(t, err)
	_, err = portal.NewApp(context.Background(), portal.WithStore(nil))
	assert.Error(t, err)
}

func TestApp_LoadsConfigFromEnv(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	t.Setenv("API_BASE_URL", "https://api.mylagoscommunity.test/v1")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SESSION_IDLE_TIMEOUT", "15m")

	app, err := portal.NewApp(context.Background(), portal.WithLogger(logger.Discard()))
	require.NoError(t, err)
	defer app.Close()

	cfg := app.Config()
	assert.Equal(t, "https://api.mylagoscommunity.test/v1", cfg.API.BaseURL)
	assert.Equal(t, "X-CSRF-Token", cfg.API.CSRFHeader)
	assert.Equal(t, 15*time.Minute, app.Monitor().Config().IdleTimeout)
	assert.Equal(t, time.Minute, app.Monitor().Config().PollInterval)
	assert.Equal(t, "auth/me", cfg.Auth.Me)
	assert.Equal(t, "https://api.mylagoscommunity.test/v1/", app.API().BaseURL())
}
