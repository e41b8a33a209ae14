package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellmind-session-svc/src/clients"
	"wellmind-session-svc/src/internal/activity"
	"wellmind-session-svc/src/internal/config"
)

type noopResetter struct {
	calls int
}

func (r *noopResetter) Reset() { r.calls++ }

func handlerConfig(authURL string) *config.Configuration {
	return &config.Configuration{
		App: config.Application{Timeout: 5},
		Session: config.SessionConfig{
			DefaultTimeoutMinutes:  30,
			InactivityCheckSeconds: 60,
		},
		ExternalServices: config.ExternalServices{
			AuthService: config.AuthServiceConfig{URL: authURL, Timeout: 5},
		},
	}
}

func setupHandler(t *testing.T, authURL string) (*gin.Engine, *Manager, *noopResetter) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := handlerConfig(authURL)
	store := newFakeStore()
	tracker := activity.NewTracker(store, nil, cfg)
	manager := NewManager(store, tracker, cfg)
	t.Cleanup(manager.Close)

	resetter := &noopResetter{}
	h := NewHandler(cfg, manager, clients.NewAuthClient(cfg), resetter)

	router := gin.New()
	router.POST("/login", h.Login)
	router.POST("/register", h.Register)
	router.POST("/logout", h.Logout)
	router.GET("/session", h.GetSession)
	return router, manager, resetter
}

func authServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginResponseDisclosesToken(t *testing.T) {
	srv := authServer(t, `{"token":"tok-123","sponsor":true}`)
	router, manager, _ := setupHandler(t, srv.URL)

	w := postJSON(router, "/login", `{"email":"ana@example.com","password":"secret"}`)

	require.Equal(t, http.StatusOK, w.Code)
	// The bearer token must reach the caller, or no protected route is
	// ever reachable.
	assert.Contains(t, w.Body.String(), `"token":"tok-123"`)
	assert.Equal(t, StateLoggedIn, manager.State())
	assert.Equal(t, "tok-123", manager.Snapshot().Token)
}

func TestRegisterResponseDisclosesToken(t *testing.T) {
	srv := authServer(t, `{"token":"tok-456"}`)
	router, manager, _ := setupHandler(t, srv.URL)

	w := postJSON(router, "/register", `{"email":"ben@example.com","password":"secret","name":"Ben"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok-456"`)
	assert.Equal(t, "Ben", manager.Snapshot().Profile.Name)
}

func TestGetSessionOmitsToken(t *testing.T) {
	srv := authServer(t, `{"token":"tok-123"}`)
	router, _, _ := setupHandler(t, srv.URL)

	require.Equal(t, http.StatusOK, postJSON(router, "/login", `{"email":"ana@example.com","password":"secret"}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "tok-123")
	assert.Contains(t, w.Body.String(), `"loggedIn":true`)
}

func TestLoginFailureDoesNotTouchSession(t *testing.T) {
	srv := authServer(t, `{"token":""}`)
	router, manager, _ := setupHandler(t, srv.URL)

	w := postJSON(router, "/login", `{"email":"ana@example.com","password":"bad"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEqual(t, StateLoggedIn, manager.State())
}

func TestLogoutResetsConversations(t *testing.T) {
	srv := authServer(t, `{"token":"tok-123"}`)
	router, manager, resetter := setupHandler(t, srv.URL)

	require.Equal(t, http.StatusOK, postJSON(router, "/login", `{"email":"ana@example.com","password":"secret"}`).Code)
	require.Equal(t, http.StatusOK, postJSON(router, "/logout", ``).Code)

	assert.Equal(t, StateLoggedOut, manager.State())
	assert.GreaterOrEqual(t, resetter.calls, 1)
}
