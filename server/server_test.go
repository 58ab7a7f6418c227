package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-bridge/auth"
	"github.com/jrsteele09/go-tenant-bridge/handoff"
	"github.com/jrsteele09/go-tenant-bridge/internal/config"
	"github.com/jrsteele09/go-tenant-bridge/server"
	"github.com/jrsteele09/go-tenant-bridge/sessions"
	"github.com/jrsteele09/go-tenant-bridge/tenants"
	"github.com/jrsteele09/go-tenant-bridge/users"
	"github.com/stretchr/testify/require"
)

const (
	testLoginHost  = "login.example.com"
	testTenantID   = "acme"
	testTenantHost = "acme.example.com"
	testUserEmail  = "john.doe@example.com"
	testPassword   = "password123"
)

// testServer drives the HTTP surface with a controllable clock.
type testServer struct {
	srv     *server.Server
	now     time.Time
	cookies map[string]*http.Cookie // cookie name -> last value set
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	t.Setenv("LOGIN_HOST", testLoginHost)
	t.Setenv("BASE_DOMAIN", "example.com")

	ts := &testServer{
		now:     time.Now(),
		cookies: make(map[string]*http.Cookie),
	}
	nowFunc := func() time.Time { return ts.now }

	userRepo := users.NewInMemoryRepo()
	passwordHash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, userRepo.Upsert(&users.User{
		ID:           "user-1",
		Email:        testUserEmail,
		Name:         "John Doe",
		PasswordHash: passwordHash,
		Tenants:      []string{testTenantID, "globex"},
	}))

	tenantRepo := tenants.NewInMemoryRepo()
	require.NoError(t, tenantRepo.Upsert(&tenants.Tenant{ID: testTenantID, Name: "Acme"}))
	require.NoError(t, tenantRepo.Upsert(&tenants.Tenant{ID: "globex", Name: "Globex"}))

	cfg := config.New()
	tokens := handoff.NewInMemoryStore(cfg.GetHandoffTokenTTL(), handoff.WithNowTime(nowFunc))

	srv, err := server.New(cfg, auth.Repos{
		Users:    userRepo,
		Tenants:  tenantRepo,
		Sessions: sessions.NewInMemoryRepo(),
	}, tokens, server.WithNowTime(nowFunc))
	require.NoError(t, err)

	ts.srv = srv
	return ts
}

// do performs a request against the server, carrying and recording
// cookies like a browser would (scoped checks are the server's job).
func (ts *testServer) do(t *testing.T, method, host, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, "http://"+host+path, reader)
	req.Host = host
	for _, cookie := range ts.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(ts.cookies, cookie.Name)
			continue
		}
		ts.cookies[cookie.Name] = &http.Cookie{Name: cookie.Name, Value: cookie.Value}
	}
	return rec
}

func (ts *testServer) login(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, http.MethodPost, testLoginHost, "/auth/login",
		`{"email":"`+testUserEmail+`","secret":"`+testPassword+`"}`)
}

// initHandoff runs init-session and returns the verification path on
// the tenant host.
func (ts *testServer) initHandoff(t *testing.T, tenantID string) string {
	t.Helper()

	rec := ts.do(t, http.MethodGet, testLoginHost, "/auth/init-session/"+tenantID, "")
	require.Equal(t, http.StatusFound, rec.Code)

	location := rec.Header().Get("Location")
	require.Contains(t, location, tenantID+".example.com")
	idx := strings.Index(location, "/tenant/verify-token/")
	require.NotEqual(t, -1, idx)
	return location[idx:]
}

func TestLoginValidateLogout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, testLoginHost, "/auth/validate-session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"valid":false`)

	rec = ts.login(t)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), testUserEmail)
	require.NotContains(t, rec.Body.String(), "password")

	rec = ts.do(t, http.MethodGet, testLoginHost, "/auth/validate-session", "")
	require.Contains(t, rec.Body.String(), `"valid":true`)

	rec = ts.do(t, http.MethodPost, testLoginHost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, testLoginHost, "/auth/validate-session", "")
	require.Contains(t, rec.Body.String(), `"valid":false`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, testLoginHost, "/auth/login",
		`{"email":"`+testUserEmail+`","secret":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_credentials")
}

func TestLoginRejectedOffLoginHost(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, testTenantHost, "/auth/login",
		`{"email":"`+testUserEmail+`","secret":"`+testPassword+`"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid_host")
}

func TestUnauthenticatedInitSessionRedirectsToLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, testLoginHost, "/auth/init-session/"+testTenantID, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?tenant="+testTenantID, rec.Header().Get("Location"))
}

func TestHandoffFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	verifyPath := ts.initHandoff(t, testTenantID)

	// Redeeming on the tenant host sets the tenant session cookie and
	// lands on the tenant root.
	rec := ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, ts.cookies, "tenant_session_"+testTenantID)

	// The tenant session authorizes pings.
	rec = ts.do(t, http.MethodGet, testTenantHost, "/tenant/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "timestamp")

	// The token was consumed: replaying it is invalid, not expired.
	rec = ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token_invalid")
}

func TestHandoffTokenExpires(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	verifyPath := ts.initHandoff(t, testTenantID)
	ts.now = ts.now.Add(31 * time.Second)

	rec := ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token_expired")

	// The expired record was deleted on first presentation.
	rec = ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Contains(t, rec.Body.String(), "token_invalid")
}

func TestHandoffTokenWrongHost(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	verifyPath := ts.initHandoff(t, testTenantID)

	rec := ts.do(t, http.MethodGet, "globex.example.com", verifyPath, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "tenant_mismatch")

	// The mismatch did not consume the token; the correct host may
	// still redeem it.
	rec = ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestInitSessionForUngrantedTenantIsForbidden(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	rec := ts.do(t, http.MethodGet, testLoginHost, "/auth/init-session/initech", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "tenant_not_granted")
}

func TestTwoHandoffTokensAreIndependent(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	first := ts.initHandoff(t, testTenantID)
	second := ts.initHandoff(t, testTenantID)
	require.NotEqual(t, first, second)

	rec := ts.do(t, http.MethodGet, testTenantHost, first, "")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = ts.do(t, http.MethodGet, testTenantHost, second, "")
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestTenantSessionIdleTimeout(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	verifyPath := ts.initHandoff(t, testTenantID)
	rec := ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Equal(t, http.StatusFound, rec.Code)

	// Activity within the idle window keeps the session alive and
	// refreshes lastActivity.
	ts.now = ts.now.Add(15 * time.Minute)
	rec = ts.do(t, http.MethodGet, testTenantHost, "/tenant/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	ts.now = ts.now.Add(15 * time.Minute)
	rec = ts.do(t, http.MethodGet, testTenantHost, "/tenant/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Past the 20 minute idle threshold the session is destroyed and
	// the request rejected.
	ts.now = ts.now.Add(20*time.Minute + time.Second)
	rec = ts.do(t, http.MethodGet, testTenantHost, "/tenant/ping", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "session_expired")

	// The session is gone, so the next request has no session at all.
	ts.cookies["tenant_session_"+testTenantID] = &http.Cookie{
		Name:  "tenant_session_" + testTenantID,
		Value: "stale",
	}
	rec = ts.do(t, http.MethodGet, testTenantHost, "/tenant/ping", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "no_session")
}

func TestPingWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, testTenantHost, "/tenant/ping", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "no_session")
}

func TestTenantCookieDoesNotAuthorizeOtherTenant(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	verifyPath := ts.initHandoff(t, testTenantID)
	rec := ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Equal(t, http.StatusFound, rec.Code)

	// The acme cookie is name-scoped to acme; globex resolves its own
	// scope and finds nothing.
	rec = ts.do(t, http.MethodGet, "globex.example.com", "/tenant/ping", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "no_session")
}

func TestLogoutOnTenantHostDestroysTenantSessionOnly(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	verifyPath := ts.initHandoff(t, testTenantID)
	rec := ts.do(t, http.MethodGet, testTenantHost, verifyPath, "")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = ts.do(t, http.MethodPost, testTenantHost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, testTenantHost, "/tenant/ping", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The login-domain session is untouched.
	rec = ts.do(t, http.MethodGet, testLoginHost, "/auth/validate-session", "")
	require.Contains(t, rec.Body.String(), `"valid":true`)
}
