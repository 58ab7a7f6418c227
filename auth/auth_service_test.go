package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-bridge/auth"
	"github.com/jrsteele09/go-tenant-bridge/handoff"
	"github.com/jrsteele09/go-tenant-bridge/sessions"
	"github.com/jrsteele09/go-tenant-bridge/sessions/repofakes"
	"github.com/jrsteele09/go-tenant-bridge/tenants"
	"github.com/jrsteele09/go-tenant-bridge/users"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testBaseDomain   = "example.com"
	testUserID       = "user-1"
	testUserEmail    = "john.doe@example.com"
	testUserName     = "John Doe"
	testUserPassword = "password123"
	testTenantID     = "acme"
	testSessionID    = "session-1"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    users.Repo
	tenantRepo  tenants.Repo
	sessionRepo *repofakes.FakeSessionRepo
	tokens      *handoff.InMemoryStore
	service     *auth.Service
}

func setupTestFixture(t *testing.T, options ...auth.ServiceOption) *testFixture {
	t.Helper()

	ur := users.NewInMemoryRepo()
	tr := tenants.NewInMemoryRepo()
	sr := repofakes.NewFakeSessionRepo()
	tokens := handoff.NewInMemoryStore(30 * time.Second)

	service, err := auth.NewService(auth.Repos{
		Users:    ur,
		Tenants:  tr,
		Sessions: sr,
	}, tokens, testBaseDomain, options...)
	require.NoError(t, err)

	return &testFixture{
		userRepo:    ur,
		tenantRepo:  tr,
		sessionRepo: sr,
		tokens:      tokens,
		service:     service,
	}
}

func (f *testFixture) createTestUser(t *testing.T, tenantIDs ...string) {
	t.Helper()

	passwordHash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)

	require.NoError(t, f.userRepo.Upsert(&users.User{
		ID:           testUserID,
		Email:        testUserEmail,
		Name:         testUserName,
		PasswordHash: passwordHash,
		Tenants:      tenantIDs,
	}))

	for _, tenantID := range tenantIDs {
		require.NoError(t, f.tenantRepo.Upsert(&tenants.Tenant{ID: tenantID, Name: tenantID}))
	}
}

func (f *testFixture) loginRecord(t *testing.T) sessions.Record {
	t.Helper()

	record, err := f.sessionRepo.Get(context.Background(), sessions.LoginScope, testSessionID)
	require.NoError(t, err)
	return record
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	principal, err := f.service.Login(context.Background(), testSessionID, testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.Equal(t, testUserID, principal.ID)
	require.Equal(t, []string{testTenantID}, principal.Tenants)
	require.Empty(t, principal.PasswordHash, "secret must never be returned")

	record := f.loginRecord(t)
	require.Equal(t, testUserID, record.PrincipalID)
	require.Equal(t, []string{testTenantID}, record.Tenants)
	require.False(t, record.LastActivity.IsZero())
}

func TestLoginWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	_, err := f.service.Login(context.Background(), testSessionID, testUserEmail, "wrong-password")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Login(context.Background(), testSessionID, "nobody@example.com", testUserPassword)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginPersistenceFailureIsSurfaced(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)
	f.sessionRepo.SetErr = errors.New("store is down")

	_, err := f.service.Login(context.Background(), testSessionID, testUserEmail, testUserPassword)
	require.ErrorIs(t, err, auth.ErrSessionPersistence)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	_, err := f.service.Login(context.Background(), testSessionID, testUserEmail, testUserPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), sessions.LoginScope, testSessionID))
	_, err = f.sessionRepo.Get(context.Background(), sessions.LoginScope, testSessionID)
	require.ErrorIs(t, err, sessions.ErrNotFound)

	// Logging out again, or with no session at all, still succeeds.
	require.NoError(t, f.service.Logout(context.Background(), sessions.LoginScope, testSessionID))
	require.NoError(t, f.service.Logout(context.Background(), sessions.TenantScope(testTenantID), ""))
}

func TestInitiateHandoffBuildsVerificationURL(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	_, err := f.service.Login(context.Background(), testSessionID, testUserEmail, testUserPassword)
	require.NoError(t, err)

	redirect, err := f.service.InitiateHandoff(f.loginRecord(t), testTenantID, "https", ":8443")
	require.NoError(t, err)
	require.Regexp(t, `^https://acme\.example\.com:8443/tenant/verify-token/[A-Za-z0-9_-]+$`, redirect)
}

func TestInitiateHandoffRequiresAuthenticatedSession(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.InitiateHandoff(sessions.Record{}, testTenantID, "http", "")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestInitiateHandoffTenantNotGranted(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	_, err := f.service.Login(context.Background(), testSessionID, testUserEmail, testUserPassword)
	require.NoError(t, err)

	_, err = f.service.InitiateHandoff(f.loginRecord(t), "globex", "http", "")
	require.ErrorIs(t, err, auth.ErrTenantNotGranted)
}

func TestInitiateHandoffUnknownTenant(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)
	require.NoError(t, f.tenantRepo.Delete(testTenantID))

	_, err := f.service.Login(context.Background(), testSessionID, testUserEmail, testUserPassword)
	require.NoError(t, err)

	// The grant exists but the tenant is gone from the registry; the
	// failure is indistinguishable from a missing grant.
	_, err = f.service.InitiateHandoff(f.loginRecord(t), testTenantID, "http", "")
	require.ErrorIs(t, err, auth.ErrTenantNotGranted)
}

func TestRedeemHandoffCreatesTenantSession(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	token, err := f.tokens.Issue(testUserID, testTenantID)
	require.NoError(t, err)

	record, err := f.service.RedeemHandoff(context.Background(), token, "acme.example.com", "tenant-session-1")
	require.NoError(t, err)
	require.Equal(t, testUserID, record.PrincipalID)
	require.Equal(t, testTenantID, record.TenantID)
	require.Equal(t, testUserEmail, record.Email)

	stored, err := f.sessionRepo.Get(context.Background(), sessions.TenantScope(testTenantID), "tenant-session-1")
	require.NoError(t, err)
	require.Equal(t, record.PrincipalID, stored.PrincipalID)
}

func TestRedeemHandoffPropagatesTokenErrors(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.RedeemHandoff(context.Background(), "bogus", "acme.example.com", "sid")
	require.ErrorIs(t, err, handoff.ErrTokenInvalid)
}

func TestRedeemHandoffRevalidatesMembership(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	token, err := f.tokens.Issue(testUserID, testTenantID)
	require.NoError(t, err)

	// The grant is revoked between issuance and redemption.
	require.NoError(t, f.userRepo.Upsert(&users.User{
		ID:    testUserID,
		Email: testUserEmail,
	}))

	_, err = f.service.RedeemHandoff(context.Background(), token, "acme.example.com", "sid")
	require.ErrorIs(t, err, auth.ErrTenantNotGranted)
}

func TestRedeemHandoffPersistenceFailureIsSurfaced(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)
	f.sessionRepo.SetErr = errors.New("store is down")

	token, err := f.tokens.Issue(testUserID, testTenantID)
	require.NoError(t, err)

	_, err = f.service.RedeemHandoff(context.Background(), token, "acme.example.com", "sid")
	require.ErrorIs(t, err, auth.ErrSessionPersistence)
}

func TestSequentialHandoffsProduceIndependentTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.createTestUser(t, testTenantID)

	_, err := f.service.Login(context.Background(), testSessionID, testUserEmail, testUserPassword)
	require.NoError(t, err)
	login := f.loginRecord(t)

	first, err := f.service.InitiateHandoff(login, testTenantID, "http", "")
	require.NoError(t, err)
	second, err := f.service.InitiateHandoff(login, testTenantID, "http", "")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
