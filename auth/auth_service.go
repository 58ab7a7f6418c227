// Package auth orchestrates cross-domain session bridging: credential
// login on the shared login domain, one-time handoff token issuance, and
// token redemption into an isolated tenant-domain session.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-tenant-bridge/handoff"
	"github.com/jrsteele09/go-tenant-bridge/sessions"
	"github.com/jrsteele09/go-tenant-bridge/tenants"
	"github.com/jrsteele09/go-tenant-bridge/users"
)

// VerifyPathFormat is the tenant-domain path that redeems a handoff
// token. The server registers the matching route.
const VerifyPathFormat = "/tenant/verify-token/%s"

// Repos holds all repository dependencies for the Service.
type Repos struct {
	Users    users.Repo    // User directory (external collaborator)
	Tenants  tenants.Repo  // Tenant registry
	Sessions sessions.Repo // Dual-domain session store
}

// Service is the auth engine. It exclusively owns creation and deletion
// of handoff tokens and tenant sessions; the guards only read sessions
// and refresh their activity timestamps.
type Service struct {
	repos      Repos
	tokens     handoff.Store
	baseDomain string           // shared parent domain of the tenant subdomains
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, tokens handoff.Store, baseDomain string, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Tenants == nil {
		return nil, errors.New("[NewService] Tenants repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] token store is required")
	}
	if baseDomain == "" {
		return nil, errors.New("[NewService] baseDomain is required")
	}

	service := &Service{
		repos:      repos,
		tokens:     tokens,
		baseDomain: baseDomain,
		nowTime:    time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Login validates credentials and establishes the login-domain session
// under sessionID. The session write is confirmed before success is
// returned; the sanitized principal never carries the secret hash.
func (s *Service) Login(ctx context.Context, sessionID, email, secret string) (*users.User, error) {
	user, err := s.repos.Users.GetByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !users.CheckPasswordHash(secret, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	record := sessions.Record{
		PrincipalID:  user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Tenants:      append([]string(nil), user.Tenants...),
		LastActivity: s.nowTime(),
	}
	if err := s.repos.Sessions.Set(ctx, sessions.LoginScope, sessionID, record); err != nil {
		log.Err(err).Str("email", email).Msg("failed to persist login session")
		return nil, errors.Wrap(ErrSessionPersistence, "[Service.Login] sessions.Set")
	}

	return user.Sanitized(), nil
}

// Logout destroys the session under (scope, sessionID). Destroying a
// session that does not exist is a success.
func (s *Service) Logout(ctx context.Context, scope sessions.Scope, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.repos.Sessions.Destroy(ctx, scope, sessionID); err != nil && !errors.Is(err, sessions.ErrNotFound) {
		log.Err(err).Str("scope", string(scope)).Msg("failed to destroy session")
		return errors.Wrap(ErrSessionPersistence, "[Service.Logout] sessions.Destroy")
	}
	return nil
}

// InitiateHandoff issues a one-time token for tenantID and returns the
// tenant-domain verification URL the caller should be redirected to.
// scheme and port are taken from the originating request so the redirect
// stays on the same scheme/port as the login domain.
func (s *Service) InitiateHandoff(login sessions.Record, tenantID, scheme, port string) (string, error) {
	if !login.Authenticated() {
		return "", errors.Wrap(ErrUnauthorized, "[Service.InitiateHandoff] no authenticated login session")
	}
	if !containsTenant(login.Tenants, tenantID) {
		return "", errors.Wrapf(ErrTenantNotGranted, "[Service.InitiateHandoff] tenant %q", tenantID)
	}
	// The registry check keeps handoffs to decommissioned tenants from
	// minting tokens; the response is indistinguishable from a missing
	// grant.
	if _, err := s.repos.Tenants.Get(tenantID); err != nil {
		return "", errors.Wrapf(ErrTenantNotGranted, "[Service.InitiateHandoff] unknown tenant %q", tenantID)
	}

	token, err := s.tokens.Issue(login.PrincipalID, tenantID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.InitiateHandoff] tokens.Issue")
	}

	verifyPath := fmt.Sprintf(VerifyPathFormat, token)
	return fmt.Sprintf("%s://%s.%s%s%s", scheme, tenantID, s.baseDomain, port, verifyPath), nil
}

// RedeemHandoff consumes a token presented on a tenant host and creates
// the tenant-domain session under sessionID. The principal's tenant
// membership is re-validated through the user directory at redemption,
// not only at issuance.
func (s *Service) RedeemHandoff(ctx context.Context, token, requestHost, sessionID string) (sessions.Record, error) {
	principalID, tenantID, err := s.tokens.Redeem(token, requestHost)
	if err != nil {
		return sessions.Record{}, errors.Wrap(err, "[Service.RedeemHandoff] tokens.Redeem")
	}

	user, err := s.repos.Users.GetByID(principalID, tenantID)
	if err != nil {
		return sessions.Record{}, errors.Wrapf(ErrTenantNotGranted, "[Service.RedeemHandoff] principal %q no longer in tenant %q", principalID, tenantID)
	}

	record := sessions.Record{
		PrincipalID:  user.ID,
		Email:        user.Email,
		TenantID:     tenantID,
		LastActivity: s.nowTime(),
	}
	if err := s.repos.Sessions.Set(ctx, sessions.TenantScope(tenantID), sessionID, record); err != nil {
		log.Err(err).Str("tenant", tenantID).Msg("failed to persist tenant session")
		return sessions.Record{}, errors.Wrap(ErrSessionPersistence, "[Service.RedeemHandoff] sessions.Set")
	}

	return record, nil
}

func containsTenant(tenantIDs []string, tenantID string) bool {
	if tenantID == "" {
		return false
	}
	for _, id := range tenantIDs {
		if id == tenantID {
			return true
		}
	}
	return false
}
