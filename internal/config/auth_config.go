package config

import (
	"strconv"
	"strings"
	"time"
)

// AuthConfig holds the knobs for the session bridging subsystem.
// Durations configured in milliseconds mirror the environment variables
// of the original deployment (TENANT_IDLE_TIMEOUT, SESSION_MAX_AGE,
// SWEEP_INTERVAL); HANDOFF_TOKEN_TTL is configured in seconds.
type AuthConfig interface {
	GetBaseDomain() string
	GetLoginHost() string
	GetHandoffTokenTTL() time.Duration
	GetTenantIdleTimeout() time.Duration
	GetSessionMaxAge() time.Duration
	GetSweepInterval() time.Duration
	GetSeedTenants() []string
	GetSeedUserEmail() string
	GetSeedUserName() string
	GetSeedUserPassword() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetBaseDomain returns the shared parent domain under which tenant
// subdomains live (e.g. "example.com" for "acme.example.com").
func (Auth) GetBaseDomain() string {
	return GetEnv("BASE_DOMAIN", "localhost")
}

// GetLoginHost returns the canonical hostname of the shared login domain.
func (Auth) GetLoginHost() string {
	return GetEnv("LOGIN_HOST", "login.localhost")
}

func (Auth) GetHandoffTokenTTL() time.Duration {
	return durationEnv("HANDOFF_TOKEN_TTL", 30*time.Second, time.Second)
}

func (Auth) GetTenantIdleTimeout() time.Duration {
	return durationEnv("TENANT_IDLE_TIMEOUT", 20*time.Minute, time.Millisecond)
}

func (Auth) GetSessionMaxAge() time.Duration {
	return durationEnv("SESSION_MAX_AGE", time.Hour, time.Millisecond)
}

func (Auth) GetSweepInterval() time.Duration {
	return durationEnv("SWEEP_INTERVAL", 15*time.Minute, time.Millisecond)
}

// GetSeedTenants returns the tenant IDs to register at bootstrap,
// from a comma-separated SEED_TENANTS value.
func (Auth) GetSeedTenants() []string {
	raw := GetEnv("SEED_TENANTS", "")
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (Auth) GetSeedUserEmail() string {
	return GetEnv("SEED_USER_EMAIL", "")
}

func (Auth) GetSeedUserName() string {
	return GetEnv("SEED_USER_NAME", "Demo User")
}

func (Auth) GetSeedUserPassword() string {
	return GetEnv("SEED_USER_PASSWORD", "")
}

func durationEnv(envVar string, defaultValue time.Duration, unit time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return time.Duration(value) * unit
}
