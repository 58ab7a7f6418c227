package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-tenant-bridge/tenants"
	"github.com/jrsteele09/go-tenant-bridge/users"
)

// InitialiseSystem seeds the tenant registry from configuration and, in
// DEV, a demo user with access to every seeded tenant. The generated
// password is logged once on first creation.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	seedTenants := s.config.GetSeedTenants()
	for _, tenantID := range seedTenants {
		if _, err := s.repos.Tenants.Get(tenantID); err == nil {
			continue
		}
		if err := s.repos.Tenants.Upsert(&tenants.Tenant{ID: tenantID, Name: tenantID}); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to seed tenant %q: %w", tenantID, err)
		}
	}

	seedEmail := s.config.GetSeedUserEmail()
	if seedEmail == "" || s.env != "DEV" {
		return nil
	}
	if _, err := s.repos.Users.GetByEmail(seedEmail); err == nil {
		return nil // Already seeded
	}

	password := s.config.GetSeedUserPassword()
	generated := password == ""
	if generated {
		password = generateRandomString(12)
	}
	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to hash seed password: %w", err)
	}

	if err := s.repos.Users.Upsert(&users.User{
		ID:           uuid.New().String(),
		Email:        seedEmail,
		Name:         s.config.GetSeedUserName(),
		PasswordHash: passwordHash,
		Tenants:      seedTenants,
	}); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to seed user: %w", err)
	}

	log.Printf("📋 System Configuration:")
	log.Printf("   Login host:  %s", s.config.GetLoginHost())
	log.Printf("   Base domain: %s", s.config.GetBaseDomain())
	log.Printf("   Tenants:     %v", seedTenants)
	log.Printf("")
	log.Printf("👤 Demo User Credentials:")
	log.Printf("   Email:       %s", seedEmail)
	if generated {
		log.Printf("   Password:    %s     (⚠️ generated - it will not be displayed again)", password)
	}
	log.Printf("")

	return nil
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
