package users

import (
	"golang.org/x/crypto/bcrypt"
)

// User is the principal record served by the user directory. A principal
// may be granted access to any number of tenants; the Tenants slice holds
// the tenant IDs it may hand off to.
type User struct {
	ID           string   `json:"id,omitempty"`    // Unique identifier for the user
	Email        string   `json:"email,omitempty"` // User's email address
	Name         string   `json:"name,omitempty"`  // Display name
	PasswordHash string   `json:"-"`               // Hashed secret - never serialize
	Tenants      []string `json:"tenants,omitempty"`
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (u *User) HasTenant(tenantID string) bool {
	for _, t := range u.Tenants {
		if tenantID == t {
			return true
		}
	}
	return false
}

// Sanitized returns a copy of the user safe to hand to callers outside the
// auth boundary: the password hash is dropped and the tenant grant slice
// is copied so callers cannot mutate the stored record.
func (u *User) Sanitized() *User {
	sanitized := &User{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
	if len(u.Tenants) > 0 {
		sanitized.Tenants = append([]string(nil), u.Tenants...)
	}
	return sanitized
}
