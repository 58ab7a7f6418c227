package tenants

// Tenant represents one isolated tenant domain. Each tenant lives on its
// own subdomain of the shared base domain ("<id>.<base-domain>") and
// carries its own cookie-scoped session space.
type Tenant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
