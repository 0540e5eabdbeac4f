package entity

// Scope is the tenant filter applied to every domain query.
// Both fields are matched exactly, so the empty scope is its own tenant.
type Scope struct {
	CompanyID string `json:"company_id"`
	SiteID    string `json:"site_id"`
}

// IsZero reports whether this is the default (empty) tenant.
func (s Scope) IsZero() bool {
	return s.CompanyID == "" && s.SiteID == ""
}
