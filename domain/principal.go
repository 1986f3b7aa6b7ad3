package domain

// Role is an authorization role carried by an authenticated principal.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Principal is the authenticated caller of a command or query.
// It is supplied per request and never persisted by this service.
type Principal struct {
	SubjectID string `json:"subject_id"`
	Roles     []Role `json:"roles"`
}

// HasRole reports whether the principal holds the given role.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
