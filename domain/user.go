package domain

import "time"

// User is a registered account whose roles seed the request principal.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Roles     []Role    `json:"roles"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}

// Principal builds the request principal carried by this user's sessions.
func (u *User) Principal() Principal {
	if u == nil {
		return Principal{}
	}
	return Principal{SubjectID: u.ID, Roles: u.Roles}
}
