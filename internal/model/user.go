package model

// Role is a collaborator's permission level
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is a named collaborator on the shared document
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsAdmin returns true if the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
