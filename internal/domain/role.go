package domain

// Role is the access role carried in a user's token.
type Role string

const (
	RoleRequester Role = "SOLICITANTE"
	RoleAssigner  Role = "ASIGNADOR"
	RoleExecutor  Role = "EJECUTOR"
	RoleAdmin     Role = "ADMIN"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleRequester, RoleAssigner, RoleExecutor, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the authenticated caller.
type User struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the user has the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
