package domain

import "time"

// Role enumerates the account roles a user may hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a wire value to a Role. Empty input yields RoleUser.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case "":
		return RoleUser, true
	case RoleUser, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// Authority returns the granted authority string for the role.
func (r Role) Authority() string {
	if r == "" {
		return ""
	}
	return "ROLE_" + string(r)
}

// User is the stored credential record.
type User struct {
	ID               string
	Username         string
	PasswordHash     string
	Email            string
	SecurityQuestion string
	SecurityAnswer   string
	Role             Role
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Authorities lists the authorities derived from the user's role.
func (u *User) Authorities() []string {
	if u == nil || u.Role == "" {
		return nil
	}
	return []string{u.Role.Authority()}
}
