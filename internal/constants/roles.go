package constants

// Platform roles (enum values stored on users.role).
const (
	Admin   = "ADMIN"
	Officer = "OFFICER"
	Agent   = "AGENT"
)

// ValidRoles is the set of allowed role enum values.
var ValidRoles = []string{Agent, Officer, Admin}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsOfficer returns true for roles with compliance-officer standing.
func IsOfficer(role string) bool {
	return role == Admin || role == Officer
}
